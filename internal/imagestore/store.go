// Package imagestore keeps uploaded recipe images, on local disk or in an
// S3-compatible bucket.
package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/recipe-finder/internal/model"
)

// Store saves, removes and enumerates recipe images by their public URL.
type Store interface {
	// Save stores the image and returns the URL recipes should reference.
	Save(ctx context.Context, originalName, contentType string, r io.Reader) (string, error)
	// Remove deletes the image behind url. Missing images and URLs the
	// store does not own are not errors.
	Remove(ctx context.Context, url string) error
	List(ctx context.Context) ([]Object, error)
}

// Object is a stored image.
type Object struct {
	URL     string
	ModTime time.Time
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Extension returns the lower-cased extension of name if it is an
// accepted image type.
func Extension(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: unsupported file type %q", model.ErrInvalidImage, ext)
	}
	return ext, nil
}

func newObjectName(ext string) string {
	return uuid.NewString() + ext
}

// readLimited reads all of r, failing with model.ErrInvalidImage when it
// holds more than max bytes.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if n > max {
		return nil, fmt.Errorf("%w: larger than %d bytes", model.ErrInvalidImage, max)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: empty file", model.ErrInvalidImage)
	}
	return buf.Bytes(), nil
}
