package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes images into a directory served as static files under
// urlPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
	maxBytes  int64
}

func NewLocalStore(dir, urlPrefix string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		maxBytes:  maxBytes,
	}, nil
}

func (s *LocalStore) Save(_ context.Context, originalName, _ string, r io.Reader) (string, error) {
	ext, err := Extension(originalName)
	if err != nil {
		return "", err
	}
	data, err := readLimited(r, s.maxBytes)
	if err != nil {
		return "", err
	}

	name := newObjectName(ext)
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return s.urlPrefix + "/" + name, nil
}

func (s *LocalStore) Remove(_ context.Context, url string) error {
	name, ok := s.nameOf(url)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}

func (s *LocalStore) List(_ context.Context) ([]Object, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	objects := make([]Object, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		objects = append(objects, Object{URL: s.urlPrefix + "/" + e.Name(), ModTime: info.ModTime()})
	}
	return objects, nil
}

// nameOf maps a URL back to a file name in dir. Anything outside the
// prefix, or that would escape dir, is not ours.
func (s *LocalStore) nameOf(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, s.urlPrefix+"/")
	if !ok || rest == "" {
		return "", false
	}
	name := path.Base(path.Clean("/" + rest))
	if name != rest {
		return "", false
	}
	return name, true
}
