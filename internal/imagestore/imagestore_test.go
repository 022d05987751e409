package imagestore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/recipe-finder/internal/config"
	"github.com/recipe-finder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtension(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.gif", "e.webp"} {
		_, err := Extension(name)
		assert.NoError(t, err, name)
	}
	for _, name := range []string{"a.exe", "noext", "x.svg"} {
		_, err := Extension(name)
		assert.ErrorIs(t, err, model.ErrInvalidImage, name)
	}
}

func TestLocalStore_SaveListRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/uploads/recipes/", 1<<10)
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.Save(ctx, "photo.PNG", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/recipes/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	objects, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, url, objects[0].URL)

	require.NoError(t, s.Remove(ctx, url))
	_, err = os.Stat(filepath.Join(dir, filepath.Base(url)))
	assert.True(t, os.IsNotExist(err))

	// Removing again is not an error.
	assert.NoError(t, s.Remove(ctx, url))
}

func TestLocalStore_Rejects(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "/uploads/recipes", 4)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Save(ctx, "big.jpg", "", strings.NewReader("12345"))
	assert.ErrorIs(t, err, model.ErrInvalidImage)

	_, err = s.Save(ctx, "empty.jpg", "", strings.NewReader(""))
	assert.ErrorIs(t, err, model.ErrInvalidImage)

	_, err = s.Save(ctx, "script.sh", "", strings.NewReader("1"))
	assert.ErrorIs(t, err, model.ErrInvalidImage)

	objects, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestLocalStore_RemoveIgnoresForeignPaths(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "recipes")
	s, err := NewLocalStore(dir, "/uploads/recipes", 1<<10)
	require.NoError(t, err)

	outside := filepath.Join(parent, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	assert.NoError(t, s.Remove(context.Background(), "/uploads/recipes/../keep.txt"))
	assert.NoError(t, s.Remove(context.Background(), "https://cdn.example.com/a.png"))

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []string
	objects []types.Object
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{Contents: f.objects, IsTruncated: aws.Bool(false)}, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{}
	s := NewS3Store(fake, config.S3Config{Bucket: "imgs", PublicURL: "https://cdn.example.com/"}, 1<<10)
	ctx := context.Background()

	url, err := s.Save(ctx, "cake.jpg", "image/jpeg", bytes.NewReader([]byte("jpeg")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/recipes/"))

	require.Len(t, fake.puts, 1)
	assert.Equal(t, "imgs", aws.ToString(fake.puts[0].Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(fake.puts[0].ContentType))
	key := aws.ToString(fake.puts[0].Key)
	assert.Equal(t, "https://cdn.example.com/"+key, url)

	require.NoError(t, s.Remove(ctx, url))
	require.NoError(t, s.Remove(ctx, "/uploads/recipes/local.png"))
	assert.Equal(t, []string{key}, fake.deletes)

	modified := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	fake.objects = []types.Object{{Key: aws.String(key), LastModified: &modified}}
	objects, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Object{{URL: url, ModTime: modified}}, objects)
}

func TestNewS3Store_PublicURLFallback(t *testing.T) {
	s := NewS3Store(&fakeS3{}, config.S3Config{Bucket: "b", Endpoint: "http://minio:9000/"}, 1)
	assert.Equal(t, "http://minio:9000/b", s.publicURL)

	s = NewS3Store(&fakeS3{}, config.S3Config{Bucket: "b", Region: "eu-west-1"}, 1)
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", s.publicURL)
}
