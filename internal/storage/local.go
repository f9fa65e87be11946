package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps images on the local filesystem under a single
// directory, which the server also serves statically.
type LocalStore struct {
	dir string
}

// NewLocalStore constructs a filesystem backend rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	if strings.TrimSpace(dir) == "" {
		dir = "images"
	}
	return &LocalStore{dir: dir}
}

// EnsureDestination creates the image directory if it is missing.
func (l *LocalStore) EnsureDestination(ctx context.Context) error {
	return os.MkdirAll(l.dir, 0o755)
}

// Put writes an object to the image directory. Keys must be bare
// filenames; anything path-like is rejected.
func (l *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

// Get opens a stored object for reading.
func (l *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes a stored object.
func (l *LocalStore) Delete(ctx context.Context, key string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Dir returns the backing directory.
func (l *LocalStore) Dir() string {
	return l.dir
}

func (l *LocalStore) resolve(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", errors.New("invalid object key")
	}
	return filepath.Join(l.dir, key), nil
}
