package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/crowdfund/apiserver/config"
)

// ObjectStorage defines common image storage operations across
// backends. The destination is a directory for the local backend and
// a bucket for the object-store backends.
type ObjectStorage interface {
	EnsureDestination(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Storage wraps an ObjectStorage backend with a stable API.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// New selects and constructs the configured backend.
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewStorage(NewLocalStore(cfg.ImageDir)), nil
	case "minio":
		backend, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return NewStorage(backend), nil
	case "gcs":
		backend, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return NewStorage(backend), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// EnsureDestination ensures the configured destination exists.
func (s *Storage) EnsureDestination(ctx context.Context) error {
	return s.backend.EnsureDestination(ctx)
}

// Put stores an object under the given key.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Get opens a reader for a stored object.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Delete removes a stored object.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}
