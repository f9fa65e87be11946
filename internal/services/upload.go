package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/crowdfund/apiserver/internal/storage"
)

// ErrInvalidMimeType is returned when an upload declares a media type
// outside the image allow-list. Nothing is written in that case.
var ErrInvalidMimeType = errors.New("invalid mime type")

// mimeExtensions is the upload allow-list mapping declared media
// types to the stored file extension.
var mimeExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
}

const imagePublicPath = "/images/"

// UploadService validates and stores campaign images and computes
// their public URLs.
type UploadService struct {
	store   *storage.Storage
	baseURL string
	now     func() time.Time
}

func NewUploadService(store *storage.Storage, baseURL string) *UploadService {
	return &UploadService{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Save checks the declared media type against the allow-list, stores
// the file under a generated name, and returns the public URL to be
// persisted as the project's image path.
//
// The generated name lower-cases the original filename, joins spaces
// with "-", and appends a millisecond timestamp plus the extension
// implied by the media type. Uniqueness is therefore best-effort:
// two uploads of the same filename within the same millisecond
// collide.
func (s *UploadService) Save(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	ext, ok := mimeExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrInvalidMimeType
	}

	key := s.objectKey(filename, ext)
	if err := s.store.Put(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	return s.baseURL + imagePublicPath + key, nil
}

func (s *UploadService) objectKey(filename, ext string) string {
	name := strings.ToLower(filepath.Base(filename))
	name = strings.Join(strings.Split(name, " "), "-")
	return fmt.Sprintf("%s-%d.%s", name, s.now().UnixMilli(), ext)
}
