package handlers

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/crowdfund/apiserver/internal/storage"
	"github.com/go-chi/chi/v5"
)

// ImageHandler serves uploaded images back out of the storage
// backend, so the same /images URLs work for the local, MinIO, and
// GCS drivers alike.
type ImageHandler struct {
	store *storage.Storage
}

func NewImageHandler(store *storage.Storage) *ImageHandler {
	return &ImageHandler{store: store}
}

// ImageRouter registers the image route on the given router.
func ImageRouter(r chi.Router, store *storage.Storage) {
	handler := NewImageHandler(store)
	r.Get("/images/{filename}", handler.GetImage)
}

func (h *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	reader, err := h.store.Get(r.Context(), filename)
	if err != nil {
		writeError(w, http.StatusNotFound, "Image not Found!")
		return
	}
	defer reader.Close()

	if contentType := mime.TypeByExtension(filepath.Ext(filename)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := io.Copy(w, reader); err != nil {
		// Response already started; nothing sensible left to send.
		return
	}
}
