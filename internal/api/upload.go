package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/starford/ecolog/internal/apperr"
)

const (
	imageField     = "image"
	maxUploadBytes = 20 << 20 // inline image limit of the vision API
)

// readImage pulls the "image" part out of a multipart request and returns
// its bytes and MIME type.
func readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", fmt.Errorf("%w: image too large or invalid multipart form", apperr.ErrInvalidInput)
	}
	file, header, err := r.FormFile(imageField)
	if err != nil {
		return nil, "", fmt.Errorf("%w: missing 'image' field in multipart form", apperr.ErrInvalidInput)
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(file, maxUploadBytes+1)); err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if buf.Len() == 0 {
		return nil, "", fmt.Errorf("%w: image is empty", apperr.ErrInvalidInput)
	}
	if buf.Len() > maxUploadBytes {
		return nil, "", fmt.Errorf("%w: image exceeds %d bytes", apperr.ErrInvalidInput, maxUploadBytes)
	}

	data := buf.Bytes()
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/jpeg"
	}
	return data, mimeType, nil
}
