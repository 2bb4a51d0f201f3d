package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/ecolog/internal/apperr"
	"github.com/starford/ecolog/internal/export"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs server-side failures and writes {"error": msg}.
func writeError(w http.ResponseWriter, op string, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error(op+" failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, errorBody(msg))
}

// clearWriteDeadline lifts the server write timeout for handlers that wait on
// external services. Their outbound clients carry their own timeouts.
func clearWriteDeadline(w http.ResponseWriter) {
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Warn("clear write deadline failed", slog.String("error", err.Error()))
	}
}

// writeAttachment sends an export as a file download.
func writeAttachment(w http.ResponseWriter, art export.Artifact) {
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(art.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Body); err != nil {
		slog.Warn("attachment write failed", slog.String("file", art.Filename), slog.String("error", err.Error()))
	}
}

func contentDisposition(filename string) string {
	v := fmt.Sprintf("attachment; filename=%q", filename)
	if !isASCII(filename) {
		v += "; filename*=UTF-8''" + url.PathEscape(filename)
	}
	return v
}

func isASCII(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r > 0x7e }) < 0
}
