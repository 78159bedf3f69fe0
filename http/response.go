package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sagarc03/slotbox"
)

// WriteError writes a short plaintext error response
func WriteError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	if _, err := io.WriteString(w, message+"\n"); err != nil {
		slog.Debug("failed to write error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	code, message := classify(err)

	if code == http.StatusInternalServerError {
		slog.Error("request error", "error", err)
	} else {
		slog.Debug("request rejected", "status", code, "error", err)
	}

	WriteError(w, code, message)
}

func classify(err error) (int, string) {
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, slotbox.ErrAuthMissing):
		return http.StatusForbidden, "no auth token provided"
	case errors.Is(err, slotbox.ErrAuthInvalid):
		return http.StatusForbidden, "invalid auth token"
	case errors.Is(err, slotbox.ErrConflict):
		return http.StatusConflict, "file already exists"
	case errors.Is(err, slotbox.ErrNotFound):
		return http.StatusNotFound, "file not found"
	case errors.Is(err, slotbox.ErrInvalidPath):
		return http.StatusBadRequest, "invalid path"
	case errors.Is(err, slotbox.ErrSizeMismatch):
		return http.StatusBadRequest, "content length mismatch"
	case errors.Is(err, slotbox.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, slotbox.ErrTooLarge), errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, "upload too large"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
