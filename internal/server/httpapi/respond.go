package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/notekeeper/internal/common"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// statusFor maps service errors to a status and a client-facing message.
// Unknown errors never leak their text.
func statusFor(err error) (int, string) {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorDuplicateEmail):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, common.ErrorInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case common.IsUnauthorized(err):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "file too large"
	case errors.Is(err, common.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, "only JPEG, PNG and WEBP images are allowed"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(ctx, "request failed", "error", err)
	}
	writeMessage(w, status, msg)
}
