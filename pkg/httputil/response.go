package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/tthanhhau/shopsearch/pkg/errors"
	"github.com/tthanhhau/shopsearch/pkg/logger"
)

// Envelope is the standard JSON response shape consumed by the storefront.
// Successful responses set Success true and carry a payload in Data (plus
// endpoint-specific sibling fields added by the handlers); failures set
// Success false with a human message and the underlying error string.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, headers are already sent so nothing can be done.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a failure envelope based on the error type. AppError
// carries its own status and message; anything else maps through the
// sentinel errors. Internal errors are logged with the request-scoped
// logger when the request logging middleware is mounted.
func WriteError(w http.ResponseWriter, r *http.Request, message string, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}

	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		// Prefer the structured message over the generic handler one.
		message = messageOr(message, appErr.Message)
	}

	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Envelope{
		Success: false,
		Message: message,
		Error:   errorDetail(err),
	})
}

// messageOr returns the handler-provided message when set, otherwise the
// structured error message.
func messageOr(handlerMsg, errMsg string) string {
	if handlerMsg != "" {
		return handlerMsg
	}
	return errMsg
}

// errorDetail extracts the caller-facing error string. The raw error text
// is exposed deliberately: the frontend renders it for 4xx and surfaces
// backend messages for search execution failures.
func errorDetail(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
