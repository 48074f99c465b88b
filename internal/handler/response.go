package handler

// RESPONSE HELPERS:
// Every handler writes JSON through writeJSON and every failure through
// writeError, so all responses share one shape:
//
//	{"error": "not_found", "message": "user not found with id 42"}
//
// The frontend (or curl user) always knows which fields to expect,
// regardless of whether it's a 400, 404 or 500.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/user-service/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status MUST be set before the body: once Encode writes,
// the headers are on the wire and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// The service layer returns apperror.ErrValidation, apperror.ErrNotFound,
// etc. and knows nothing about HTTP. This is the single place that
// translates those into 400, 404, ...
//
// Anything that is not an *apperror.AppError is a storage/internal failure:
// the client gets a generic 500 and the details go to the log only. Raw
// driver messages can contain SQL or file paths.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrBadRequest):
			status = http.StatusBadRequest // 400
			errorType = "bad_request"
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest // 400
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound // 404
			errorType = "not_found"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	slog.Error("internal error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// NotFound answers requests for routes that don't exist.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: "no route for " + r.Method + " " + r.URL.Path,
	})
}

// MethodNotAllowed answers requests whose path exists but not for this method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error:   "method_not_allowed",
		Message: r.Method + " is not allowed on " + r.URL.Path,
	})
}
