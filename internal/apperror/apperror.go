// Package apperror defines the error taxonomy shared by every layer.
//
// Each kind of failure has a sentinel (ErrNotFound, ErrValidation, ...).
// Layers return an *AppError that wraps the sentinel, so callers can test
// the kind with errors.Is and read the human-readable message with errors.As.
// Anything that is NOT an *AppError is treated as a storage/internal failure.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrBadRequest = errors.New("bad request")
)

type AppError struct {
	Err     error  // sentinel describing the kind of failure
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that no resource of the given kind exists with id.
// HTTP handlers map this to 404 Not Found.
func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// BadRequest reports input that could not be parsed at all (malformed path
// parameters, broken JSON). HTTP handlers map this to 400 Bad Request.
func BadRequest(message string) *AppError {
	return &AppError{
		Err:     ErrBadRequest,
		Message: message,
	}
}
