package response

import (
	"errors"
	"net/http"

	"procurement-backend/internal/apperr"
)

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// StatusFromError maps the service error taxonomy to an HTTP status code.
// Anything outside the taxonomy is an internal error.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrStateConflict),
		errors.Is(err, apperr.ErrDuplicateAssociation):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrPreconditionFailed):
		return http.StatusPreconditionFailed
	case errors.Is(err, apperr.ErrInsufficientBudget):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// FromError builds the error envelope for a service failure.
func FromError(err error) (int, Response) {
	code := StatusFromError(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		// Do not leak internals to the client
		msg = "internal server error"
	}
	return code, Error(code, msg)
}
