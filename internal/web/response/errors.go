package response

import (
	"errors"
	"net/http"

	"github.com/dailies-app/dailies/internal/actions"
	"github.com/dailies-app/dailies/internal/store"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

// RenderError maps a domain error to its HTTP status and renders it.
func RenderError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, actions.ErrUnknownEntity):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, store.ErrMissingTable):
		status = http.StatusServiceUnavailable
		code = "table_unavailable"
	case errors.Is(err, store.ErrUniqueViolation):
		status = http.StatusConflict
		code = "conflict"
	case errors.Is(err, store.ErrForeignKeyViolation), errors.Is(err, store.ErrNotNullViolation):
		status = http.StatusUnprocessableEntity
		code = "constraint_violation"
	}

	RenderErrorWithStatus(w, status, code, err.Error())
}

// RenderErrorWithStatus renders an error with an explicit status and code.
func RenderErrorWithStatus(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, &ErrorResponse{
		Error:   "error",
		Message: message,
		Code:    code,
	})
}

// RenderBadRequest renders a 400 Bad Request error
func RenderBadRequest(w http.ResponseWriter, message string) {
	RenderErrorWithStatus(w, http.StatusBadRequest, "bad_request", message)
}

// RenderNotFound renders a 404 Not Found error
func RenderNotFound(w http.ResponseWriter, message string) {
	RenderErrorWithStatus(w, http.StatusNotFound, "not_found", message)
}

// RenderValidationError renders a 422 with the failing field attached.
func RenderValidationError(w http.ResponseWriter, field, message string) {
	JSON(w, http.StatusUnprocessableEntity, &ErrorResponse{
		Error:   "validation_failed",
		Message: message,
		Code:    "validation_error",
		Field:   field,
	})
}
