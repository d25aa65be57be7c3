package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mtlprog/taskflow/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain errors to HTTP status codes and error codes.
// Specific errors get their own code; anything else falls back to its kind.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "TASK_NOT_FOUND", message

	case errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, "VERSION_CONFLICT", message
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION", message
	case errors.Is(err, domain.ErrTaskTerminal):
		return http.StatusConflict, "TASK_TERMINAL", message
	case errors.Is(err, domain.ErrTaskMissing):
		return http.StatusConflict, "TASK_MISSING", message
	}

	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound, "NOT_FOUND", message
	case domain.KindForbidden:
		return http.StatusForbidden, "INSUFFICIENT_ACCESS", message
	case domain.KindConflict:
		return http.StatusConflict, "CONFLICT", message
	case domain.KindInvalid:
		return http.StatusBadRequest, "VALIDATION_ERROR", message
	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
