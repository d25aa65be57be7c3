package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the lifecycle core returns to its caller wraps exactly one
// of these, except storage faults which carry no kind.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid input")
)

var (
	// Task errors
	ErrTaskNotFound      = fmt.Errorf("task %w", ErrNotFound)
	ErrTaskMissing       = fmt.Errorf("%w: task does not exist", ErrConflict)
	ErrInvalidTransition = fmt.Errorf("%w: invalid state transition", ErrConflict)
	ErrVersionConflict   = fmt.Errorf("%w: version conflict", ErrConflict)
	ErrTaskTerminal      = fmt.Errorf("%w: task is in a terminal state", ErrConflict)

	// Permission errors
	ErrRoleCannotAssign     = fmt.Errorf("%w: only a manager can assign tasks", ErrForbidden)
	ErrManagerCanOnlyCancel = fmt.Errorf("%w: manager can only cancel tasks", ErrForbidden)
	ErrAgentCannotCancel    = fmt.Errorf("%w: agent cannot cancel tasks", ErrForbidden)
	ErrNotAssignee          = fmt.Errorf("%w: task is not assigned to the acting agent", ErrForbidden)
	ErrUnknownRole          = fmt.Errorf("%w: unknown role", ErrForbidden)

	// Validation errors
	ErrInvalidRole     = fmt.Errorf("%w: role must be 'agent' or 'manager'", ErrInvalid)
	ErrInvalidState    = fmt.Errorf("%w: unknown task state", ErrInvalid)
	ErrInvalidPriority = fmt.Errorf("%w: priority must be LOW, MEDIUM or HIGH", ErrInvalid)
	ErrInvalidTitle    = fmt.Errorf("%w: title must be between 1 and %d characters", ErrInvalid, MaxTitleLength)
	ErrInvalidCursor   = fmt.Errorf("%w: malformed cursor", ErrInvalid)
	ErrInvalidLimit    = fmt.Errorf("%w: limit out of range", ErrInvalid)
	ErrInvalidVersion  = fmt.Errorf("%w: version must be a positive integer", ErrInvalid)
)

// Kind classifies an error for the request boundary.
type Kind string

const (
	KindNotFound  Kind = "NOT_FOUND"
	KindForbidden Kind = "FORBIDDEN"
	KindConflict  Kind = "CONFLICT"
	KindInvalid   Kind = "INVALID"
	KindInternal  Kind = "INTERNAL"
)

// KindOf reports which error kind err belongs to. Errors that wrap none of the
// kind sentinels (storage failures, cancelled contexts) are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalid):
		return KindInvalid
	default:
		return KindInternal
	}
}
