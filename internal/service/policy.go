package service

import (
	"fmt"

	"github.com/mtlprog/taskflow/internal/domain"
)

// Authorize decides whether a caller with role may move a task from one state to another.
// Rules are evaluated in order:
//  1. a manager may only request CANCELLED;
//  2. an agent may never request CANCELLED;
//  3. an agent starting (NEW -> IN_PROGRESS) or completing (IN_PROGRESS -> DONE) a task
//     must be its assignee;
//  4. anything else the state machine permits is allowed.
//
// Rule violations wrap domain.ErrForbidden; a pair the state machine rejects wraps
// domain.ErrConflict.
func Authorize(role domain.Role, from, to domain.TaskState, actorID string, assigneeID *string) error {
	switch role {
	case domain.RoleManager:
		if to != domain.TaskStateCancelled {
			return fmt.Errorf("%w: requested %s", domain.ErrManagerCanOnlyCancel, to)
		}
	case domain.RoleAgent:
		if to == domain.TaskStateCancelled {
			return domain.ErrAgentCannotCancel
		}
		if requiresAssignee(from, to) && (assigneeID == nil || *assigneeID != actorID) {
			return fmt.Errorf("%w: agent %s cannot move task %s -> %s", domain.ErrNotAssignee, actorID, from, to)
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}

	if !domain.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}

	return nil
}

func requiresAssignee(from, to domain.TaskState) bool {
	return (from == domain.TaskStateNew && to == domain.TaskStateInProgress) ||
		(from == domain.TaskStateInProgress && to == domain.TaskStateDone)
}
