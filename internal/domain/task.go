package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength bounds Task.Title in characters.
const MaxTitleLength = 120

// TaskState represents the state of a task in the lifecycle state machine.
type TaskState string

const (
	TaskStateNew        TaskState = "NEW"
	TaskStateInProgress TaskState = "IN_PROGRESS"
	TaskStateDone       TaskState = "DONE"
	TaskStateCancelled  TaskState = "CANCELLED"
)

// allowedTransitions lists the permitted target states for every state.
// Terminal states have no entry.
var allowedTransitions = map[TaskState][]TaskState{
	TaskStateNew:        {TaskStateInProgress, TaskStateCancelled},
	TaskStateInProgress: {TaskStateDone, TaskStateCancelled},
}

// CanTransition reports whether the state machine allows moving from one state to another.
// It never fails: unknown states simply have no outgoing transitions.
func CanTransition(from, to TaskState) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the state has no outgoing transitions.
func (s TaskState) IsTerminal() bool {
	return s == TaskStateDone || s == TaskStateCancelled
}

// IsValid checks if the state is one of the allowed values.
func (s TaskState) IsValid() bool {
	switch s {
	case TaskStateNew, TaskStateInProgress, TaskStateDone, TaskStateCancelled:
		return true
	default:
		return false
	}
}

// ParseTaskState converts caller input into a TaskState.
func ParseTaskState(s string) (TaskState, error) {
	state := TaskState(s)
	if !state.IsValid() {
		return "", ErrInvalidState
	}
	return state, nil
}

// TaskPriority represents the priority level of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// ParseTaskPriority converts caller input into a TaskPriority.
func ParseTaskPriority(s string) (TaskPriority, error) {
	switch p := TaskPriority(s); p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return p, nil
	default:
		return "", ErrInvalidPriority
	}
}

// ValidateTitle checks the title length bound. Blank titles, invalid UTF-8 and
// NUL bytes are rejected since the database cannot store the latter two.
func ValidateTitle(title string) error {
	if !utf8.ValidString(title) || strings.ContainsRune(title, 0) || strings.TrimSpace(title) == "" {
		return ErrInvalidTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrInvalidTitle
	}
	return nil
}

// Task is the aggregate root of the lifecycle core.
type Task struct {
	ID          string
	TenantID    string
	WorkspaceID string
	Title       string
	Priority    TaskPriority
	State       TaskState
	AssigneeID  *string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BelongsTo reports whether the task lives in the given tenant and workspace.
// An empty argument matches any value.
func (t *Task) BelongsTo(tenantID, workspaceID string) bool {
	if tenantID != "" && t.TenantID != tenantID {
		return false
	}
	return workspaceID == "" || t.WorkspaceID == workspaceID
}

// IsAssignedTo checks if the task is assigned to the given user.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}
