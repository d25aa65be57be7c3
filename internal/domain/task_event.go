package domain

import (
	"encoding/json"
	"time"
)

// EventType represents the kind of a task event.
type EventType string

const (
	EventTypeTaskTransition EventType = "TASK_TRANSITION"
)

// TaskEvent is an immutable outbox record of something that happened to a task.
type TaskEvent struct {
	ID          string
	TaskID      string
	TenantID    string
	Type        EventType
	Payload     json.RawMessage
	CreatedAt   time.Time
	PublishedAt *time.Time // nil until the outbox relay has delivered it
}

// TransitionPayload is the payload of a TASK_TRANSITION event.
type TransitionPayload struct {
	From TaskState `json:"from"`
	To   TaskState `json:"to"`
}
