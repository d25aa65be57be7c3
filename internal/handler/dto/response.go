package dto

import (
	"encoding/json"
	"time"

	"github.com/mtlprog/taskflow/internal/domain"
)

// CreateTaskResponse is returned by task creation and by its idempotent replays.
type CreateTaskResponse struct {
	TaskID  string `json:"task_id"`
	State   string `json:"state"`
	Version int64  `json:"version"`
}

// TaskResponse represents a task snapshot.
type TaskResponse struct {
	TaskID      string    `json:"task_id"`
	TenantID    string    `json:"tenant_id"`
	WorkspaceID string    `json:"workspace_id"`
	Title       string    `json:"title"`
	Priority    string    `json:"priority"`
	State       string    `json:"state"`
	AssigneeID  *string   `json:"assignee_id"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskEventResponse represents an outbox event.
type TaskEventResponse struct {
	EventID     string          `json:"event_id"`
	TaskID      string          `json:"task_id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload" swaggertype:"object"`
	CreatedAt   time.Time       `json:"created_at"`
	PublishedAt *time.Time      `json:"published_at"`
}

// TaskDetailResponse is a task with its most recent events, newest first.
type TaskDetailResponse struct {
	Task   TaskResponse        `json:"task"`
	Events []TaskEventResponse `json:"events"`
}

// TasksListResponse represents one page of GET /workspaces/{workspace_id}/tasks.
type TasksListResponse struct {
	Tasks      []TaskResponse `json:"tasks"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// EventsListResponse represents the response for GET /events.
type EventsListResponse struct {
	Events []TaskEventResponse `json:"events"`
}

// ToTaskResponse converts domain.Task to TaskResponse.
func ToTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		TaskID:      task.ID,
		TenantID:    task.TenantID,
		WorkspaceID: task.WorkspaceID,
		Title:       task.Title,
		Priority:    string(task.Priority),
		State:       string(task.State),
		AssigneeID:  task.AssigneeID,
		Version:     task.Version,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskEventResponse converts domain.TaskEvent to TaskEventResponse.
func ToTaskEventResponse(event *domain.TaskEvent) TaskEventResponse {
	return TaskEventResponse{
		EventID:     event.ID,
		TaskID:      event.TaskID,
		Type:        string(event.Type),
		Payload:     event.Payload,
		CreatedAt:   event.CreatedAt,
		PublishedAt: event.PublishedAt,
	}
}

// ToTaskEventResponses converts a slice of events, never returning nil.
func ToTaskEventResponses(events []*domain.TaskEvent) []TaskEventResponse {
	out := make([]TaskEventResponse, len(events))
	for i, event := range events {
		out[i] = ToTaskEventResponse(event)
	}
	return out
}
