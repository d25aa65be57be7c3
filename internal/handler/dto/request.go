package dto

// CreateTaskRequest represents the request body for POST /workspaces/{workspace_id}/tasks.
type CreateTaskRequest struct {
	Title    string `json:"title"`
	Priority string `json:"priority"`
}

// AssignTaskRequest represents the request body for POST .../tasks/{task_id}/assign.
type AssignTaskRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// TransitionTaskRequest represents the request body for POST .../tasks/{task_id}/transition.
type TransitionTaskRequest struct {
	ToState string `json:"to_state"`
}
