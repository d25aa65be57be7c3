package domain

import (
	"encoding/json"
	"time"
)

// EndpointCreateTask scopes idempotency keys used on task creation.
const EndpointCreateTask = "POST /workspaces/{workspace_id}/tasks"

// IdempotencyRecord maps a caller-supplied key to the response first returned for it.
type IdempotencyRecord struct {
	TenantID  string
	Endpoint  string
	Key       string
	TaskID    string
	Response  json.RawMessage
	CreatedAt time.Time
}
