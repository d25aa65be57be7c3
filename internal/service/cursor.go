package service

import (
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/mtlprog/taskflow/internal/domain"
)

// EncodeCursor turns the last task_id of a page into an opaque continuation token.
func EncodeCursor(taskID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(taskID))
}

// DecodeCursor recovers the task_id a cursor points after. An empty cursor means
// "from the start" and decodes to "".
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", domain.ErrInvalidCursor
	}

	id, err := uuid.Parse(string(raw))
	if err != nil {
		return "", domain.ErrInvalidCursor
	}

	return id.String(), nil
}
