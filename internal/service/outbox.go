package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mtlprog/taskflow/internal/domain"
	"github.com/mtlprog/taskflow/internal/repository"
)

// OutboxRecorder appends domain events inside the transaction that mutates the task.
type OutboxRecorder struct {
	eventRepo *repository.TaskEventRepository
}

// NewOutboxRecorder creates a new OutboxRecorder.
func NewOutboxRecorder(eventRepo *repository.TaskEventRepository) *OutboxRecorder {
	return &OutboxRecorder{eventRepo: eventRepo}
}

// RecordTransition appends a TASK_TRANSITION event for task within tx.
// A failure here must abort tx: the state change is never committed without its event.
func (o *OutboxRecorder) RecordTransition(
	ctx context.Context,
	tx pgx.Tx,
	task *domain.Task,
	from, to domain.TaskState,
) (*domain.TaskEvent, error) {
	payload, err := json.Marshal(domain.TransitionPayload{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("encode transition payload: %w", err)
	}

	event := &domain.TaskEvent{
		ID:       uuid.NewString(),
		TaskID:   task.ID,
		TenantID: task.TenantID,
		Type:     domain.EventTypeTaskTransition,
		Payload:  payload,
	}

	if err := o.eventRepo.Append(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("record transition event: %w", err)
	}

	return event, nil
}
