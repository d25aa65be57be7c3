package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/taskflow/internal/domain"
)

var taskEventColumns = []string{
	"event_id", "task_id", "tenant_id", "type", "payload", "created_at", "published_at",
}

// TaskEventRepository handles database operations for task events.
type TaskEventRepository struct {
	pool *pgxpool.Pool
}

// NewTaskEventRepository creates a new TaskEventRepository.
func NewTaskEventRepository(pool *pgxpool.Pool) *TaskEventRepository {
	return &TaskEventRepository{pool: pool}
}

func scanTaskEvents(rows pgx.Rows) ([]*domain.TaskEvent, error) {
	defer rows.Close()

	events := []*domain.TaskEvent{}
	for rows.Next() {
		var event domain.TaskEvent
		var payload []byte
		err := rows.Scan(
			&event.ID,
			&event.TaskID,
			&event.TenantID,
			&event.Type,
			&payload,
			&event.CreatedAt,
			&event.PublishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task event: %w", err)
		}
		event.Payload = payload
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return events, nil
}

// Append inserts an event within the caller's transaction and populates CreatedAt.
func (r *TaskEventRepository) Append(ctx context.Context, tx pgx.Tx, event *domain.TaskEvent) error {
	query, args, err := psql.
		Insert("task_events").
		Columns("event_id", "task_id", "tenant_id", "type", "payload").
		Values(event.ID, event.TaskID, event.TenantID, event.Type, []byte(event.Payload)).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&event.CreatedAt); err != nil {
		return fmt.Errorf("append task event: %w", err)
	}

	return nil
}

// ListByTaskID retrieves the most recent events of a task, newest first.
func (r *TaskEventRepository) ListByTaskID(ctx context.Context, taskID string, limit int) ([]*domain.TaskEvent, error) {
	query, args, err := psql.
		Select(taskEventColumns...).
		From("task_events").
		Where(sq.Eq{"task_id": taskID}).
		OrderBy("created_at DESC", "event_id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query task events: %w", err)
	}

	return scanTaskEvents(rows)
}

// ListRecentByTenant retrieves the most recent events across all tasks of a tenant.
func (r *TaskEventRepository) ListRecentByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.TaskEvent, error) {
	query, args, err := psql.
		Select(taskEventColumns...).
		From("task_events").
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("created_at DESC", "event_id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tenant events: %w", err)
	}

	return scanTaskEvents(rows)
}

// ClaimUnpublished locks up to limit undelivered events, oldest first.
// Rows locked by another relay are skipped, so concurrent relays claim disjoint batches.
func (r *TaskEventRepository) ClaimUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]*domain.TaskEvent, error) {
	query, args, err := psql.
		Select(taskEventColumns...).
		From("task_events").
		Where(sq.Eq{"published_at": nil}).
		OrderBy("created_at ASC", "event_id ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unpublished events: %w", err)
	}

	return scanTaskEvents(rows)
}

// MarkPublished stamps published_at on the given events.
func (r *TaskEventRepository) MarkPublished(ctx context.Context, tx pgx.Tx, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}

	query, args, err := psql.
		Update("task_events").
		Set("published_at", sq.Expr("NOW()")).
		Where(sq.Eq{"event_id": eventIDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("mark events published: %w", err)
	}

	return nil
}
