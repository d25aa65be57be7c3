package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/mtlprog/taskflow/internal/domain"
)

// TaskListFilters holds all supported filters for task listing.
type TaskListFilters struct {
	TenantID    string            // Required: filter by tenant
	WorkspaceID string            // Required: filter by workspace
	State       *domain.TaskState // Optional: filter by state
	AssigneeID  *string           // Optional: filter by assignee
	AfterTaskID string            // Optional: keyset position, exclusive
	Limit       int               // Required: maximum rows returned
}

// List retrieves tasks ordered by task_id ascending, starting strictly after AfterTaskID.
func (r *TaskRepository) List(ctx context.Context, filters TaskListFilters) ([]*domain.Task, error) {
	qb := psql.Select(taskColumns...).From("tasks").
		Where(sq.Eq{"tenant_id": filters.TenantID, "workspace_id": filters.WorkspaceID})

	if filters.State != nil {
		qb = qb.Where(sq.Eq{"state": *filters.State})
	}
	if filters.AssigneeID != nil {
		qb = qb.Where(sq.Eq{"assignee_id": *filters.AssigneeID})
	}
	if filters.AfterTaskID != "" {
		qb = qb.Where(sq.Gt{"task_id": filters.AfterTaskID})
	}

	query, args, err := qb.
		OrderBy("task_id ASC").
		Limit(uint64(filters.Limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build List query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	return scanTasks(rows)
}
