package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/taskflow/internal/domain"
)

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"task_id", "tenant_id", "workspace_id", "title", "priority", "state",
	"assignee_id", "version", "created_at", "updated_at",
}

// TaskRepository handles database operations for tasks.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// TaskChanges lists the mutable task fields a conditional update may set.
// Nil fields are left untouched.
type TaskChanges struct {
	State      *domain.TaskState
	AssigneeID *string
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.TenantID,
		&task.WorkspaceID,
		&task.Title,
		&task.Priority,
		&task.State,
		&task.AssigneeID,
		&task.Version,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &task, nil
}

// scanTasks scans multiple rows into a slice of Task structs.
func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}

// GetByID retrieves a task by ID outside of any transaction.
func (r *TaskRepository) GetByID(ctx context.Context, taskID string) (*domain.Task, error) {
	return r.getByID(ctx, r.pool, taskID)
}

// GetByIDTx retrieves a task by ID within a transaction.
func (r *TaskRepository) GetByIDTx(ctx context.Context, tx pgx.Tx, taskID string) (*domain.Task, error) {
	return r.getByID(ctx, tx, taskID)
}

func (r *TaskRepository) getByID(ctx context.Context, q Querier, taskID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"task_id": taskID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for task %s: %w", taskID, err)
	}

	return scanTask(q.QueryRow(ctx, query, args...))
}

// Create inserts a new task within a transaction.
// The caller assigns ID, State and Version; CreatedAt and UpdatedAt are populated from the database.
func (r *TaskRepository) Create(ctx context.Context, tx pgx.Tx, task *domain.Task) error {
	query, args, err := psql.
		Insert("tasks").
		Columns("task_id", "tenant_id", "workspace_id", "title", "priority", "state", "assignee_id", "version").
		Values(
			task.ID,
			task.TenantID,
			task.WorkspaceID,
			task.Title,
			task.Priority,
			task.State,
			task.AssigneeID,
			task.Version,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build Create query for task: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

// UpdateWithVersion applies changes and increments the version by one, but only if the
// stored task still has expectedVersion. It returns the new version.
// Returns ErrVersionConflict when no row matches: the task vanished or another writer
// already advanced its version.
func (r *TaskRepository) UpdateWithVersion(
	ctx context.Context,
	tx pgx.Tx,
	taskID string,
	expectedVersion int64,
	changes TaskChanges,
) (int64, error) {
	qb := psql.
		Update("tasks").
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("NOW()"))

	if changes.State != nil {
		qb = qb.Set("state", *changes.State)
	}
	if changes.AssigneeID != nil {
		qb = qb.Set("assignee_id", *changes.AssigneeID)
	}

	query, args, err := qb.
		Where(sq.Eq{
			"task_id": taskID,
			"version": expectedVersion,
		}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build UpdateWithVersion query for task %s: %w", taskID, err)
	}

	var newVersion int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&newVersion); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrVersionConflict
		}
		return 0, fmt.Errorf("update task %s: %w", taskID, err)
	}

	return newVersion, nil
}
