package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/taskflow/internal/config"
	"github.com/mtlprog/taskflow/internal/database"
	"github.com/mtlprog/taskflow/internal/domain"
	"github.com/mtlprog/taskflow/internal/repository"
)

// TaskService coordinates the task lifecycle: creation, assignment, transitions and queries.
// Every mutation runs in its own transaction; the version column is the only
// coordination between concurrent callers.
type TaskService struct {
	pool      *pgxpool.Pool
	taskRepo  *repository.TaskRepository
	eventRepo *repository.TaskEventRepository
	outbox    *OutboxRecorder
	guard     *IdempotencyGuard
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	pool *pgxpool.Pool,
	taskRepo *repository.TaskRepository,
	eventRepo *repository.TaskEventRepository,
	idempotencyRepo *repository.IdempotencyRepository,
) *TaskService {
	return &TaskService{
		pool:      pool,
		taskRepo:  taskRepo,
		eventRepo: eventRepo,
		outbox:    NewOutboxRecorder(eventRepo),
		guard:     NewIdempotencyGuard(idempotencyRepo),
	}
}

// CreateTaskParams holds the input of CreateTask.
type CreateTaskParams struct {
	TenantID       string
	WorkspaceID    string
	Title          string
	Priority       domain.TaskPriority
	IdempotencyKey string // optional
}

// CreateTaskResult is the response of CreateTask, stored verbatim for idempotent replays.
type CreateTaskResult struct {
	TaskID  string           `json:"task_id"`
	State   domain.TaskState `json:"state"`
	Version int64            `json:"version"`

	// Replayed is set when the result was served from a previous request with the same key.
	Replayed bool `json:"-"`
}

// AssignTaskParams holds the input of AssignTask.
type AssignTaskParams struct {
	TaskID      string
	TenantID    string // optional; a task of another tenant is reported as not found
	WorkspaceID string // optional; a task outside it is reported as not found
	AssigneeID  string
	Role        domain.Role
	Version     int64
}

// TransitionTaskParams holds the input of TransitionTask.
type TransitionTaskParams struct {
	TaskID      string
	TenantID    string // optional; a task of another tenant is reported as missing
	WorkspaceID string // optional; a task outside it is reported as missing
	ToState     domain.TaskState
	Role        domain.Role
	UserID      string
	Version     int64
}

// TaskWithEvents is a task snapshot with its most recent events, newest first.
type TaskWithEvents struct {
	Task   *domain.Task
	Events []*domain.TaskEvent
}

// ListTasksParams holds the input of ListTasks.
type ListTasksParams struct {
	TenantID    string
	WorkspaceID string
	State       *domain.TaskState
	AssigneeID  *string
	Limit       int    // 0 selects the default page size
	Cursor      string // opaque, from a previous page
}

// TaskPage is one page of ListTasks. NextCursor is empty on the last page.
type TaskPage struct {
	Tasks      []*domain.Task
	NextCursor string
}

// CreateTask creates a NEW task at version 1.
// With an idempotency key, a repeated request returns the first response instead of
// creating another task. Two concurrent requests with the same key both try to insert
// the key alongside their task; the primary key lets only one commit, and the loser
// rolls back and replays the winner's response.
func (s *TaskService) CreateTask(ctx context.Context, params CreateTaskParams) (*CreateTaskResult, error) {
	if err := domain.ValidateTitle(params.Title); err != nil {
		return nil, err
	}
	if _, err := domain.ParseTaskPriority(string(params.Priority)); err != nil {
		return nil, err
	}

	if params.IdempotencyKey != "" {
		result, err := s.guard.Replay(ctx, params.TenantID, domain.EndpointCreateTask, params.IdempotencyKey)
		if err == nil {
			slog.Info("task creation replayed",
				"task_id", result.TaskID,
				"tenant_id", params.TenantID,
				"idempotency_key", params.IdempotencyKey,
			)
			return result, nil
		}
		if !errors.Is(err, repository.ErrIdempotencyKeyNotFound) {
			return nil, fmt.Errorf("lookup idempotency key: %w", err)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate task id: %w", err)
	}

	task := &domain.Task{
		ID:          id.String(),
		TenantID:    params.TenantID,
		WorkspaceID: params.WorkspaceID,
		Title:       params.Title,
		Priority:    params.Priority,
		State:       domain.TaskStateNew,
		Version:     1,
	}
	result := &CreateTaskResult{TaskID: task.ID, State: task.State, Version: task.Version}

	err = database.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.taskRepo.Create(ctx, tx, task); err != nil {
			return err
		}
		if params.IdempotencyKey == "" {
			return nil
		}
		return s.guard.Record(ctx, tx, params.TenantID, domain.EndpointCreateTask, params.IdempotencyKey, result)
	})
	if errors.Is(err, errIdempotencyKeyTaken) {
		return s.guard.Replay(ctx, params.TenantID, domain.EndpointCreateTask, params.IdempotencyKey)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("task created",
		"task_id", task.ID,
		"tenant_id", task.TenantID,
		"workspace_id", task.WorkspaceID,
		"priority", task.Priority,
	)

	return result, nil
}

// AssignTask sets the task's assignee. Only managers may assign, and terminal tasks
// cannot be reassigned.
//
// Assignment is deliberately not recorded in the outbox: only state transitions
// produce TASK_TRANSITION events.
func (s *TaskService) AssignTask(ctx context.Context, params AssignTaskParams) error {
	if params.Role != domain.RoleManager {
		return fmt.Errorf("%w: role %s", domain.ErrRoleCannotAssign, params.Role)
	}

	var newVersion int64
	err := database.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		task, err := s.taskRepo.GetByIDTx(ctx, tx, params.TaskID)
		if err != nil {
			return err
		}
		if !task.BelongsTo(params.TenantID, params.WorkspaceID) {
			return domain.ErrTaskNotFound
		}

		if task.State.IsTerminal() {
			return fmt.Errorf("%w: task %s is %s", domain.ErrTaskTerminal, task.ID, task.State)
		}
		if task.Version != params.Version {
			return fmt.Errorf("%w: task %s is at version %d, request expected %d",
				domain.ErrVersionConflict, task.ID, task.Version, params.Version)
		}

		newVersion, err = s.taskRepo.UpdateWithVersion(ctx, tx, task.ID, params.Version,
			repository.TaskChanges{AssigneeID: &params.AssigneeID},
		)
		return err
	})
	if err != nil {
		return err
	}

	slog.Info("task assigned",
		"task_id", params.TaskID,
		"assignee_id", params.AssigneeID,
		"version", newVersion,
	)

	return nil
}

// TransitionTask moves a task to another state and records a TASK_TRANSITION event.
// The conditional update and the event append commit together or not at all.
func (s *TaskService) TransitionTask(ctx context.Context, params TransitionTaskParams) error {
	var (
		from       domain.TaskState
		newVersion int64
		event      *domain.TaskEvent
	)

	err := database.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		task, err := s.taskRepo.GetByIDTx(ctx, tx, params.TaskID)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrTaskMissing, params.TaskID)
			}
			return err
		}
		if !task.BelongsTo(params.TenantID, params.WorkspaceID) {
			return fmt.Errorf("%w: %s", domain.ErrTaskMissing, params.TaskID)
		}
		from = task.State

		if !domain.CanTransition(from, params.ToState) {
			return fmt.Errorf("%w: task %s cannot transition %s -> %s",
				domain.ErrInvalidTransition, task.ID, from, params.ToState)
		}

		if err := Authorize(params.Role, from, params.ToState, params.UserID, task.AssigneeID); err != nil {
			return err
		}

		// The loaded state is only the "from" of the event if the write below targets
		// the same version we read.
		if task.Version != params.Version {
			return fmt.Errorf("%w: task %s is at version %d, request expected %d",
				domain.ErrVersionConflict, task.ID, task.Version, params.Version)
		}

		newVersion, err = s.taskRepo.UpdateWithVersion(ctx, tx, task.ID, params.Version,
			repository.TaskChanges{State: &params.ToState},
		)
		if err != nil {
			return err
		}

		event, err = s.outbox.RecordTransition(ctx, tx, task, from, params.ToState)
		return err
	})
	if err != nil {
		return err
	}

	slog.Info("task transitioned",
		"task_id", params.TaskID,
		"user_id", params.UserID,
		"role", params.Role,
		"from", from,
		"to", params.ToState,
		"version", newVersion,
		"event_id", event.ID,
	)

	return nil
}

// GetTaskWithEvents returns a task and its most recent events.
// A task outside the given tenant and workspace is reported as not found.
func (s *TaskService) GetTaskWithEvents(ctx context.Context, tenantID, workspaceID, taskID string) (*TaskWithEvents, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.TenantID != tenantID || task.WorkspaceID != workspaceID {
		return nil, domain.ErrTaskNotFound
	}

	events, err := s.eventRepo.ListByTaskID(ctx, taskID, config.TaskDetailEventLimit)
	if err != nil {
		return nil, fmt.Errorf("list events for task %s: %w", taskID, err)
	}

	return &TaskWithEvents{Task: task, Events: events}, nil
}

// ListTasks returns one page of a tenant workspace's tasks ordered by task_id.
// It fetches one row beyond the page to learn whether another page exists; the cursor
// is the last task_id actually returned.
func (s *TaskService) ListTasks(ctx context.Context, params ListTasksParams) (*TaskPage, error) {
	limit := params.Limit
	if limit == 0 {
		limit = config.DefaultListLimit
	}
	if limit < 0 || limit > config.MaxListLimit {
		return nil, fmt.Errorf("%w: %d (max %d)", domain.ErrInvalidLimit, limit, config.MaxListLimit)
	}

	after, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.List(ctx, repository.TaskListFilters{
		TenantID:    params.TenantID,
		WorkspaceID: params.WorkspaceID,
		State:       params.State,
		AssigneeID:  params.AssigneeID,
		AfterTaskID: after,
		Limit:       limit + 1,
	})
	if err != nil {
		return nil, err
	}

	page := &TaskPage{Tasks: tasks}
	if len(tasks) > limit {
		page.Tasks = tasks[:limit]
		page.NextCursor = EncodeCursor(page.Tasks[limit-1].ID)
	}

	return page, nil
}

// ListRecentEvents returns a tenant's most recent events, newest first.
func (s *TaskService) ListRecentEvents(ctx context.Context, tenantID string, limit int) ([]*domain.TaskEvent, error) {
	if limit == 0 {
		limit = config.DefaultRecentEventsLimit
	}
	if limit < 0 || limit > config.MaxRecentEventsLimit {
		return nil, fmt.Errorf("%w: %d (max %d)", domain.ErrInvalidLimit, limit, config.MaxRecentEventsLimit)
	}

	return s.eventRepo.ListRecentByTenant(ctx, tenantID, limit)
}
