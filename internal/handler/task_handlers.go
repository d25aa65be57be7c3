package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mtlprog/taskflow/internal/domain"
	"github.com/mtlprog/taskflow/internal/handler/dto"
	"github.com/mtlprog/taskflow/internal/service"
)

// handleCreateTask creates a new task.
// @Summary Create a task
// @Description Creates a NEW task at version 1. A repeated Idempotency-Key returns the first response.
// @Tags tasks
// @Accept json
// @Produce json
// @Param X-Tenant-Id header string true "Tenant ID"
// @Param Idempotency-Key header string false "Deduplicates retries of the same request"
// @Param workspace_id path string true "Workspace ID"
// @Param request body dto.CreateTaskRequest true "Task creation request"
// @Success 201 {object} dto.CreateTaskResponse
// @Success 200 {object} dto.CreateTaskResponse "Idempotent replay"
// @Failure 400 {object} dto.ErrorResponse
// @Router /workspaces/{workspace_id}/tasks [post]
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := identity(w, r)
	if !ok {
		return
	}
	workspaceID, ok := extractWorkspaceID(w, r)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := domain.ValidateTitle(req.Title); err != nil {
		respondDomainError(w, err)
		return
	}
	priority, err := domain.ParseTaskPriority(strings.ToUpper(req.Priority))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	if len(key) > maxIdempotencyKeyLength {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Idempotency-Key is too long")
		return
	}

	result, err := h.taskService.CreateTask(ctx, service.CreateTaskParams{
		TenantID:       id.TenantID,
		WorkspaceID:    workspaceID,
		Title:          req.Title,
		Priority:       priority,
		IdempotencyKey: key,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		w.Header().Set(HeaderIdempotentReplay, "true")
		status = http.StatusOK
	}

	respondJSON(w, status, dto.CreateTaskResponse{
		TaskID:  result.TaskID,
		State:   string(result.State),
		Version: result.Version,
	})
}

// handleAssignTask sets the assignee of a task.
// @Summary Assign a task
// @Description Managers only. Terminal tasks cannot be reassigned.
// @Tags tasks
// @Accept json
// @Param X-Tenant-Id header string true "Tenant ID"
// @Param X-Role header string true "agent or manager"
// @Param If-Match-Version header int true "Version the caller last observed"
// @Param workspace_id path string true "Workspace ID"
// @Param task_id path string true "Task ID"
// @Param request body dto.AssignTaskRequest true "Assignment request"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /workspaces/{workspace_id}/tasks/{task_id}/assign [post]
func (h *Handler) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := identity(w, r)
	if !ok {
		return
	}
	workspaceID, ok := extractWorkspaceID(w, r)
	if !ok {
		return
	}
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}
	role, err := id.RequireRole()
	if err != nil {
		respondDomainError(w, err)
		return
	}
	version, ok := extractVersion(w, r)
	if !ok {
		return
	}

	var req dto.AssignTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	assigneeID := strings.TrimSpace(req.AssigneeID)
	if assigneeID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "assignee_id is required")
		return
	}

	err = h.taskService.AssignTask(ctx, service.AssignTaskParams{
		TaskID:      taskID,
		TenantID:    id.TenantID,
		WorkspaceID: workspaceID,
		AssigneeID:  assigneeID,
		Role:        role,
		Version:     version,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleTransitionTask moves a task to another state.
// @Summary Transition a task
// @Description Applies the state machine and role policy, then records a TASK_TRANSITION event.
// @Tags tasks
// @Accept json
// @Param X-Tenant-Id header string true "Tenant ID"
// @Param X-Role header string true "agent or manager"
// @Param X-User-Id header string false "Acting user, required for agents"
// @Param If-Match-Version header int true "Version the caller last observed"
// @Param workspace_id path string true "Workspace ID"
// @Param task_id path string true "Task ID"
// @Param request body dto.TransitionTaskRequest true "Transition request"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /workspaces/{workspace_id}/tasks/{task_id}/transition [post]
func (h *Handler) handleTransitionTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := identity(w, r)
	if !ok {
		return
	}
	workspaceID, ok := extractWorkspaceID(w, r)
	if !ok {
		return
	}
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}
	role, err := id.RequireRole()
	if err != nil {
		respondDomainError(w, err)
		return
	}
	version, ok := extractVersion(w, r)
	if !ok {
		return
	}

	var req dto.TransitionTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	toState, err := domain.ParseTaskState(strings.ToUpper(req.ToState))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	err = h.taskService.TransitionTask(ctx, service.TransitionTaskParams{
		TaskID:      taskID,
		TenantID:    id.TenantID,
		WorkspaceID: workspaceID,
		ToState:     toState,
		Role:        role,
		UserID:      id.UserID,
		Version:     version,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetTask retrieves a task with its recent events.
// @Summary Get task details
// @Description Task snapshot plus its most recent events, newest first
// @Tags tasks
// @Produce json
// @Param X-Tenant-Id header string true "Tenant ID"
// @Param workspace_id path string true "Workspace ID"
// @Param task_id path string true "Task ID"
// @Success 200 {object} dto.TaskDetailResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /workspaces/{workspace_id}/tasks/{task_id} [get]
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := identity(w, r)
	if !ok {
		return
	}
	workspaceID, ok := extractWorkspaceID(w, r)
	if !ok {
		return
	}
	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	details, err := h.taskService.GetTaskWithEvents(ctx, id.TenantID, workspaceID, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.TaskDetailResponse{
		Task:   dto.ToTaskResponse(details.Task),
		Events: dto.ToTaskEventResponses(details.Events),
	})
}

// handleListTasks lists a workspace's tasks.
// @Summary List tasks
// @Description Cursor-paginated, ordered by task_id
// @Tags tasks
// @Produce json
// @Param X-Tenant-Id header string true "Tenant ID"
// @Param workspace_id path string true "Workspace ID"
// @Param state query string false "NEW, IN_PROGRESS, DONE or CANCELLED"
// @Param assignee_id query string false "Filter by assignee"
// @Param limit query int false "Page size (1-100, default 20)"
// @Param cursor query string false "next_cursor from the previous page"
// @Success 200 {object} dto.TasksListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /workspaces/{workspace_id}/tasks [get]
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := identity(w, r)
	if !ok {
		return
	}
	workspaceID, ok := extractWorkspaceID(w, r)
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	params := service.ListTasksParams{
		TenantID:    id.TenantID,
		WorkspaceID: workspaceID,
		Limit:       limit,
		Cursor:      query.Get("cursor"),
	}

	if raw := query.Get("state"); raw != "" {
		state, err := domain.ParseTaskState(strings.ToUpper(raw))
		if err != nil {
			respondDomainError(w, err)
			return
		}
		params.State = &state
	}
	if assignee := query.Get("assignee_id"); assignee != "" {
		params.AssigneeID = &assignee
	}

	page, err := h.taskService.ListTasks(ctx, params)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	response := dto.TasksListResponse{
		Tasks:      make([]dto.TaskResponse, len(page.Tasks)),
		NextCursor: page.NextCursor,
	}
	for i, task := range page.Tasks {
		response.Tasks[i] = dto.ToTaskResponse(task)
	}

	respondJSON(w, http.StatusOK, response)
}
