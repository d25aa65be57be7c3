package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mtlprog/taskflow/docs" // Register swagger docs
	"github.com/mtlprog/taskflow/internal/domain"
	"github.com/mtlprog/taskflow/internal/handler/dto"
	"github.com/mtlprog/taskflow/internal/middleware"
	"github.com/mtlprog/taskflow/internal/repository"
	"github.com/mtlprog/taskflow/internal/service"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Request headers read by handlers in addition to the identity headers.
const (
	HeaderIdempotencyKey    = "Idempotency-Key"
	HeaderIfMatchVersion    = "If-Match-Version"
	HeaderIdempotentReplay  = "Idempotent-Replayed"
	maxIdempotencyKeyLength = 255
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	pool        *pgxpool.Pool
	taskService *service.TaskService
}

// New creates a new Handler instance with all dependencies.
func New(pool *pgxpool.Pool) *Handler {
	taskRepo := repository.NewTaskRepository(pool)
	eventRepo := repository.NewTaskEventRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)

	return &Handler{
		pool:        pool,
		taskService: service.NewTaskService(pool, taskRepo, eventRepo, idempotencyRepo),
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	mux.HandleFunc("GET /swagger/", httpSwagger.Handler())

	// API v1 routes; every one requires X-Tenant-Id
	api := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, middleware.Identify(fn))
	}
	api("POST /api/v1/workspaces/{workspace_id}/tasks", h.handleCreateTask)
	api("GET /api/v1/workspaces/{workspace_id}/tasks", h.handleListTasks)
	api("GET /api/v1/workspaces/{workspace_id}/tasks/{task_id}", h.handleGetTask)
	api("POST /api/v1/workspaces/{workspace_id}/tasks/{task_id}/assign", h.handleAssignTask)
	api("POST /api/v1/workspaces/{workspace_id}/tasks/{task_id}/transition", h.handleTransitionTask)
	api("GET /api/v1/events", h.handleListEvents)
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.Ping(r.Context()); err != nil {
		slog.Error("database health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Ping checks if the database is reachable (used for testing).
func (h *Handler) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps err to a status and writes it.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// identity returns the caller identity attached by middleware.Identify.
// Returns false if missing (error already sent to client).
func identity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, err := middleware.GetIdentityFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "MISSING_TENANT", "X-Tenant-Id header is required")
		return middleware.Identity{}, false
	}
	return id, true
}

// extractWorkspaceID extracts the workspace ID from the path.
func extractWorkspaceID(w http.ResponseWriter, r *http.Request) (string, bool) {
	workspaceID := strings.TrimSpace(r.PathValue("workspace_id"))
	if workspaceID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "workspace_id is required")
		return "", false
	}
	return workspaceID, true
}

// extractTaskID extracts and validates task ID from path parameter.
// Returns (taskID, true) if valid, ("", false) if invalid (error already sent to client).
func extractTaskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	taskID := r.PathValue("task_id")
	if taskID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task id is required")
		return "", false
	}

	if _, err := uuid.Parse(taskID); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task_id must be a valid UUID")
		return "", false
	}

	return taskID, true
}

// extractVersion reads the If-Match-Version header. Quoted values are accepted.
func extractVersion(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.Trim(strings.TrimSpace(r.Header.Get(HeaderIfMatchVersion)), `"`)
	if raw == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "If-Match-Version header is required")
		return 0, false
	}

	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 1 {
		respondDomainError(w, domain.ErrInvalidVersion)
		return 0, false
	}

	return version, true
}

// parseLimit reads ?limit=; absent means 0 (the service default).
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		respondDomainError(w, domain.ErrInvalidLimit)
		return 0, false
	}

	return limit, true
}
