package handler

import (
	"net/http"

	"github.com/mtlprog/taskflow/internal/handler/dto"
)

// handleListEvents returns the caller tenant's most recent events.
// @Summary List recent events
// @Description Newest first, scoped to the X-Tenant-Id tenant
// @Tags events
// @Produce json
// @Param X-Tenant-Id header string true "Tenant ID"
// @Param limit query int false "Number of events (1-200, default 50)"
// @Success 200 {object} dto.EventsListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /events [get]
func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	events, err := h.taskService.ListRecentEvents(r.Context(), id.TenantID, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.EventsListResponse{Events: dto.ToTaskEventResponses(events)})
}
