package dto_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtlprog/taskflow/internal/domain"
	"github.com/mtlprog/taskflow/internal/handler/dto"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", domain.ErrTaskNotFound, http.StatusNotFound, "TASK_NOT_FOUND"},
		{"wrapped not found", fmt.Errorf("load: %w", domain.ErrTaskNotFound), http.StatusNotFound, "TASK_NOT_FOUND"},
		{"version conflict", domain.ErrVersionConflict, http.StatusConflict, "VERSION_CONFLICT"},
		{"invalid transition", domain.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{"terminal", domain.ErrTaskTerminal, http.StatusConflict, "TASK_TERMINAL"},
		{"missing on transition", domain.ErrTaskMissing, http.StatusConflict, "TASK_MISSING"},
		{"not assignee", domain.ErrNotAssignee, http.StatusForbidden, "INSUFFICIENT_ACCESS"},
		{"manager only cancels", domain.ErrManagerCanOnlyCancel, http.StatusForbidden, "INSUFFICIENT_ACCESS"},
		{"agent cannot assign", domain.ErrRoleCannotAssign, http.StatusForbidden, "INSUFFICIENT_ACCESS"},
		{"bad priority", domain.ErrInvalidPriority, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad cursor", domain.ErrInvalidCursor, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"storage failure", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, message := dto.MapDomainError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
			assert.NotEmpty(t, message)
		})
	}
}

func TestMapDomainError_HidesInternalDetails(t *testing.T) {
	_, _, message := dto.MapDomainError(errors.New("pq: password authentication failed"))
	assert.Equal(t, "Internal server error", message)
}
