package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtlprog/taskflow/internal/domain"
	"github.com/mtlprog/taskflow/internal/service"
)

func TestAuthorize(t *testing.T) {
	agent := "u_agent"
	other := "u_other"

	tests := []struct {
		name     string
		role     domain.Role
		from, to domain.TaskState
		actor    string
		assignee *string
		wantErr  error
	}{
		{"manager cancels new task", domain.RoleManager, domain.TaskStateNew, domain.TaskStateCancelled, "u_manager", nil, nil},
		{"manager cancels in-progress task", domain.RoleManager, domain.TaskStateInProgress, domain.TaskStateCancelled, "u_manager", &agent, nil},
		{"manager cannot start task", domain.RoleManager, domain.TaskStateNew, domain.TaskStateInProgress, "u_manager", nil, domain.ErrManagerCanOnlyCancel},
		{"manager cannot complete task", domain.RoleManager, domain.TaskStateInProgress, domain.TaskStateDone, "u_manager", nil, domain.ErrManagerCanOnlyCancel},
		{"manager cancelling a done task is a conflict", domain.RoleManager, domain.TaskStateDone, domain.TaskStateCancelled, "u_manager", nil, domain.ErrInvalidTransition},
		{"agent cannot cancel", domain.RoleAgent, domain.TaskStateNew, domain.TaskStateCancelled, agent, &agent, domain.ErrAgentCannotCancel},
		{"assigned agent starts task", domain.RoleAgent, domain.TaskStateNew, domain.TaskStateInProgress, agent, &agent, nil},
		{"assigned agent completes task", domain.RoleAgent, domain.TaskStateInProgress, domain.TaskStateDone, agent, &agent, nil},
		{"unassigned task cannot be started", domain.RoleAgent, domain.TaskStateNew, domain.TaskStateInProgress, agent, nil, domain.ErrNotAssignee},
		{"other agent cannot complete", domain.RoleAgent, domain.TaskStateInProgress, domain.TaskStateDone, agent, &other, domain.ErrNotAssignee},
		{"agent skipping a state is a conflict", domain.RoleAgent, domain.TaskStateNew, domain.TaskStateDone, agent, &agent, domain.ErrInvalidTransition},
		{"unknown role", domain.Role("admin"), domain.TaskStateNew, domain.TaskStateCancelled, "x", nil, domain.ErrUnknownRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.Authorize(tt.role, tt.from, tt.to, tt.actor, tt.assignee)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthorize_DenialKinds(t *testing.T) {
	err := service.Authorize(domain.RoleAgent, domain.TaskStateNew, domain.TaskStateInProgress, "a", nil)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	err = service.Authorize(domain.RoleAgent, domain.TaskStateDone, domain.TaskStateInProgress, "a", nil)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}
