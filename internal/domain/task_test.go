package domain_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/taskflow/internal/domain"
)

var allStates = []domain.TaskState{
	domain.TaskStateNew,
	domain.TaskStateInProgress,
	domain.TaskStateDone,
	domain.TaskStateCancelled,
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]domain.TaskState]bool{
		{domain.TaskStateNew, domain.TaskStateInProgress}:       true,
		{domain.TaskStateNew, domain.TaskStateCancelled}:        true,
		{domain.TaskStateInProgress, domain.TaskStateDone}:      true,
		{domain.TaskStateInProgress, domain.TaskStateCancelled}: true,
	}

	for _, from := range allStates {
		for _, to := range allStates {
			t.Run(fmt.Sprintf("%s->%s", from, to), func(t *testing.T) {
				assert.Equal(t, allowed[[2]domain.TaskState{from, to}], domain.CanTransition(from, to))
			})
		}
	}
}

func TestCanTransition_UnknownStates(t *testing.T) {
	assert.False(t, domain.CanTransition("BLOCKED", domain.TaskStateDone))
	assert.False(t, domain.CanTransition(domain.TaskStateNew, "BLOCKED"))
	assert.False(t, domain.CanTransition("", ""))
}

func TestTaskState_IsTerminal(t *testing.T) {
	assert.False(t, domain.TaskStateNew.IsTerminal())
	assert.False(t, domain.TaskStateInProgress.IsTerminal())
	assert.True(t, domain.TaskStateDone.IsTerminal())
	assert.True(t, domain.TaskStateCancelled.IsTerminal())

	// Terminal states have no outgoing transitions.
	for _, from := range allStates {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range allStates {
			assert.False(t, domain.CanTransition(from, to))
		}
	}
}

func TestParseTaskState(t *testing.T) {
	state, err := domain.ParseTaskState("IN_PROGRESS")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateInProgress, state)

	_, err = domain.ParseTaskState("in_progress")
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestParseTaskPriority(t *testing.T) {
	for _, p := range []string{"LOW", "MEDIUM", "HIGH"} {
		got, err := domain.ParseTaskPriority(p)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskPriority(p), got)
	}

	_, err := domain.ParseTaskPriority("CRITICAL")
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)
}

func TestParseRole(t *testing.T) {
	role, err := domain.ParseRole("manager")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, role)

	_, err = domain.ParseRole("admin")
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, domain.ValidateTitle("Test Task"))
	assert.NoError(t, domain.ValidateTitle(strings.Repeat("é", domain.MaxTitleLength)))
	assert.ErrorIs(t, domain.ValidateTitle(""), domain.ErrInvalidTitle)
	assert.ErrorIs(t, domain.ValidateTitle(strings.Repeat("a", domain.MaxTitleLength+1)), domain.ErrInvalidTitle)

	for _, title := range []string{"   ", "\t\n", "a\x00b", "bad\xffutf8"} {
		assert.ErrorIs(t, domain.ValidateTitle(title), domain.ErrInvalidTitle, "title %q", title)
		assert.Equal(t, domain.KindInvalid, domain.KindOf(domain.ValidateTitle(title)))
	}
}

func TestTask_BelongsTo(t *testing.T) {
	task := &domain.Task{TenantID: "t1", WorkspaceID: "ws1"}
	assert.True(t, task.BelongsTo("t1", "ws1"))
	assert.True(t, task.BelongsTo("", ""))
	assert.True(t, task.BelongsTo("t1", ""))
	assert.False(t, task.BelongsTo("t2", "ws1"))
	assert.False(t, task.BelongsTo("t1", "ws2"))
	assert.False(t, task.BelongsTo("", "ws2"))
}

func TestTask_IsAssignedTo(t *testing.T) {
	agent := "u_agent"
	task := &domain.Task{}
	assert.False(t, task.IsAssignedTo(agent))

	task.AssigneeID = &agent
	assert.True(t, task.IsAssignedTo("u_agent"))
	assert.False(t, task.IsAssignedTo("u_other"))
}
