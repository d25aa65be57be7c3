package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtlprog/taskflow/internal/domain"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.Kind
	}{
		{"nil", nil, ""},
		{"task not found", domain.ErrTaskNotFound, domain.KindNotFound},
		{"wrapped not found", fmt.Errorf("get task: %w", domain.ErrTaskNotFound), domain.KindNotFound},
		{"invalid transition", domain.ErrInvalidTransition, domain.KindConflict},
		{"version conflict", domain.ErrVersionConflict, domain.KindConflict},
		{"terminal", domain.ErrTaskTerminal, domain.KindConflict},
		{"missing task on transition", domain.ErrTaskMissing, domain.KindConflict},
		{"manager", domain.ErrManagerCanOnlyCancel, domain.KindForbidden},
		{"agent cancel", domain.ErrAgentCannotCancel, domain.KindForbidden},
		{"not assignee", domain.ErrNotAssignee, domain.KindForbidden},
		{"assign role", domain.ErrRoleCannotAssign, domain.KindForbidden},
		{"bad cursor", domain.ErrInvalidCursor, domain.KindInvalid},
		{"storage fault", errors.New("connection refused"), domain.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.KindOf(tt.err))
		})
	}
}

func TestVersionConflictIsNotForbidden(t *testing.T) {
	assert.False(t, errors.Is(domain.ErrVersionConflict, domain.ErrForbidden))
	assert.False(t, errors.Is(domain.ErrNotAssignee, domain.ErrConflict))
}
