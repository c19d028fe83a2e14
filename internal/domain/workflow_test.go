package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleForCoversOnlyDefinedPairs(t *testing.T) {
	valid := map[ShiftStatus][]WorkflowEvent{
		ShiftOpen:            {EventSubmit, EventRequestDelete},
		ShiftPendingApproval: {EventApprove, EventReject, EventRequestDelete},
		ShiftApproved:        {EventRequestDelete},
		ShiftRejected:        {EventResubmit, EventRequestDelete},
		ShiftDeleteRequested: {EventConfirmDelete, EventRejectDelete},
		ShiftDeleted:         {},
	}

	for _, status := range Statuses {
		for _, event := range Events {
			_, err := RuleFor(status, event)
			allowed := false
			for _, e := range valid[status] {
				if e == event {
					allowed = true
				}
			}
			if allowed {
				assert.NoError(t, err, "%s + %s", status, event)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s + %s", status, event)
			}
		}
	}
}

func TestRuleForTerminalStatus(t *testing.T) {
	for _, event := range Events {
		_, err := RuleFor(ShiftDeleted, event)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
}

func TestTransitionRuleFlags(t *testing.T) {
	submit, err := RuleFor(ShiftOpen, EventSubmit)
	require.NoError(t, err)
	assert.Equal(t, ShiftPendingApproval, submit.Next)
	assert.Equal(t, ResShiftSubmit, submit.Resource)
	assert.True(t, submit.AllowCreator)
	assert.False(t, submit.RequiresReason)

	reject, err := RuleFor(ShiftPendingApproval, EventReject)
	require.NoError(t, err)
	assert.Equal(t, ShiftRejected, reject.Next)
	assert.True(t, reject.RequiresReason)

	reqDelete, err := RuleFor(ShiftApproved, EventRequestDelete)
	require.NoError(t, err)
	assert.Equal(t, ShiftDeleteRequested, reqDelete.Next)
	assert.True(t, reqDelete.RequiresReason)
	assert.True(t, reqDelete.RecordsPrior)
}

func TestNextStatusRestoresPrior(t *testing.T) {
	rule, err := RuleFor(ShiftDeleteRequested, EventRejectDelete)
	require.NoError(t, err)
	require.True(t, rule.RestoresPrior)

	prior := ShiftApproved
	next, err := rule.NextStatus(Shift{Status: ShiftDeleteRequested, PriorStatus: &prior})
	require.NoError(t, err)
	assert.Equal(t, ShiftApproved, next)

	_, err = rule.NextStatus(Shift{Status: ShiftDeleteRequested})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestNextStatusFixedTarget(t *testing.T) {
	rule, err := RuleFor(ShiftRejected, EventResubmit)
	require.NoError(t, err)

	next, err := rule.NextStatus(Shift{Status: ShiftRejected})
	require.NoError(t, err)
	assert.Equal(t, ShiftPendingApproval, next)
}
