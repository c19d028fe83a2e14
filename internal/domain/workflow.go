package domain

import "fmt"

// WorkflowEvent is a requested change to a shift's lifecycle status.
type WorkflowEvent string

const (
	EventSubmit        WorkflowEvent = "SUBMIT"
	EventApprove       WorkflowEvent = "APPROVE"
	EventReject        WorkflowEvent = "REJECT"
	EventResubmit      WorkflowEvent = "RESUBMIT"
	EventRequestDelete WorkflowEvent = "REQUEST_DELETE"
	EventConfirmDelete WorkflowEvent = "CONFIRM_DELETE"
	EventRejectDelete  WorkflowEvent = "REJECT_DELETE"
)

// Permission resource keys checked against the role grant table.
const (
	ResShiftSubmit        = "shift:submit"
	ResShiftApprove       = "shift:approve"
	ResShiftRequestDelete = "shift:request-delete"
)

// TransitionRule describes one row of the workflow table. Every
// (status, event) pair not listed in the table is rejected, so no code
// path can leave a shift in an undefined state.
type TransitionRule struct {
	Next           ShiftStatus
	Resource       string
	RequiresReason bool

	// AllowCreator lets the shift's creator pass even without the grant
	// (SUBMIT and RESUBMIT belong to the creator or a station role).
	AllowCreator bool

	// RestoresPrior means Next is the status recorded before the delete
	// request rather than a fixed one.
	RestoresPrior bool

	// RecordsPrior means the current status must be remembered so a later
	// REJECT_DELETE can restore it.
	RecordsPrior bool
}

type transitionKey struct {
	From  ShiftStatus
	Event WorkflowEvent
}

var transitions = map[transitionKey]TransitionRule{
	{ShiftOpen, EventSubmit}:              {Next: ShiftPendingApproval, Resource: ResShiftSubmit, AllowCreator: true},
	{ShiftPendingApproval, EventApprove}:  {Next: ShiftApproved, Resource: ResShiftApprove},
	{ShiftPendingApproval, EventReject}:   {Next: ShiftRejected, Resource: ResShiftApprove, RequiresReason: true},
	{ShiftRejected, EventResubmit}:        {Next: ShiftPendingApproval, Resource: ResShiftSubmit, AllowCreator: true},
	{ShiftOpen, EventRequestDelete}:       {Next: ShiftDeleteRequested, Resource: ResShiftRequestDelete, RequiresReason: true, AllowCreator: true, RecordsPrior: true},
	{ShiftPendingApproval, EventRequestDelete}: {Next: ShiftDeleteRequested, Resource: ResShiftRequestDelete, RequiresReason: true, AllowCreator: true, RecordsPrior: true},
	{ShiftApproved, EventRequestDelete}:   {Next: ShiftDeleteRequested, Resource: ResShiftRequestDelete, RequiresReason: true, AllowCreator: true, RecordsPrior: true},
	{ShiftRejected, EventRequestDelete}:   {Next: ShiftDeleteRequested, Resource: ResShiftRequestDelete, RequiresReason: true, AllowCreator: true, RecordsPrior: true},
	{ShiftDeleteRequested, EventConfirmDelete}: {Next: ShiftDeleted, Resource: ResShiftApprove},
	{ShiftDeleteRequested, EventRejectDelete}:  {Next: "", Resource: ResShiftApprove, RestoresPrior: true},
}

// Statuses and Events list every known value, mostly for table-driven
// checks over the whole (status, event) space.
var Statuses = []ShiftStatus{
	ShiftOpen, ShiftPendingApproval, ShiftApproved,
	ShiftRejected, ShiftDeleteRequested, ShiftDeleted,
}

var Events = []WorkflowEvent{
	EventSubmit, EventApprove, EventReject, EventResubmit,
	EventRequestDelete, EventConfirmDelete, EventRejectDelete,
}

// RuleFor resolves the transition rule for a (status, event) pair.
func RuleFor(from ShiftStatus, event WorkflowEvent) (TransitionRule, error) {
	rule, ok := transitions[transitionKey{From: from, Event: event}]
	if !ok {
		return TransitionRule{}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, from)
	}
	return rule, nil
}

// NextStatus resolves the target status of a rule applied to the given
// shift, honouring prior-status restore on REJECT_DELETE.
func (r TransitionRule) NextStatus(s Shift) (ShiftStatus, error) {
	if !r.RestoresPrior {
		return r.Next, nil
	}
	if s.PriorStatus == nil {
		return "", fmt.Errorf("%w: no prior status recorded", ErrInvalidTransition)
	}
	return *s.PriorStatus, nil
}
