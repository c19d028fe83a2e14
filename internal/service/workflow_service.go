package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/authz"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

// Actor is the authenticated identity behind a transition request,
// supplied by the auth layer.
type Actor struct {
	ID   int64
	Name string
	Role domain.UserRole
}

// ShiftTransitioner serializes transitions per shift. Implementations
// must run decide against the row-locked current state and commit the
// status update together with the audit entry, or neither.
type ShiftTransitioner interface {
	Transition(ctx context.Context, shiftID int64, decide func(domain.Shift) (domain.TransitionOutcome, error)) (*domain.Shift, error)
}

// Notifier is called after a successful commit, outside the transaction
// boundary. Delivery failures never affect the transition.
type Notifier interface {
	ShiftTransitioned(ctx context.Context, shift domain.Shift, entry domain.AuditLogEntry)
}

// WorkflowService owns the shift lifecycle. Every requested transition is
// checked against the workflow table and the caller's grants before any
// mutation, and applied atomically with exactly one audit entry.
type WorkflowService struct {
	Shifts   ShiftTransitioner
	Resolver *authz.Resolver
	Notifier Notifier
	Logger   *slog.Logger

	// Now is a clock override for tests; time.Now when nil.
	Now func() time.Time
}

// RequestTransition validates and applies one workflow event. Errors out
// with ErrInvalidTransition, ErrPermissionDenied or ValidationError
// leaving the shift untouched; storage failures surface as
// ErrStorageUnavailable.
func (s WorkflowService) RequestTransition(ctx context.Context, shiftID int64, event domain.WorkflowEvent, actor Actor, reason string) (*domain.Shift, error) {
	reason = strings.TrimSpace(reason)

	var audited domain.AuditLogEntry
	shift, err := s.Shifts.Transition(ctx, shiftID, func(current domain.Shift) (domain.TransitionOutcome, error) {
		rule, err := domain.RuleFor(current.Status, event)
		if err != nil {
			return domain.TransitionOutcome{}, err
		}

		decision := s.Resolver.Resolve(actor.Role, rule.Resource)
		if !decision.Granted && !(rule.AllowCreator && current.CreatedBy == actor.ID) {
			return domain.TransitionOutcome{}, fmt.Errorf("%w: %s", domain.ErrPermissionDenied, decision.Reason)
		}

		if rule.RequiresReason && reason == "" {
			return domain.TransitionOutcome{}, &domain.ValidationError{Field: "reason", Reason: "is required for " + string(event)}
		}

		next, err := rule.NextStatus(current)
		if err != nil {
			return domain.TransitionOutcome{}, err
		}

		out := domain.TransitionOutcome{
			Status:       next,
			PriorStatus:  current.PriorStatus,
			RejectReason: current.RejectReason,
			DeleteReason: current.DeleteReason,
		}
		switch event {
		case domain.EventReject:
			out.RejectReason = &reason
		case domain.EventResubmit, domain.EventApprove:
			out.RejectReason = nil
		case domain.EventRequestDelete:
			prior := current.Status
			out.PriorStatus = &prior
			out.DeleteReason = &reason
		case domain.EventRejectDelete:
			out.PriorStatus = nil
			out.DeleteReason = nil
		case domain.EventConfirmDelete:
			out.SoftDelete = true
		}

		out.Audit = domain.AuditLogEntry{
			ShiftID:    current.ID,
			Action:     event,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			ActorRole:  actor.Role,
			Note:       reason,
			FromStatus: current.Status,
			ToStatus:   next,
			LoggedAt:   s.now(),
		}
		audited = out.Audit
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		// Fire-and-forget: the commit already happened, delivery latency
		// must not leak back into the transition boundary.
		go s.Notifier.ShiftTransitioned(context.WithoutCancel(ctx), *shift, audited)
	}
	if s.Logger != nil {
		s.Logger.Info("shift transition",
			"shift", shift.ID,
			"event", string(event),
			"from", string(audited.FromStatus),
			"to", string(audited.ToStatus),
			"actor", actor.ID,
		)
	}
	return shift, nil
}

func (s WorkflowService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
