package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when the requested event is not
	// valid from the shift's current status.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrPermissionDenied is returned when the acting role lacks the grant
	// a transition requires. The shift is left untouched and no audit
	// entry is written.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrStorageUnavailable wraps persistence failures during a commit.
	// Retryable by the caller; the core never retries internally.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError reports a missing or malformed field on a transition
// request. No state change accompanies it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// InvalidSalesLineError rejects a whole aggregation because one line's
// stored total disagrees with volume × unit price beyond one minor unit.
type InvalidSalesLineError struct {
	LineID   int64
	Stored   Money
	Computed Money
	Reason   string
}

func (e *InvalidSalesLineError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid sales line %d: %s", e.LineID, e.Reason)
	}
	return fmt.Sprintf("invalid sales line %d: stored total %s, computed %s", e.LineID, e.Stored, e.Computed)
}
