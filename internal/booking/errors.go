package booking

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds shared by the validator, the storage layer and the services.
// Callers match them with errors.Is.
var (
	ErrInvalidInterval   = errors.New("invalid interval")
	ErrConflict          = errors.New("booking conflict")
	ErrNotFound          = errors.New("not found")
	ErrTransient         = errors.New("temporary failure")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// InvalidIntervalError describes why a requested interval was rejected.
type InvalidIntervalError struct {
	Reason string
}

func (e *InvalidIntervalError) Error() string { return "invalid interval: " + e.Reason }
func (e *InvalidIntervalError) Unwrap() error { return ErrInvalidInterval }

// ConflictError reports the interval that is already taken.
type ConflictError struct {
	KitchenID int64
	Start     time.Time
	End       time.Time
	// BookingID is the conflicting booking when known, 0 otherwise.
	BookingID int64
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("kitchen %d is already booked between %s and %s",
		e.KitchenID, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
	if e.BookingID != 0 {
		msg += fmt.Sprintf(" (booking #%d)", e.BookingID)
	}
	return msg
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// TransientError wraps a failure that may succeed on retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("%s: temporary failure: %v", e.Op, e.Err) }
func (e *TransientError) Unwrap() []error {
	return []error{ErrTransient, e.Err}
}

// TransitionError reports a status change the state machine does not allow.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change booking status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// IsRetryable reports whether err is worth retrying with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
