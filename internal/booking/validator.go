// Package booking holds the booking rules: conflict validation, the status
// state machine and the error kinds used across the service.
package booking

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kitchenhub/internal/interval"
	"kitchenhub/internal/model"
	"kitchenhub/internal/pricing"
)

// Validator decides whether a requested interval may be booked.
type Validator struct {
	now func() time.Time
}

// NewValidator creates a validator. A nil clock means time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// Validate checks [start, end) against the kitchen's existing bookings and
// returns the total price. Cancelled bookings never conflict.
func (v *Validator) Validate(kitchen *model.Kitchen, start, end time.Time, existing []model.Booking) (decimal.Decimal, error) {
	if kitchen == nil {
		return decimal.Zero, fmt.Errorf("validate booking: %w", ErrNotFound)
	}
	if !end.After(start) {
		return decimal.Zero, &InvalidIntervalError{Reason: "end must be after start"}
	}
	if start.Before(v.now()) {
		return decimal.Zero, &InvalidIntervalError{Reason: "start is in the past"}
	}

	if c := FindConflict(kitchen.ID, start, end, existing); c != nil {
		return decimal.Zero, c
	}

	total, err := pricing.Total(kitchen.PricePerHour, start, end)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price booking: %w", err)
	}
	return total, nil
}

// FindConflict returns the first non-cancelled booking overlapping [start, end).
func FindConflict(kitchenID int64, start, end time.Time, existing []model.Booking) *ConflictError {
	for i := range existing {
		b := &existing[i]
		if !b.Status.Blocking() {
			continue
		}
		if interval.Overlaps(start, end, b.StartTime, b.EndTime) {
			return &ConflictError{KitchenID: kitchenID, Start: b.StartTime, End: b.EndTime, BookingID: b.ID}
		}
	}
	return nil
}
