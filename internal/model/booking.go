package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kitchenhub/internal/interval"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Blocking reports whether a booking in this status occupies its interval.
// Only cancelled bookings release their time.
func (s Status) Blocking() bool {
	return s != StatusCancelled
}

// Booking is a renter's reservation of a kitchen interval.
type Booking struct {
	ID           int64           `json:"id"`
	KitchenID    int64           `json:"kitchen_id"`
	RenterID     int64           `json:"renter_id"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	Status       Status          `json:"status"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	ReminderSent bool            `json:"reminder_sent"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Filled by listing queries that join kitchens.
	KitchenTitle string `json:"kitchen_title,omitempty"`
	OwnerID      int64  `json:"owner_id,omitempty"`
}

// NewBooking builds a pending booking and validates its interval and price.
func NewBooking(kitchenID, renterID int64, start, end time.Time, total decimal.Decimal) (*Booking, error) {
	if kitchenID <= 0 {
		return nil, fmt.Errorf("booking: kitchen id is required")
	}
	if renterID <= 0 {
		return nil, fmt.Errorf("booking: renter id is required")
	}
	if !end.After(start) {
		return nil, interval.ErrNonPositive
	}
	if total.IsNegative() {
		return nil, fmt.Errorf("booking: total price cannot be negative")
	}
	return &Booking{
		KitchenID:  kitchenID,
		RenterID:   renterID,
		StartTime:  start,
		EndTime:    end,
		Status:     StatusPending,
		TotalPrice: total,
	}, nil
}

// Interval returns the booked range.
func (b *Booking) Interval() interval.Interval {
	return interval.Interval{Start: b.StartTime, End: b.EndTime}
}

// Duration returns the booked length.
func (b *Booking) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

// OverlapsWith reports whether two bookings share any instant.
func (b *Booking) OverlapsWith(other *Booking) bool {
	return interval.Overlaps(b.StartTime, b.EndTime, other.StartTime, other.EndTime)
}

// IsParticipant reports whether userID is the renter or the kitchen owner.
func (b *Booking) IsParticipant(userID int64) bool {
	return userID == b.RenterID || (b.OwnerID != 0 && userID == b.OwnerID)
}
