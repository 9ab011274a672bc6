// Package service implements the marketplace use cases on top of the store:
// availability, quoting, booking lifecycle, kitchens and messaging.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"kitchenhub/internal/booking"
	"kitchenhub/internal/events"
	"kitchenhub/internal/metrics"
	"kitchenhub/internal/model"
)

// ErrInvalidInput marks requests rejected by field validation.
var ErrInvalidInput = errors.New("invalid input")

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// BookingStore is the booking persistence collaborator.
type BookingStore interface {
	ListBookings(ctx context.Context, kitchenID int64, from, to time.Time, exclude ...model.Status) ([]model.Booking, error)
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	CreateBooking(ctx context.Context, b *model.Booking) error
	UpdateBookingStatus(ctx context.Context, id int64, from, to model.Status) (*model.Booking, error)
	ListRenterBookings(ctx context.Context, renterID int64) ([]model.Booking, error)
	ListOwnerBookings(ctx context.Context, ownerID int64) ([]model.Booking, error)
	CountActiveForRenter(ctx context.Context, renterID int64, now time.Time) (int, error)
	ListBookingsToComplete(ctx context.Context, now time.Time) ([]model.Booking, error)
}

// KitchenReader loads a single kitchen.
type KitchenReader interface {
	GetKitchen(ctx context.Context, id int64) (*model.Kitchen, error)
}

// Publisher receives domain events.
type Publisher interface {
	Publish(event events.Event)
}

// RetryPolicy bounds every store call and retries transient read failures.
type RetryPolicy struct {
	Timeout         time.Duration
	Attempts        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Timeout <= 0 {
		p.Timeout = 5 * time.Second
	}
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = 100 * time.Millisecond
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = 2 * time.Second
	}
	return p
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	return b
}

// read runs an idempotent store call with a per-attempt timeout and retries
// it while it fails with a transient error.
func read[T any](ctx context.Context, p RetryPolicy, op string, fn func(context.Context) (T, error)) (T, error) {
	res, err := backoff.Retry(ctx, func() (T, error) {
		v, err := call(ctx, p, op, fn)
		if err != nil && !booking.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(p.Attempts)),
		backoff.WithNotify(func(error, time.Duration) { metrics.IncStoreRetry(op) }),
	)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	return res, err
}

// call runs fn once with the policy timeout. A timeout that is not caused by
// the caller's own context is reported as transient.
func call[T any](ctx context.Context, p RetryPolicy, op string, fn func(context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	v, err := fn(cctx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) && !booking.IsRetryable(err) {
		err = &booking.TransientError{Op: op, Err: err}
	}
	return v, err
}
