package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"kitchenhub/internal/booking"
	"kitchenhub/internal/events"
	"kitchenhub/internal/interval"
	"kitchenhub/internal/metrics"
	"kitchenhub/internal/model"
	"kitchenhub/internal/pricing"
	"kitchenhub/internal/slots"
)

// BookingRules are marketplace-wide limits on new bookings.
type BookingRules struct {
	MinAdvance         time.Duration
	MaxAdvance         time.Duration
	MaxActivePerRenter int
}

// BookingOptions configures a BookingService.
type BookingOptions struct {
	Rules    BookingRules
	Retry    RetryPolicy
	Location *time.Location
	Now      func() time.Time
}

// BookingService runs availability, quoting and the booking lifecycle.
type BookingService struct {
	bookings  BookingStore
	kitchens  KitchenReader
	publisher Publisher
	validator *booking.Validator
	machine   *booking.Machine
	rules     BookingRules
	retry     RetryPolicy
	loc       *time.Location
	now       func() time.Time
	logger    zerolog.Logger
}

// NewBookingService creates a booking service. publisher may be nil.
func NewBookingService(bookings BookingStore, kitchens KitchenReader, publisher Publisher, opts BookingOptions, logger zerolog.Logger) *BookingService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &BookingService{
		bookings:  bookings,
		kitchens:  kitchens,
		publisher: publisher,
		validator: booking.NewValidator(opts.Now),
		machine:   booking.NewMachine(),
		rules:     opts.Rules,
		retry:     opts.Retry.withDefaults(),
		loc:       opts.Location,
		now:       opts.Now,
		logger:    logger.With().Str("component", "booking_service").Logger(),
	}
}

// Location is the default viewer time zone.
func (s *BookingService) Location() *time.Location {
	return s.loc
}

// DayAvailability is the resolved slot grid of one kitchen day.
type DayAvailability struct {
	Kitchen *model.Kitchen
	Date    time.Time
	Slots   []slots.Slot
}

func (s *BookingService) getKitchen(ctx context.Context, id int64) (*model.Kitchen, error) {
	k, err := read(ctx, s.retry, "get kitchen", func(ctx context.Context) (*model.Kitchen, error) {
		return s.kitchens.GetKitchen(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if !k.IsActive {
		return nil, fmt.Errorf("kitchen %d is not active: %w", id, booking.ErrNotFound)
	}
	return k, nil
}

func (s *BookingService) activeBookings(ctx context.Context, kitchenID int64, from, to time.Time) ([]model.Booking, error) {
	return read(ctx, s.retry, "list bookings", func(ctx context.Context) ([]model.Booking, error) {
		return s.bookings.ListBookings(ctx, kitchenID, from, to, model.StatusCancelled)
	})
}

// DayAvailability returns the kitchen's hourly grid for the calendar day of
// day in loc, with booked and past slots marked. A nil loc means the default zone.
func (s *BookingService) DayAvailability(ctx context.Context, kitchenID int64, day time.Time, loc *time.Location) (*DayAvailability, error) {
	if loc == nil {
		loc = s.loc
	}
	k, err := s.getKitchen(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	y, m, d := day.In(loc).Date()
	result := &DayAvailability{Kitchen: k, Date: time.Date(y, m, d, 0, 0, 0, 0, loc)}

	grid := slots.Generate(result.Date, slots.Window{StartHour: k.OpenHour, EndHour: k.CloseHour}, loc)
	if len(grid) == 0 {
		result.Slots = grid
		return result, nil
	}

	existing, err := s.activeBookings(ctx, kitchenID, grid[0].StartTime, grid[len(grid)-1].EndTime)
	if err != nil {
		return nil, fmt.Errorf("availability for kitchen %d: %w", kitchenID, err)
	}

	busy := make([]interval.Interval, 0, len(existing))
	for i := range existing {
		busy = append(busy, existing[i].Interval())
	}
	result.Slots = slots.Resolve(grid, busy, s.now())
	return result, nil
}

// Quote prices [start, end) at the kitchen's current rate.
func (s *BookingService) Quote(ctx context.Context, kitchenID int64, start, end time.Time) (pricing.Quote, error) {
	if !end.After(start) {
		return pricing.Quote{}, &booking.InvalidIntervalError{Reason: "end must be after start"}
	}
	k, err := s.getKitchen(ctx, kitchenID)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Calculate(k.PricePerHour, start, end)
}

// CreateRequest asks for a new booking. Location is the requester's zone and
// decides which calendar day the operating hours apply to.
type CreateRequest struct {
	KitchenID int64
	Start     time.Time
	End       time.Time
	Location  *time.Location
}

// CreateBooking validates and stores a pending booking for the session's user.
func (s *BookingService) CreateBooking(ctx context.Context, sess model.Session, req CreateRequest) (*model.Booking, error) {
	b, err := s.createBooking(ctx, sess, req)
	switch {
	case err == nil:
		metrics.IncBookingCreate("created")
	case errors.Is(err, booking.ErrConflict):
		metrics.IncBookingCreate("conflict")
	case errors.Is(err, booking.ErrInvalidInterval):
		metrics.IncBookingCreate("invalid")
	case errors.Is(err, booking.ErrTransient):
		metrics.IncBookingCreate("transient")
	default:
		metrics.IncBookingCreate("error")
	}
	return b, err
}

func (s *BookingService) createBooking(ctx context.Context, sess model.Session, req CreateRequest) (*model.Booking, error) {
	if !sess.IsRenter() {
		return nil, fmt.Errorf("only renters can book kitchens: %w", booking.ErrForbidden)
	}
	start, end := req.Start.Truncate(time.Second), req.End.Truncate(time.Second)
	if !end.After(start) {
		return nil, &booking.InvalidIntervalError{Reason: "end must be after start"}
	}
	loc := req.Location
	if loc == nil {
		loc = s.loc
	}

	k, err := s.getKitchen(ctx, req.KitchenID)
	if err != nil {
		return nil, err
	}

	if err := s.checkRules(k, start, end, loc); err != nil {
		return nil, err
	}

	if s.rules.MaxActivePerRenter > 0 {
		active, err := read(ctx, s.retry, "count active bookings", func(ctx context.Context) (int, error) {
			return s.bookings.CountActiveForRenter(ctx, sess.UserID, s.now())
		})
		if err != nil {
			return nil, err
		}
		if active >= s.rules.MaxActivePerRenter {
			return nil, fmt.Errorf("renter %d already has %d active bookings: %w", sess.UserID, active, booking.ErrForbidden)
		}
	}

	existing, err := s.activeBookings(ctx, k.ID, start, end)
	if err != nil {
		return nil, err
	}

	total, err := s.validator.Validate(k, start, end, existing)
	if err != nil {
		if errors.Is(err, booking.ErrConflict) {
			metrics.IncConflict("precheck")
		}
		return nil, err
	}

	b, err := model.NewBooking(k.ID, sess.UserID, start, end, total)
	if err != nil {
		return nil, &booking.InvalidIntervalError{Reason: err.Error()}
	}

	// Writes are not retried: the storage re-check decides the outcome.
	_, err = call(ctx, s.retry, "create booking", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.bookings.CreateBooking(ctx, b)
	})
	if err != nil {
		if errors.Is(err, booking.ErrConflict) {
			metrics.IncConflict("storage")
		}
		return nil, err
	}
	b.KitchenTitle = k.Title
	b.OwnerID = k.OwnerID

	s.logger.Info().
		Int64("booking_id", b.ID).
		Int64("kitchen_id", k.ID).
		Int64("renter_id", sess.UserID).
		Time("start", start).
		Time("end", end).
		Str("total", total.String()).
		Msg("booking requested")

	s.publish(events.BookingRequested, events.BookingPayload{Booking: *b, ActorID: sess.UserID})
	return b, nil
}

func (s *BookingService) checkRules(k *model.Kitchen, start, end time.Time, loc *time.Location) error {
	now := s.now()
	if start.Before(now) {
		return &booking.InvalidIntervalError{Reason: "start is in the past"}
	}
	if s.rules.MinAdvance > 0 && start.Before(now.Add(s.rules.MinAdvance)) {
		return &booking.InvalidIntervalError{Reason: fmt.Sprintf("bookings must start at least %s from now", s.rules.MinAdvance)}
	}
	if s.rules.MaxAdvance > 0 && start.After(now.Add(s.rules.MaxAdvance)) {
		return &booking.InvalidIntervalError{Reason: fmt.Sprintf("bookings cannot start more than %s ahead", s.rules.MaxAdvance)}
	}

	y, m, d := start.In(loc).Date()
	open := time.Date(y, m, d, k.OpenHour, 0, 0, 0, loc)
	closeAt := time.Date(y, m, d, k.CloseHour, 0, 0, 0, loc)
	if start.Before(open) || end.After(closeAt) {
		return &booking.InvalidIntervalError{Reason: fmt.Sprintf("outside operating hours %02d:00-%02d:00", k.OpenHour, k.CloseHour)}
	}
	return nil
}

// BookingView is a booking with its display status.
type BookingView struct {
	model.Booking
	DisplayStatus model.Status `json:"display_status"`
}

func (s *BookingService) view(b model.Booking) BookingView {
	return BookingView{Booking: b, DisplayStatus: booking.DisplayStatus(&b, s.now())}
}

// GetBooking returns a booking visible to the session's user.
func (s *BookingService) GetBooking(ctx context.Context, sess model.Session, id int64) (*BookingView, error) {
	b, err := s.loadWithOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(sess.UserID) {
		return nil, fmt.Errorf("booking %d: %w", id, booking.ErrForbidden)
	}
	v := s.view(*b)
	return &v, nil
}

// ListBookings returns the session user's bookings for one tab: bookings of
// their kitchens when acting as owner, their own reservations otherwise.
func (s *BookingService) ListBookings(ctx context.Context, sess model.Session, tab booking.Tab) ([]BookingView, error) {
	list, err := read(ctx, s.retry, "list my bookings", func(ctx context.Context) ([]model.Booking, error) {
		if sess.IsOwner() {
			return s.bookings.ListOwnerBookings(ctx, sess.UserID)
		}
		return s.bookings.ListRenterBookings(ctx, sess.UserID)
	})
	if err != nil {
		return nil, err
	}

	filtered := booking.FilterTab(list, tab, s.now())
	views := make([]BookingView, 0, len(filtered))
	for _, b := range filtered {
		views = append(views, s.view(b))
	}
	return views, nil
}

func (s *BookingService) loadWithOwner(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := read(ctx, s.retry, "get booking", func(ctx context.Context) (*model.Booking, error) {
		return s.bookings.GetBooking(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if b.OwnerID == 0 {
		k, err := read(ctx, s.retry, "get kitchen", func(ctx context.Context) (*model.Kitchen, error) {
			return s.kitchens.GetKitchen(ctx, b.KitchenID)
		})
		if err != nil {
			return nil, err
		}
		b.OwnerID = k.OwnerID
	}
	return b, nil
}

// UpdateStatus applies a status transition requested by the session's user.
func (s *BookingService) UpdateStatus(ctx context.Context, sess model.Session, id int64, to model.Status) (*BookingView, error) {
	b, err := s.loadWithOwner(ctx, id)
	if err != nil {
		return nil, err
	}

	actor, err := s.machine.Authorize(b, b.OwnerID, sess, to, s.now())
	if err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, b, to)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", id).
		Int64("user_id", sess.UserID).
		Str("actor", string(actor)).
		Str("from", string(b.Status)).
		Str("to", string(to)).
		Msg("booking status changed")

	s.publish(events.BookingStatusChanged, events.BookingPayload{Booking: *updated, PrevStatus: b.Status, ActorID: sess.UserID})
	v := s.view(*updated)
	return &v, nil
}

func (s *BookingService) transition(ctx context.Context, b *model.Booking, to model.Status) (*model.Booking, error) {
	updated, err := call(ctx, s.retry, "update booking status", func(ctx context.Context) (*model.Booking, error) {
		return s.bookings.UpdateBookingStatus(ctx, b.ID, b.Status, to)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncStatusChange(string(b.Status), string(to))
	return updated, nil
}

// CompleteEnded stores the completed status for confirmed bookings whose end
// has passed and returns how many were completed.
func (s *BookingService) CompleteEnded(ctx context.Context) (int, error) {
	now := s.now()
	due, err := read(ctx, s.retry, "list bookings to complete", func(ctx context.Context) ([]model.Booking, error) {
		return s.bookings.ListBookingsToComplete(ctx, now)
	})
	if err != nil {
		return 0, err
	}

	completed := 0
	for i := range due {
		b := &due[i]
		if err := s.machine.Check(b, model.StatusCompleted, booking.ActorSystem, now); err != nil {
			continue
		}
		updated, err := s.transition(ctx, b, model.StatusCompleted)
		if err != nil {
			if errors.Is(err, booking.ErrConflict) {
				// Cancelled or completed concurrently.
				continue
			}
			return completed, err
		}
		completed++
		s.publish(events.BookingStatusChanged, events.BookingPayload{Booking: *updated, PrevStatus: b.Status})
	}
	return completed, nil
}

func (s *BookingService) publish(eventType string, p events.BookingPayload) {
	if s.publisher == nil {
		return
	}
	e, err := events.NewBookingEvent(eventType, p)
	if err != nil {
		s.logger.Error().Err(err).Str("type", eventType).Msg("encode event")
		return
	}
	s.publisher.Publish(e)
}
