package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"kitchenhub/internal/events"
	"kitchenhub/internal/model"
)

// Messenger delivers a message without a user session.
type Messenger interface {
	Notify(ctx context.Context, senderID, receiverID int64, body string, bookingID *int64) (*model.Message, error)
}

// Mailbox posts booking notices into the conversation between the renter
// and the kitchen owner, so the other party sees them on the next poll.
type Mailbox struct {
	messenger Messenger
	loc       *time.Location
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewMailbox creates a mailbox notifier.
func NewMailbox(messenger Messenger, loc *time.Location, logger zerolog.Logger) *Mailbox {
	if loc == nil {
		loc = time.UTC
	}
	return &Mailbox{
		messenger: messenger,
		loc:       loc,
		timeout:   5 * time.Second,
		logger:    logger.With().Str("component", "mailbox_notifier").Logger(),
	}
}

// Register subscribes the notifier to booking events.
func (m *Mailbox) Register(bus Subscriber) {
	bus.Subscribe(events.BookingRequested, m.Handle)
	bus.Subscribe(events.BookingStatusChanged, m.Handle)
}

// Handle delivers the notice for one event.
func (m *Mailbox) Handle(e events.Event) error {
	p, err := events.DecodeBooking(e)
	if err != nil {
		return err
	}
	from, to, ok := recipient(e.Type, p)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	bookingID := p.Booking.ID
	if _, err := m.messenger.Notify(ctx, from, to, Text(e.Type, p, m.loc), &bookingID); err != nil {
		return err
	}
	m.logger.Debug().Str("event", e.Type).Int64("booking_id", bookingID).Int64("receiver_id", to).Msg("booking notice delivered")
	return nil
}
