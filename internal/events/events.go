// Package events is an in-process publish/subscribe bus for booking events.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"kitchenhub/internal/model"
)

const (
	BookingRequested     = "booking.requested"
	BookingStatusChanged = "booking.status_changed"
)

// Event is a published domain event with a JSON payload.
type Event struct {
	ID        string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// BookingPayload is carried by booking events.
type BookingPayload struct {
	Booking    model.Booking `json:"booking"`
	PrevStatus model.Status  `json:"prev_status,omitempty"`
	ActorID    int64         `json:"actor_id"`
}

// NewBookingEvent encodes a booking event.
func NewBookingEvent(eventType string, p BookingPayload) (Event, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{ID: uuid.NewString(), Type: eventType, Payload: data, CreatedAt: time.Now()}, nil
}

// DecodeBooking decodes the payload of a booking event.
func DecodeBooking(e Event) (BookingPayload, error) {
	var p BookingPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// EventBus fans events out to the handlers subscribed to their type.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      zerolog.Logger
}

// NewEventBus returns a bus with no subscribers.
func NewEventBus(logger zerolog.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[string][]EventHandler),
		logger:      logger.With().Str("component", "events").Logger(),
	}
}

// Subscribe adds handler for eventType. Handlers run in subscription order.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type. Handler errors are logged
// and do not stop the remaining handlers.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.Error().Err(err).Str("event_id", event.ID).Str("type", event.Type).Msg("event handler failed")
		}
	}
}
