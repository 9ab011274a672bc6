package notify

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kitchenhub/internal/events"
	"kitchenhub/internal/model"
)

type mockMessenger struct {
	mock.Mock
}

func (m *mockMessenger) Notify(ctx context.Context, senderID, receiverID int64, body string, bookingID *int64) (*model.Message, error) {
	args := m.Called(ctx, senderID, receiverID, body, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

var logger = zerolog.New(io.Discard)

func testBooking(status model.Status) model.Booking {
	return model.Booking{
		ID:           7,
		KitchenID:    1,
		RenterID:     20,
		OwnerID:      10,
		KitchenTitle: "Loft",
		StartTime:    time.Date(2026, 7, 2, 10, 0, 0, 0, time.UTC),
		EndTime:      time.Date(2026, 7, 2, 12, 0, 0, 0, time.UTC),
		Status:       status,
		TotalPrice:   decimal.NewFromInt(1000),
	}
}

func event(t *testing.T, eventType string, p events.BookingPayload) events.Event {
	t.Helper()
	e, err := events.NewBookingEvent(eventType, p)
	require.NoError(t, err)
	return e
}

func TestRecipient(t *testing.T) {
	b := testBooking(model.StatusConfirmed)

	from, to, ok := recipient(events.BookingRequested, events.BookingPayload{Booking: b, ActorID: 20})
	assert.True(t, ok)
	assert.Equal(t, int64(20), from)
	assert.Equal(t, int64(10), to)

	from, to, ok = recipient(events.BookingStatusChanged, events.BookingPayload{Booking: b, ActorID: 10})
	assert.True(t, ok)
	assert.Equal(t, int64(10), from)
	assert.Equal(t, int64(20), to)

	from, to, ok = recipient(events.BookingStatusChanged, events.BookingPayload{Booking: b, ActorID: 20})
	assert.True(t, ok)
	assert.Equal(t, int64(20), from)
	assert.Equal(t, int64(10), to)

	_, _, ok = recipient(events.BookingStatusChanged, events.BookingPayload{Booking: b})
	assert.False(t, ok, "system changes are not announced")

	self := b
	self.OwnerID = self.RenterID
	_, _, ok = recipient(events.BookingRequested, events.BookingPayload{Booking: self, ActorID: 20})
	assert.False(t, ok)
}

func TestText(t *testing.T) {
	b := testBooking(model.StatusPending)
	loc := time.FixedZone("UTC+3", 3*60*60)

	assert.Equal(t, "New booking request #7: Loft, 02.07.2026 13:00 - 15:00. Total 1000.00.",
		Text(events.BookingRequested, events.BookingPayload{Booking: b}, loc))

	b.Status = model.StatusCancelled
	b.KitchenTitle = ""
	assert.Equal(t, "Booking #7 (kitchen #1, 02.07.2026 10:00 - 12:00) is now cancelled.",
		Text(events.BookingStatusChanged, events.BookingPayload{Booking: b}, time.UTC))
}

func TestMailboxHandle(t *testing.T) {
	m := &mockMessenger{}
	bookingID := int64(7)
	m.On("Notify", mock.Anything, int64(10), int64(20), mock.MatchedBy(func(body string) bool {
		return body == "Booking #7 (Loft, 02.07.2026 10:00 - 12:00) is now confirmed."
	}), &bookingID).Return(&model.Message{ID: 1}, nil)

	mb := NewMailbox(m, time.UTC, logger)
	err := mb.Handle(event(t, events.BookingStatusChanged, events.BookingPayload{
		Booking: testBooking(model.StatusConfirmed), PrevStatus: model.StatusPending, ActorID: 10,
	}))
	require.NoError(t, err)
	m.AssertNumberOfCalls(t, "Notify", 1)

	require.NoError(t, mb.Handle(event(t, events.BookingStatusChanged, events.BookingPayload{Booking: testBooking(model.StatusCompleted)})))
	m.AssertNumberOfCalls(t, "Notify", 1)
}

func TestMailboxRegister(t *testing.T) {
	m := &mockMessenger{}
	m.On("Notify", mock.Anything, int64(20), int64(10), mock.Anything, mock.Anything).Return(&model.Message{ID: 1}, nil)

	bus := events.NewEventBus(logger)
	NewMailbox(m, time.UTC, logger).Register(bus)
	bus.Publish(event(t, events.BookingRequested, events.BookingPayload{Booking: testBooking(model.StatusPending), ActorID: 20}))

	m.AssertNumberOfCalls(t, "Notify", 1)
}

func TestTelegramHandle(t *testing.T) {
	sender := &fakeSender{}
	tg := NewTelegram(sender, map[int64]int64{10: 5010}, time.UTC, logger)

	require.NoError(t, tg.Handle(event(t, events.BookingRequested, events.BookingPayload{Booking: testBooking(model.StatusPending), ActorID: 20})))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(5010), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "New booking request #7")

	// Renter has no linked chat.
	require.NoError(t, tg.Handle(event(t, events.BookingStatusChanged, events.BookingPayload{Booking: testBooking(model.StatusConfirmed), ActorID: 10})))
	assert.Len(t, sender.sent, 1)
}

func TestTelegramSendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("bad gateway")}
	tg := NewTelegram(sender, map[int64]int64{10: 5010}, time.UTC, logger)

	err := tg.Handle(event(t, events.BookingRequested, events.BookingPayload{Booking: testBooking(model.StatusPending), ActorID: 20}))
	assert.ErrorContains(t, err, "bad gateway")
}
