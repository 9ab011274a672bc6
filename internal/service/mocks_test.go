package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"kitchenhub/internal/events"
	"kitchenhub/internal/model"
)

var (
	testLogger = zerolog.New(io.Discard)
	testNow    = time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)
	fastRetry  = RetryPolicy{Timeout: time.Second, Attempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
)

type mockBookingStore struct {
	mock.Mock
}

func (m *mockBookingStore) ListBookings(ctx context.Context, kitchenID int64, from, to time.Time, exclude ...model.Status) ([]model.Booking, error) {
	args := m.Called(ctx, kitchenID, from, to, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *mockBookingStore) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *mockBookingStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingStore) UpdateBookingStatus(ctx context.Context, id int64, from, to model.Status) (*model.Booking, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *mockBookingStore) ListRenterBookings(ctx context.Context, renterID int64) ([]model.Booking, error) {
	args := m.Called(ctx, renterID)
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *mockBookingStore) ListOwnerBookings(ctx context.Context, ownerID int64) ([]model.Booking, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *mockBookingStore) CountActiveForRenter(ctx context.Context, renterID int64, now time.Time) (int, error) {
	args := m.Called(ctx, renterID, now)
	return args.Int(0), args.Error(1)
}

func (m *mockBookingStore) ListBookingsToComplete(ctx context.Context, now time.Time) ([]model.Booking, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

type mockKitchenStore struct {
	mock.Mock
}

func (m *mockKitchenStore) CreateKitchen(ctx context.Context, k *model.Kitchen) error {
	return m.Called(ctx, k).Error(0)
}

func (m *mockKitchenStore) GetKitchen(ctx context.Context, id int64) (*model.Kitchen, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Kitchen), args.Error(1)
}

func (m *mockKitchenStore) UpdateKitchen(ctx context.Context, k *model.Kitchen) error {
	return m.Called(ctx, k).Error(0)
}

func (m *mockKitchenStore) ListKitchens(ctx context.Context, f model.KitchenFilter) ([]model.Kitchen, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]model.Kitchen), args.Error(1)
}

func (m *mockKitchenStore) ListCities(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type mockMessageStore struct {
	mock.Mock
}

func (m *mockMessageStore) SendMessage(ctx context.Context, msg *model.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockMessageStore) Conversation(ctx context.Context, a, b, afterID int64, limit int) ([]model.Message, error) {
	args := m.Called(ctx, a, b, afterID, limit)
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *mockMessageStore) Contacts(ctx context.Context, userID int64) ([]model.Contact, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Contact), args.Error(1)
}

func (m *mockMessageStore) MarkRead(ctx context.Context, receiverID, senderID, uptoID int64) (int64, error) {
	args := m.Called(ctx, receiverID, senderID, uptoID)
	return args.Get(0).(int64), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
