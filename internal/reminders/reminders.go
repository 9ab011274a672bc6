// Package reminders sends renters a message ahead of confirmed bookings.
package reminders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"kitchenhub/internal/metrics"
	"kitchenhub/internal/model"
)

// BookingStore provides bookings that are due for a reminder.
type BookingStore interface {
	ListUpcomingForReminders(ctx context.Context, now time.Time, lead time.Duration) ([]model.Booking, error)
	MarkReminderSent(ctx context.Context, id int64) error
}

// Messenger delivers the reminder text.
type Messenger interface {
	Notify(ctx context.Context, senderID, receiverID int64, body string, bookingID *int64) (*model.Message, error)
}

// Config holds configuration for the reminder service.
type Config struct {
	// Lead is how long before the start a reminder goes out. Default: 24h.
	Lead time.Duration
	// CheckInterval is how often to look for due bookings. Default: 15m.
	CheckInterval time.Duration
	// Rate caps messages per second. Default: 5.
	Rate float64
	// Location formats times in the message.
	Location *time.Location
}

// Service handles sending booking reminders.
type Service struct {
	config    Config
	bookings  BookingStore
	messenger Messenger
	limiter   *rate.Limiter
	now       func() time.Time
	logger    zerolog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewService creates a new reminder service.
func NewService(cfg Config, bookings BookingStore, messenger Messenger, logger zerolog.Logger) *Service {
	if cfg.Lead <= 0 {
		cfg.Lead = 24 * time.Hour
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 15 * time.Minute
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 5
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		config:    cfg,
		bookings:  bookings,
		messenger: messenger,
		limiter:   rate.NewLimiter(rate.Limit(cfg.Rate), 1),
		now:       time.Now,
		logger:    logger.With().Str("component", "reminders").Logger(),
		stopCh:    make(chan struct{}),
	}
}

// Start begins the reminder check loop.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()

	s.logger.Info().
		Dur("check_interval", s.config.CheckInterval).
		Dur("lead", s.config.Lead).
		Msg("reminder service started")
}

// Stop gracefully stops the reminder service.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info().Msg("reminder service stopped")
}

func (s *Service) loop() {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Run immediately on start
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce sends every due reminder and returns how many were sent.
func (s *Service) RunOnce(ctx context.Context) int {
	due, err := s.bookings.ListUpcomingForReminders(ctx, s.now(), s.config.Lead)
	if err != nil {
		s.logger.Error().Err(err).Msg("list upcoming bookings")
		return 0
	}

	sent := 0
	for i := range due {
		if err := s.limiter.Wait(ctx); err != nil {
			return sent
		}
		b := &due[i]
		if err := s.send(ctx, b); err != nil {
			metrics.IncReminder("failed")
			s.logger.Error().Err(err).Int64("booking_id", b.ID).Int64("renter_id", b.RenterID).Msg("send reminder")
			continue
		}
		metrics.IncReminder("sent")
		sent++
	}
	return sent
}

func (s *Service) send(ctx context.Context, b *model.Booking) error {
	// Owners booking their own kitchen need no reminder from themselves.
	if b.OwnerID != 0 && b.OwnerID != b.RenterID {
		id := b.ID
		if _, err := s.messenger.Notify(ctx, b.OwnerID, b.RenterID, s.text(b), &id); err != nil {
			return err
		}
	}
	if err := s.bookings.MarkReminderSent(ctx, b.ID); err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

func (s *Service) text(b *model.Booking) string {
	title := b.KitchenTitle
	if title == "" {
		title = fmt.Sprintf("kitchen #%d", b.KitchenID)
	}
	start := b.StartTime.In(s.config.Location)
	return fmt.Sprintf("Reminder: your booking #%d at %s starts %s and ends at %s.",
		b.ID, title, start.Format("02.01.2006 15:04"), b.EndTime.In(s.config.Location).Format("15:04"))
}
