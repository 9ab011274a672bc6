package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Completer periodically stores the completed status for confirmed bookings
// whose end has passed.
type Completer struct {
	bookings *BookingService
	interval time.Duration
	logger   zerolog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewCompleter creates a completer ticking every interval (default 5m).
func NewCompleter(bookings *BookingService, interval time.Duration, logger zerolog.Logger) *Completer {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Completer{
		bookings: bookings,
		interval: interval,
		logger:   logger.With().Str("component", "completer").Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the completion loop.
func (c *Completer) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.loop()
	c.logger.Info().Dur("interval", c.interval).Msg("completer started")
}

// Stop stops the loop and waits for a running pass to finish.
func (c *Completer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	close(c.stopCh)
	c.wg.Wait()
	c.logger.Info().Msg("completer stopped")
}

func (c *Completer) loop() {
	defer c.wg.Done()

	c.RunOnce()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.RunOnce()
		}
	}
}

// RunOnce performs a single completion pass.
func (c *Completer) RunOnce() int {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := c.bookings.CompleteEnded(ctx)
	if err != nil {
		c.logger.Error().Err(err).Int("completed", n).Msg("complete ended bookings")
		return n
	}
	if n > 0 {
		c.logger.Info().Int("completed", n).Msg("bookings completed")
	}
	return n
}
