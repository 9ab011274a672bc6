// Package api exposes the marketplace over an HTTP JSON API. The acting user
// arrives from the upstream gateway in the X-User-ID and X-User-Role headers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"kitchenhub/internal/report"
	"kitchenhub/internal/service"
)

// Deps are the services behind the API.
type Deps struct {
	Bookings *service.BookingService
	Kitchens *service.KitchenService
	Messages *service.MessageService
	Profiles *service.ProfileService
	Reports  *report.Generator
}

// Options tune the HTTP server.
type Options struct {
	Port                int
	APIKeys             []string
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	CreateRatePerMinute int
}

// HTTPServer serves the JSON API.
type HTTPServer struct {
	deps    Deps
	apiKeys map[string]struct{}
	limiter *renterLimiter
	server  *http.Server
	logger  zerolog.Logger
}

// NewHTTPServer builds the server. Without API keys every request is accepted.
func NewHTTPServer(deps Deps, opts Options, logger zerolog.Logger) *HTTPServer {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 15 * time.Second
	}

	s := &HTTPServer{
		deps:    deps,
		apiKeys: make(map[string]struct{}, len(opts.APIKeys)),
		limiter: newRenterLimiter(opts.CreateRatePerMinute),
		logger:  logger.With().Str("component", "http_api").Logger(),
	}
	for _, k := range opts.APIKeys {
		if k != "" {
			s.apiKeys[k] = struct{}{}
		}
	}
	s.server = &http.Server{
		Addr:              ":" + strconv.Itoa(opts.Port),
		Handler:           s.Handler(),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "GET /api/v1/kitchens", s.handleListKitchens)
	s.route(mux, "GET /api/v1/kitchens/cities", s.handleCities)
	s.route(mux, "POST /api/v1/kitchens", s.handleCreateKitchen)
	s.route(mux, "GET /api/v1/kitchens/{id}", s.handleGetKitchen)
	s.route(mux, "PATCH /api/v1/kitchens/{id}", s.handleUpdateKitchen)
	s.route(mux, "GET /api/v1/kitchens/{id}/availability", s.handleAvailability)
	s.route(mux, "GET /api/v1/kitchens/{id}/quote", s.handleQuote)

	s.route(mux, "POST /api/v1/bookings", s.handleCreateBooking)
	s.route(mux, "GET /api/v1/bookings", s.handleListBookings)
	s.route(mux, "GET /api/v1/bookings/{id}", s.handleGetBooking)
	s.route(mux, "POST /api/v1/bookings/{id}/status", s.handleUpdateStatus)

	s.route(mux, "GET /api/v1/messages/contacts", s.handleContacts)
	s.route(mux, "GET /api/v1/messages/{userID}", s.handleConversation)
	s.route(mux, "POST /api/v1/messages/{userID}", s.handleSendMessage)

	s.route(mux, "GET /api/v1/profile", s.handleMyProfile)
	s.route(mux, "PUT /api/v1/profile", s.handleUpdateProfile)
	s.route(mux, "GET /api/v1/users/{userID}/profile", s.handleUserProfile)

	s.route(mux, "GET /api/v1/reports/bookings.xlsx", s.handleOwnerReport)

	return s.withRequestID(s.withAPIKey(mux))
}

// Start serves until the listener fails. ErrServerClosed is not an error.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http api: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
