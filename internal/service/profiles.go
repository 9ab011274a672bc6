package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"kitchenhub/internal/booking"
	"kitchenhub/internal/model"
)

// ProfileStore persists user profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (*model.Profile, error)
	SaveProfile(ctx context.Context, p *model.Profile) error
	ProfileCounts(ctx context.Context, userID int64) (bookings, kitchens int, err error)
}

// ProfileUpdate is the editable part of a profile.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Phone     string
}

// ProfileService manages the session user's profile.
type ProfileService struct {
	store  ProfileStore
	retry  RetryPolicy
	logger zerolog.Logger
}

// NewProfileService creates a profile service.
func NewProfileService(store ProfileStore, retry RetryPolicy, logger zerolog.Logger) *ProfileService {
	return &ProfileService{
		store:  store,
		retry:  retry.withDefaults(),
		logger: logger.With().Str("component", "profile_service").Logger(),
	}
}

// load returns the stored profile or a blank one for users who never saved it.
func (s *ProfileService) load(ctx context.Context, userID int64) (*model.Profile, error) {
	p, err := read(ctx, s.retry, "get profile", func(ctx context.Context) (*model.Profile, error) {
		return s.store.GetProfile(ctx, userID)
	})
	if errors.Is(err, booking.ErrNotFound) {
		return &model.Profile{UserID: userID}, nil
	}
	return p, err
}

// Mine returns the session user's profile with their booking and kitchen counts.
func (s *ProfileService) Mine(ctx context.Context, sess model.Session) (*model.ProfileSummary, error) {
	p, err := s.load(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	type counts struct{ bookings, kitchens int }
	c, err := read(ctx, s.retry, "profile counts", func(ctx context.Context) (counts, error) {
		b, k, err := s.store.ProfileCounts(ctx, sess.UserID)
		return counts{b, k}, err
	})
	if err != nil {
		return nil, err
	}
	return &model.ProfileSummary{Profile: *p, Bookings: c.bookings, Kitchens: c.kitchens}, nil
}

// Update replaces the session user's profile fields.
func (s *ProfileService) Update(ctx context.Context, sess model.Session, u ProfileUpdate) (*model.Profile, error) {
	p, err := model.NewProfile(sess.UserID, u.FirstName, u.LastName, u.Phone)
	if err != nil {
		return nil, invalid(err)
	}
	if _, err := call(ctx, s.retry, "save profile", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.SaveProfile(ctx, p)
	}); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", sess.UserID).Msg("profile updated")
	return p, nil
}

// Public returns the profile of userID as other users see it: names only.
func (s *ProfileService) Public(ctx context.Context, userID int64) (*model.Profile, error) {
	p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.Phone = ""
	return p, nil
}
