package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"kitchenhub/internal/booking"
	"kitchenhub/internal/model"
)

// KitchenStore is the kitchen persistence collaborator.
type KitchenStore interface {
	CreateKitchen(ctx context.Context, k *model.Kitchen) error
	GetKitchen(ctx context.Context, id int64) (*model.Kitchen, error)
	UpdateKitchen(ctx context.Context, k *model.Kitchen) error
	ListKitchens(ctx context.Context, f model.KitchenFilter) ([]model.Kitchen, error)
	ListCities(ctx context.Context) ([]string, error)
}

// KitchenCache is a read-through kitchen cache.
type KitchenCache interface {
	KitchenReader
	Invalidate(ctx context.Context, id int64)
}

// KitchenPatch holds the fields an owner may change. Nil means unchanged.
type KitchenPatch struct {
	Title        *string
	Description  *string
	Address      *string
	City         *string
	Category     *string
	KitchenType  *model.KitchenType
	AreaSqm      *float64
	PricePerHour *decimal.Decimal
	OpenHour     *int
	CloseHour    *int
	Amenities    []string
	ImageURLs    []string
	IsActive     *bool
}

func (p KitchenPatch) apply(k *model.Kitchen) {
	if p.Title != nil {
		k.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		k.Description = *p.Description
	}
	if p.Address != nil {
		k.Address = *p.Address
	}
	if p.City != nil {
		k.City = strings.TrimSpace(*p.City)
	}
	if p.Category != nil {
		k.Category = *p.Category
	}
	if p.KitchenType != nil {
		k.KitchenType = *p.KitchenType
	}
	if p.AreaSqm != nil {
		k.AreaSqm = *p.AreaSqm
	}
	if p.PricePerHour != nil {
		k.PricePerHour = *p.PricePerHour
	}
	if p.OpenHour != nil {
		k.OpenHour = *p.OpenHour
	}
	if p.CloseHour != nil {
		k.CloseHour = *p.CloseHour
	}
	if p.Amenities != nil {
		k.Amenities = p.Amenities
	}
	if p.ImageURLs != nil {
		k.ImageURLs = p.ImageURLs
	}
	if p.IsActive != nil {
		k.IsActive = *p.IsActive
	}
}

// KitchenService manages kitchen listings.
type KitchenService struct {
	store  KitchenStore
	cache  KitchenCache
	retry  RetryPolicy
	logger zerolog.Logger
}

// NewKitchenService creates a kitchen service. A nil cache reads the store directly.
func NewKitchenService(store KitchenStore, cache KitchenCache, retry RetryPolicy, logger zerolog.Logger) *KitchenService {
	return &KitchenService{
		store:  store,
		cache:  cache,
		retry:  retry.withDefaults(),
		logger: logger.With().Str("component", "kitchen_service").Logger(),
	}
}

func (s *KitchenService) reader() KitchenReader {
	if s.cache != nil {
		return s.cache
	}
	return s.store
}

// Create lists a new kitchen owned by the session's user.
func (s *KitchenService) Create(ctx context.Context, sess model.Session, k model.Kitchen) (*model.Kitchen, error) {
	if !sess.IsOwner() {
		return nil, fmt.Errorf("only owners can list kitchens: %w", booking.ErrForbidden)
	}
	k.ID = 0
	k.OwnerID = sess.UserID
	k.IsActive = true
	kitchen, err := model.NewKitchen(k)
	if err != nil {
		return nil, invalid(err)
	}

	if _, err := call(ctx, s.retry, "create kitchen", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.CreateKitchen(ctx, kitchen)
	}); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("kitchen_id", kitchen.ID).Int64("owner_id", sess.UserID).Str("title", kitchen.Title).Msg("kitchen created")
	return kitchen, nil
}

// Get returns one kitchen, active or not.
func (s *KitchenService) Get(ctx context.Context, id int64) (*model.Kitchen, error) {
	return read(ctx, s.retry, "get kitchen", func(ctx context.Context) (*model.Kitchen, error) {
		return s.reader().GetKitchen(ctx, id)
	})
}

// Update applies patch to a kitchen owned by the session's user.
func (s *KitchenService) Update(ctx context.Context, sess model.Session, id int64, patch KitchenPatch) (*model.Kitchen, error) {
	k, err := read(ctx, s.retry, "get kitchen", func(ctx context.Context) (*model.Kitchen, error) {
		return s.store.GetKitchen(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if !sess.IsOwner() || k.OwnerID != sess.UserID {
		return nil, fmt.Errorf("kitchen %d: %w", id, booking.ErrForbidden)
	}

	patch.apply(k)
	if err := k.Validate(); err != nil {
		return nil, invalid(err)
	}

	if _, err := call(ctx, s.retry, "update kitchen", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.UpdateKitchen(ctx, k)
	}); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}

	s.logger.Info().Int64("kitchen_id", id).Int64("owner_id", sess.UserID).Msg("kitchen updated")
	return k, nil
}

// List searches kitchens. Only active kitchens are returned unless the
// filter targets the caller's own listings.
func (s *KitchenService) List(ctx context.Context, sess model.Session, f model.KitchenFilter) ([]model.Kitchen, error) {
	if f.OwnerID == 0 || f.OwnerID != sess.UserID {
		f.OnlyActive = true
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, invalid(fmt.Errorf("min price exceeds max price"))
	}
	return read(ctx, s.retry, "list kitchens", func(ctx context.Context) ([]model.Kitchen, error) {
		return s.store.ListKitchens(ctx, f)
	})
}

// Cities lists cities that have active kitchens.
func (s *KitchenService) Cities(ctx context.Context) ([]string, error) {
	return read(ctx, s.retry, "list cities", func(ctx context.Context) ([]string, error) {
		return s.store.ListCities(ctx)
	})
}
