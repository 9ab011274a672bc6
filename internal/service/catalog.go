package service

import (
	"context"

	"github.com/rs/zerolog"

	"kitchenhub/internal/config"
	"kitchenhub/internal/db"
)

// CatalogStore applies the seeded kitchen catalog.
type CatalogStore interface {
	SyncKitchensFromConfig(ctx context.Context, cfg *config.KitchensConfig) (db.SyncResult, error)
}

// CatalogSync applies kitchens.yaml and evicts every kitchen it changed from
// the cache, deactivated ones included, so bookings never see a stale listing.
type CatalogSync struct {
	store  CatalogStore
	cache  KitchenCache
	logger zerolog.Logger
}

// NewCatalogSync creates a catalog sync. cache may be nil.
func NewCatalogSync(store CatalogStore, cache KitchenCache, logger zerolog.Logger) *CatalogSync {
	return &CatalogSync{
		store:  store,
		cache:  cache,
		logger: logger.With().Str("component", "catalog_sync").Logger(),
	}
}

// Apply syncs cfg into the store. On failure nothing is evicted: the
// transaction rolled back and cached rows still match the database.
func (c *CatalogSync) Apply(ctx context.Context, cfg *config.KitchensConfig) (db.SyncResult, error) {
	res, err := c.store.SyncKitchensFromConfig(ctx, cfg)
	if err != nil {
		return res, err
	}
	if c.cache != nil {
		for _, id := range res.Changed() {
			c.cache.Invalidate(ctx, id)
		}
	}
	if len(res.Skipped) > 0 {
		c.logger.Warn().Ints64("kitchen_ids", res.Skipped).Msg("catalog ids collide with owner-created kitchens")
	}
	return res, nil
}
