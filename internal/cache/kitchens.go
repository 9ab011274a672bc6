// Package cache provides a Redis read-through cache for kitchen listings.
// Booking data is never cached: conflict checks need authoritative reads.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"kitchenhub/internal/model"
)

// KitchenStore is the authoritative kitchen source.
type KitchenStore interface {
	GetKitchen(ctx context.Context, id int64) (*model.Kitchen, error)
}

// KitchenCache serves GetKitchen from Redis when possible.
type KitchenCache struct {
	store  KitchenStore
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewKitchenCache wraps store. A nil client disables caching.
func NewKitchenCache(store KitchenStore, redisClient *redis.Client, ttl time.Duration, logger zerolog.Logger) *KitchenCache {
	return &KitchenCache{
		store:  store,
		redis:  redisClient,
		ttl:    ttl,
		logger: logger.With().Str("component", "kitchen_cache").Logger(),
	}
}

func kitchenKey(id int64) string {
	return fmt.Sprintf("kitchen:%d", id)
}

// GetKitchen returns the cached kitchen or loads it from the store.
func (c *KitchenCache) GetKitchen(ctx context.Context, id int64) (*model.Kitchen, error) {
	key := kitchenKey(id)
	var k model.Kitchen
	if c.readCache(ctx, key, &k) {
		return &k, nil
	}

	loaded, err := c.store.GetKitchen(ctx, id)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, loaded)
	return loaded, nil
}

// Invalidate drops a kitchen from the cache.
func (c *KitchenCache) Invalidate(ctx context.Context, id int64) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, kitchenKey(id)).Err(); err != nil {
		c.logger.Warn().Err(err).Int64("kitchen_id", id).Msg("cache invalidate failed")
	}
}

func (c *KitchenCache) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.ttl <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *KitchenCache) writeCache(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}
