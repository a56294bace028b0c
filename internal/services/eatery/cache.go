package eatery

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"chow-down/internal/chow"
	"chow-down/internal/logger"
)

const (
	cacheKeyPrefix = "eatery:"
	cacheTTL       = 10 * time.Minute
)

// Cache is a read-through Redis cache for eatery details.  Cache
// failures are never surfaced to callers: a broken cache degrades to
// database reads.
type Cache struct {
	client *redis.Client
	logger *logger.Logger
}

// NewCache creates an eatery cache over the given Redis client.
func NewCache(client *redis.Client, log *logger.Logger) *Cache {
	return &Cache{
		client: client,
		logger: log,
	}
}

// Get returns the cached eatery for id, if present.
func (c *Cache) Get(ctx context.Context, eateryID string) (*chow.Eatery, bool) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+eateryID).Bytes()
	if err != nil {
		return nil, false
	}
	eatery := &chow.Eatery{}
	if err := json.Unmarshal(data, eatery); err != nil {
		return nil, false
	}
	return eatery, true
}

// Put caches an eatery with the standard TTL.
func (c *Cache) Put(ctx context.Context, eatery *chow.Eatery) {
	data, err := json.Marshal(eatery)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+eatery.ID, data, cacheTTL).Err(); err != nil {
		c.logger.Error("cache_set_failed", "Failed to cache eatery", "", err, map[string]interface{}{
			"eatery_id": eatery.ID,
		})
	}
}

// InvalidateAll removes every cached eatery.  Called after a bulk load
// replaces the eatery set.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
