package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"shakespeare-rag-api/pkg/logger"
)

// Cache is a read-through cache for serialized payloads. Concurrent
// misses for the same key collapse into a single load. Redis failures
// degrade to the loader and never fail the caller.
type Cache struct {
	client *Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache creates a Cache.
func NewCache(client *Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// GetOrLoad returns the cached payload for key, loading and caching it
// on a miss. An error from the loader is returned as-is.
func (c *Cache) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if cached, ok := c.get(ctx, key); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have filled
		// the key while we waited.
		if cached, ok := c.get(ctx, key); ok {
			return cached, nil
		}
		data, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Delete drops cached keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.rdb.Del(ctx, keys...).Err()
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn(ctx, "cache read failed", "key", key, "error", err.Error())
		}
		return nil, false
	}
	return data, true
}

func (c *Cache) set(ctx context.Context, key string, data []byte) {
	if err := c.client.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Warn(ctx, "cache write failed", "key", key, "error", err.Error())
	}
}
