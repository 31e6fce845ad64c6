package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"shakespeare-rag-api/pkg/logger"
)

// RateLimiter implements a sliding-window limiter on a Redis sorted
// set per key. On Redis failure it fails open: a broken limiter must
// not take the API down.
type RateLimiter struct {
	client *Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(client *Client, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow records one request for key and reports whether it is within
// the limit.
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l.limit <= 0 {
		return true
	}

	now := time.Now()
	windowStart := now.Add(-l.window)
	redisKey := "ratelimit:" + key

	pipe := l.client.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	count := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, redisKey, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn(ctx, "rate limiter unavailable, allowing request", "error", err.Error())
		return true
	}
	return count.Val() < int64(l.limit)
}
