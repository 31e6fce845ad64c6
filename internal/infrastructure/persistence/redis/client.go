// Package redis provides the cache and rate-limiter backends.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"shakespeare-rag-api/internal/config"
)

// Client wraps the Redis connection.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Redis exposes the underlying client.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close shuts down the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck verifies the server responds.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
