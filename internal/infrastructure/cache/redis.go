// Package cache wraps the Redis client used for short-lived read caches.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edugate/monitoring-core/internal/infrastructure/config"
	"github.com/go-redis/redis/v8"
)

// ErrDisabled is returned by Connect when redis.enabled is false.
var ErrDisabled = errors.New("cache: redis disabled")

const connectTimeout = 5 * time.Second

// Client wraps a go-redis client.
type Client struct {
	*redis.Client
}

// Connect creates a client and verifies the server answers PING.
func Connect(cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	c := &Client{Client: rdb}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := c.HealthCheck(ctx); err != nil {
		rdb.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}
	return c, nil
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	if err := c.Client.Close(); err != nil {
		return fmt.Errorf("closing redis: %w", err)
	}
	return nil
}
