package settings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/edugate/monitoring-core/internal/infrastructure/logging"
	"github.com/go-redis/redis/v8"
)

const (
	// CacheKey is the redis key holding the encoded settings snapshot.
	CacheKey = "monitoring:settings:v1"

	// GenerationKey is bumped by every write. A miss only fills CacheKey
	// when the generation did not move while the row was being loaded.
	GenerationKey = "monitoring:settings:gen"
)

// RedisClient is the part of a go-redis client the cache needs.
// *redis.Client and *cache.Client both satisfy it.
type RedisClient interface {
	redis.Cmdable
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
}

// CachedRepository serves Get from redis and falls through to the wrapped
// repository on a miss. Writes go to the wrapped repository first, then bump
// GenerationKey and drop the cached copy in one MULTI block. Redis failures
// only cost a database read.
type CachedRepository struct {
	next   Repository
	rdb    RedisClient
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedRepository wraps next with a redis cache.
func NewCachedRepository(next Repository, rdb RedisClient, ttl time.Duration, logger *logging.Logger) *CachedRepository {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CachedRepository{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// Get returns the cached snapshot or loads a fresh one. The fresh snapshot
// is cached only if no write landed between WATCH and EXEC, so a reader that
// loaded the row just before an Update cannot put the old row back.
func (c *CachedRepository) Get(ctx context.Context) (MonitoringSettings, error) {
	if s, ok := c.cached(ctx); ok {
		return s, nil
	}

	var (
		s       MonitoringSettings
		loadErr error
		loaded  bool
	)
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		s, loadErr = c.next.Get(ctx)
		if loadErr != nil {
			return loadErr
		}
		loaded = true

		encoded, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, CacheKey, encoded, c.ttl)
			return nil
		})
		return err
	}, GenerationKey)

	switch {
	case loadErr != nil:
		return MonitoringSettings{}, loadErr
	case !loaded:
		// WATCH itself failed; redis is unreachable.
		c.logger.Warn("settings cache unavailable", "error", err)
		return c.next.Get(ctx)
	case errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("settings changed while loading, snapshot not cached")
	case err != nil:
		c.logger.Warn("settings cache write failed", "error", err)
	}
	return s, nil
}

func (c *CachedRepository) cached(ctx context.Context) (MonitoringSettings, bool) {
	data, err := c.rdb.Get(ctx, CacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("settings cache read failed", "error", err)
		}
		return MonitoringSettings{}, false
	}

	var s MonitoringSettings
	if err := json.Unmarshal(data, &s); err != nil {
		c.logger.Warn("discarding undecodable settings cache entry")
		return MonitoringSettings{}, false
	}
	return s, true
}

// Update writes through and invalidates the cached snapshot.
func (c *CachedRepository) Update(ctx context.Context, s MonitoringSettings) (MonitoringSettings, error) {
	stored, err := c.next.Update(ctx, s)
	if err != nil {
		return MonitoringSettings{}, err
	}
	c.invalidate(ctx)
	return stored, nil
}

// Bootstrap delegates and invalidates the cached snapshot.
func (c *CachedRepository) Bootstrap(ctx context.Context) error {
	if err := c.next.Bootstrap(ctx); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedRepository) invalidate(ctx context.Context) {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey)
		pipe.Del(ctx, CacheKey)
		return nil
	})
	if err != nil {
		c.logger.Warn("settings cache invalidation failed", "error", err)
	}
}
