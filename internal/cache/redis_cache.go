package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jaaystones/social-media-microservice/internal/domain"
)

// RedisCache implements QueryCache on a shared Redis instance so every
// service process sees the same entries and the same invalidations.
type RedisCache struct {
	client     *redis.Client
	logger     *slog.Logger
	opTimeout  time.Duration
	defaultTTL time.Duration
}

// RedisCacheConfig configuration for the Redis cache
type RedisCacheConfig struct {
	RedisURL   string
	OpTimeout  time.Duration
	DefaultTTL time.Duration
	PoolSize   int
}

// NewRedisCache creates a Redis-backed query cache and verifies the
// connection with a bounded ping.
func NewRedisCache(config RedisCacheConfig, logger *slog.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.OpTimeout == 0 {
		config.OpTimeout = 2 * time.Second
	}
	if config.DefaultTTL == 0 {
		config.DefaultTTL = DefaultTTL
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.PoolSize = config.PoolSize

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	return &RedisCache{
		client:     client,
		logger:     logger.With("component", "redis_cache"),
		opTimeout:  config.OpTimeout,
		defaultTTL: config.DefaultTTL,
	}, nil
}

// Get returns the cached value, treating any backend failure as a miss
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	val, err := c.client.Get(opCtx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		// Cache outage degrades to a miss; the caller falls through to
		// the authoritative source.
		c.logger.Warn("Cache read failed, treating as miss", "key", key, "error", err)
		return nil, false, nil
	}

	return val, true, nil
}

// Set stores the value with the given TTL (DefaultTTL when ttl <= 0)
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Set(opCtx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", "key", key, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Invalidate removes a single entry; absent keys are a no-op
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Del(opCtx, key).Err(); err != nil {
		c.logger.Warn("Cache invalidation failed", "key", key, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// InvalidateByPrefix removes every key under prefix using SCAN so the
// sweep does not block Redis the way KEYS would.
func (c *RedisCache) InvalidateByPrefix(ctx context.Context, prefix string) error {
	opCtx, cancel := context.WithTimeout(ctx, 4*c.opTimeout)
	defer cancel()

	var removed int
	iter := c.client.Scan(opCtx, 0, prefix+"*", 100).Iterator()
	for iter.Next(opCtx) {
		if err := c.client.Del(opCtx, iter.Val()).Err(); err != nil {
			c.logger.Warn("Cache sweep delete failed", "key", iter.Val(), "error", err)
			return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Cache sweep scan failed", "prefix", prefix, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	c.logger.Debug("Cache prefix sweep completed", "prefix", prefix, "removed", removed)
	return nil
}

// InvalidateAll removes every cache entry the services share
func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	for _, prefix := range []string{SearchPrefix, PostPrefix, PostListPrefix} {
		if err := c.InvalidateByPrefix(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
