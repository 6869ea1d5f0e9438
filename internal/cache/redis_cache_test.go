package cache

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: check if Redis is available for testing
func setupRedisCache(t *testing.T) *RedisCache {
	t.Helper()

	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	c, err := NewRedisCache(RedisCacheConfig{RedisURL: redisURL}, slog.Default())
	if err != nil {
		t.Skipf("Redis not available for testing (set TEST_REDIS_URL or run Redis on localhost:6379): %v", err)
		return nil
	}

	t.Cleanup(func() {
		c.client.FlushDB(context.Background())
		c.Close()
	})

	return c
}

func TestRedisCache_SetGetInvalidate(t *testing.T) {
	c := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "search:hello", []byte(`["r1"]`), time.Minute))

	val, ok, err := c.Get(ctx, "search:hello")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`["r1"]`), val)

	require.NoError(t, c.Invalidate(ctx, "search:hello"))

	_, ok, err = c.Get(ctx, "search:hello")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_PrefixSweep(t *testing.T) {
	c := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "search:hello", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "search:world", []byte("b"), time.Minute))
	require.NoError(t, c.Set(ctx, "posts:1:10", []byte("c"), time.Minute))

	require.NoError(t, c.InvalidateByPrefix(ctx, SearchPrefix))

	_, ok, _ := c.Get(ctx, "search:hello")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "search:world")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "posts:1:10")
	assert.True(t, ok)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	c := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "search:short", []byte("v"), 100*time.Millisecond))

	_, ok, _ := c.Get(ctx, "search:short")
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok, _ := c.Get(ctx, "search:short")
		return !ok
	}, 2*time.Second, 50*time.Millisecond)
}
