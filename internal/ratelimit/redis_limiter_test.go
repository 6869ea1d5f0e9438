package ratelimit

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaaystones/social-media-microservice/internal/domain"
)

// Test helper: check if Redis is available for testing
func setupRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available for testing (set TEST_REDIS_URL or run Redis on localhost:6379): %v", err)
		return nil
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestRedisLimiter_EleventhRequestRejected(t *testing.T) {
	client := setupRedisClient(t)

	l := NewRedisLimiter(client, RedisLimiterConfig{
		Tier: Tier{Name: "global", Points: 10, Window: time.Second},
	}, slog.Default())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		dec, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, dec.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 10-(i+1), dec.Remaining)
	}

	dec, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Greater(t, dec.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, dec.RetryAfter, time.Second)
}

func TestRedisLimiter_WindowResets(t *testing.T) {
	client := setupRedisClient(t)

	l := NewRedisLimiter(client, RedisLimiterConfig{
		Tier: Tier{Name: "global", Points: 2, Window: 200 * time.Millisecond},
	}, slog.Default())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		dec, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.True(t, dec.Allowed)
	}

	dec, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, dec.Allowed)

	assert.Eventually(t, func() bool {
		dec, err := l.Allow(ctx, "10.0.0.1")
		return err == nil && dec.Allowed
	}, 2*time.Second, 50*time.Millisecond)
}

// Tiers keep independent budgets for the same identity
func TestRedisLimiter_TiersAreIndependent(t *testing.T) {
	client := setupRedisClient(t)
	ctx := context.Background()

	global := NewRedisLimiter(client, RedisLimiterConfig{
		Tier: Tier{Name: "global", Points: 1, Window: time.Minute},
	}, slog.Default())
	sensitive := NewRedisLimiter(client, RedisLimiterConfig{
		Tier: Tier{Name: "create-post", Points: 5, Window: time.Minute},
	}, slog.Default())

	dec, err := global.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, dec.Allowed)

	dec, err = global.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, dec.Allowed, "global tier should be exhausted")

	dec, err = sensitive.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, dec.Allowed, "sensitive tier budget is independent")
}

// An unreachable counter store rejects admission (fail-closed policy)
// unless explicitly configured to fail open.
func TestRedisLimiter_StoreOutageFailsClosed(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	l := NewRedisLimiter(client, RedisLimiterConfig{
		Tier:      GlobalTier,
		OpTimeout: 200 * time.Millisecond,
	}, slog.Default())

	dec, err := l.Allow(context.Background(), "10.0.0.1")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.False(t, dec.Allowed)

	open := NewRedisLimiter(client, RedisLimiterConfig{
		Tier:      GlobalTier,
		OpTimeout: 200 * time.Millisecond,
		FailOpen:  true,
	}, slog.Default())

	dec, err = open.Allow(context.Background(), "10.0.0.1")
	assert.NoError(t, err)
	assert.True(t, dec.Allowed)
}
