package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jaaystones/social-media-microservice/internal/domain"
)

// consumeScript atomically increments the window counter, arms the window
// expiry on first consumption and reports the time left in the window.
// Running it as one script keeps check-and-decrement atomic across every
// service process sharing the counter store.
var consumeScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisLimiter implements Limiter as a fixed-window counter per
// (tier, identity) pair in a shared Redis instance.
type RedisLimiter struct {
	client    *redis.Client
	logger    *slog.Logger
	tier      Tier
	keyPrefix string
	opTimeout time.Duration

	// failOpen admits requests when the counter store is unreachable.
	// Default is fail-closed: an unreachable store rejects, protecting
	// the backing stores the limiter exists to shield.
	failOpen bool
}

// RedisLimiterConfig configuration for the Redis limiter
type RedisLimiterConfig struct {
	Tier      Tier
	KeyPrefix string
	OpTimeout time.Duration
	FailOpen  bool
}

// NewRedisLimiter creates a limiter for one tier on an existing Redis client
func NewRedisLimiter(client *redis.Client, config RedisLimiterConfig, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "ratelimit"
	}
	if config.OpTimeout == 0 {
		config.OpTimeout = 2 * time.Second
	}
	if config.Tier.Points <= 0 {
		config.Tier = GlobalTier
	}

	return &RedisLimiter{
		client:    client,
		logger:    logger.With("component", "redis_limiter", "tier", config.Tier.Name),
		tier:      config.Tier,
		keyPrefix: config.KeyPrefix,
		opTimeout: config.OpTimeout,
		failOpen:  config.FailOpen,
	}
}

// Allow atomically consumes one point from the identity's window budget
func (l *RedisLimiter) Allow(ctx context.Context, identity string) (Decision, error) {
	key := fmt.Sprintf("%s:%s:%s", l.keyPrefix, l.tier.Name, identity)

	opCtx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	res, err := consumeScript.Run(opCtx, l.client, []string{key}, l.tier.Window.Milliseconds()).Slice()
	if err != nil {
		l.logger.Warn("Counter store unavailable",
			"identity", identity,
			"fail_open", l.failOpen,
			"error", err,
		)
		if l.failOpen {
			return Decision{Allowed: true, Remaining: l.tier.Points}, nil
		}
		return Decision{Allowed: false, RetryAfter: l.tier.Window},
			fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	if len(res) != 2 {
		return Decision{Allowed: false, RetryAfter: l.tier.Window},
			fmt.Errorf("%w: unexpected script reply", domain.ErrStoreUnavailable)
	}

	current := res[0].(int64)
	ttlMs := res[1].(int64)

	resetIn := time.Duration(ttlMs) * time.Millisecond
	if ttlMs < 0 {
		resetIn = l.tier.Window
	}

	if current > int64(l.tier.Points) {
		l.logger.Warn("Rate limit exceeded",
			"identity", identity,
			"count", current,
			"points", l.tier.Points,
		)
		return Decision{Allowed: false, Remaining: 0, RetryAfter: resetIn}, nil
	}

	return Decision{
		Allowed:   true,
		Remaining: l.tier.Points - int(current),
	}, nil
}

// Tier returns the tier this limiter enforces
func (l *RedisLimiter) Tier() Tier {
	return l.tier
}
