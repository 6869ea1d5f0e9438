package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter implements Limiter with an in-process token bucket per
// identity (x/time/rate) and periodic cleanup of idle identities. It has
// no cross-process view, so it serves tests and single-process
// deployments; distributed deployments use RedisLimiter.
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry

	tier         Tier
	limit        rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type localEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// LocalLimiterOption customizes a LocalLimiter
type LocalLimiterOption func(*LocalLimiter)

// WithIdleTTL sets how long an idle identity is kept before cleanup
func WithIdleTTL(d time.Duration) LocalLimiterOption {
	return func(l *LocalLimiter) { l.idleTTL = d }
}

// WithCleanupEvery sets the janitor interval
func WithCleanupEvery(d time.Duration) LocalLimiterOption {
	return func(l *LocalLimiter) { l.cleanupEvery = d }
}

// NewLocalLimiter creates an in-process limiter for one tier
func NewLocalLimiter(tier Tier, opts ...LocalLimiterOption) *LocalLimiter {
	if tier.Points <= 0 {
		tier = GlobalTier
	}

	l := &LocalLimiter{
		entries:      make(map[string]*localEntry),
		tier:         tier,
		limit:        rate.Every(tier.Window / time.Duration(tier.Points)),
		burst:        tier.Points,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow consumes one token from the identity's bucket
func (l *LocalLimiter) Allow(ctx context.Context, identity string) (Decision, error) {
	lim := l.get(identity)

	if lim.Allow() {
		return Decision{
			Allowed:   true,
			Remaining: int(lim.Tokens()),
		}, nil
	}

	// Probe how long until a token frees up, without consuming it.
	res := lim.Reserve()
	retryAfter := res.Delay()
	res.Cancel()

	return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
}

func (l *LocalLimiter) get(identity string) *rate.Limiter {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if ent, ok := l.entries[identity]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(l.limit, l.burst)
	l.entries[identity] = &localEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup removes identities idle longer than the idle TTL
func (l *LocalLimiter) Cleanup() {
	cutoff := time.Now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for identity, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, identity)
		}
	}
}

// StartJanitor launches a goroutine that periodically cleans idle
// identities. Stop it by cancelling the context.
func (l *LocalLimiter) StartJanitor(ctx context.Context) {
	if l.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(l.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Cleanup()
			}
		}
	}()
}

// Tier returns the tier this limiter enforces
func (l *LocalLimiter) Tier() Tier {
	return l.tier
}
