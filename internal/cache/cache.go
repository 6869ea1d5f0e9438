// Package cache provides the query-result cache sitting in front of the
// primary datastore. Entries carry a bounded TTL and are explicitly
// invalidated by event handlers; absence is always a valid miss, never an
// error.
package cache

import (
	"context"
	"time"
)

// DefaultTTL bounds staleness after a missed or delayed invalidation
// event without requiring perfect event delivery.
const DefaultTTL = 300 * time.Second

// QueryCache defines the interface for the keyed query-result cache.
// This abstraction allows swapping implementations (in-memory, Redis)
// and substituting fakes in tests.
type QueryCache interface {
	// Get returns the cached value for key, or ok=false on miss or
	// expiry. Backend failures degrade to a miss so callers fall through
	// to the authoritative source; they never fail the request.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key with an absolute expiry of now+ttl,
	// overwriting any existing entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes a specific entry; no-op if absent.
	Invalidate(ctx context.Context, key string) error

	// InvalidateByPrefix removes every entry whose key starts with
	// prefix. Used by broad sweeps after mutation events; O(live keys).
	InvalidateByPrefix(ctx context.Context, prefix string) error

	// InvalidateAll removes every entry.
	InvalidateAll(ctx context.Context) error
}
