// Package ratelimit provides admission control in front of every inbound
// request: a coarse global budget per identity plus a stricter budget for
// designated sensitive endpoints, both backed by a shared counter store.
package ratelimit

import (
	"context"
	"time"
)

// Tier describes one admission budget: Points admissions per Window for
// each identity. Two independent budgets may exist for the same identity
// (global tier, sensitive tier); both must pass for admission.
type Tier struct {
	Name   string
	Points int
	Window time.Duration
}

// Default tiers, matching the budgets the services deploy with.
var (
	// GlobalTier is coarse burst protection applied to every request.
	GlobalTier = Tier{Name: "global", Points: 10, Window: time.Second}

	// CreatePostTier protects post creation.
	CreatePostTier = Tier{Name: "create-post", Points: 10, Window: 15 * time.Minute}

	// SearchTier protects the search endpoint.
	SearchTier = Tier{Name: "search", Points: 50, Window: 30 * time.Minute}
)

// Decision is the outcome of one admission check
type Decision struct {
	// Allowed reports whether the request is admitted
	Allowed bool

	// Remaining is the number of admissions left in the current window
	Remaining int

	// RetryAfter is how long until the window resets; only meaningful
	// when the request was rejected
	RetryAfter time.Duration
}

// Limiter decides whether one request from identity is admitted under a
// single tier. Checks and decrements must be atomic across concurrent
// requests sharing the same backing counter, including requests landing
// on different service processes.
type Limiter interface {
	Allow(ctx context.Context, identity string) (Decision, error)
}
