package eventbus

import "context"

// HandlerFunc processes a single delivered event.
// Returning an error negatively acknowledges the event and the bus
// redelivers it, so handlers must be idempotent.
type HandlerFunc func(ctx context.Context, e *Event) error

// EventBus defines the interface for publishing and consuming domain
// events across service boundaries.
// This abstraction allows swapping implementations (in-memory, Redis, ...)
// and substituting fakes in tests.
type EventBus interface {
	// Publish routes an event to every queue bound under a matching
	// pattern. Publishing to a routing key with no bound queue drops the
	// event; delivery confirmation is not awaited.
	Publish(ctx context.Context, e *Event) error

	// PublishAsync publishes without ever propagating a failure to the
	// caller. Errors are logged; a user-facing operation must not block
	// or fail because the broker is down.
	PublishAsync(e *Event)

	// Subscribe declares a durable queue, binds it under the routing
	// pattern and registers the handler. Handler invocations are strictly
	// serial per queue to preserve relative event ordering; separate
	// subscriptions run concurrently. Delivery is at-least-once.
	Subscribe(ctx context.Context, pattern, queue string, handler HandlerFunc) error

	// Start begins consuming. Must be called before events are delivered.
	Start(ctx context.Context) error

	// Stop gracefully stops consumption, waiting for in-flight handlers.
	Stop() error

	// Close releases all resources. Should be called after Stop.
	Close() error

	// Stats returns bus counters (for monitoring)
	Stats() BusStats
}

// BusStats represents statistics about the bus
type BusStats struct {
	// TotalPublished is the total number of events published
	TotalPublished int64

	// TotalDelivered is the total number of events delivered to handlers
	TotalDelivered int64

	// TotalErrors is the total number of handler or transport errors
	TotalErrors int64

	// TotalDeadLettered is the number of events parked after exhausting retries
	TotalDeadLettered int64

	// ActiveSubscriptions is the current number of bound queues
	ActiveSubscriptions int
}

// ConnState models the transport connection lifecycle.
// Reconnection is a transition triggered by a detected failure, not a
// side effect buried inside a publish call.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateReady
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	default:
		return "disconnected"
	}
}
