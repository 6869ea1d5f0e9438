package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// InMemoryBus implements EventBus using Go channels. It mirrors the
// exchange semantics of the Redis bus (pattern bindings, per-queue serial
// delivery, bounded retry) inside one process, and is the substitute
// implementation used by tests and single-process runs.
type InMemoryBus struct {
	// bindings maps queue name to its subscription
	bindings   map[string]*memorySubscription
	bindingsMu sync.RWMutex

	logger     *slog.Logger
	bufferSize int
	maxRetries int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	running atomic.Bool
	closed  atomic.Bool

	totalPublished    atomic.Int64
	totalDelivered    atomic.Int64
	totalErrors       atomic.Int64
	totalDeadLettered atomic.Int64
}

type memorySubscription struct {
	pattern string
	queue   string
	handler HandlerFunc
	// events buffers deliveries for this queue; a single consumer
	// goroutine drains it so handler calls stay serial per queue
	events  chan *delivery
	started bool
}

// InMemoryBusConfig holds configuration for the in-memory bus
type InMemoryBusConfig struct {
	BufferSize int // Per-queue event buffer size
	MaxRetries int // Deliveries before an event is dropped as dead
}

// DefaultInMemoryBusConfig returns default configuration
func DefaultInMemoryBusConfig() InMemoryBusConfig {
	return InMemoryBusConfig{
		BufferSize: 1000,
		MaxRetries: 3,
	}
}

// NewInMemoryBus creates a new in-memory event bus
func NewInMemoryBus(config InMemoryBusConfig, logger *slog.Logger) *InMemoryBus {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}

	return &InMemoryBus{
		bindings:   make(map[string]*memorySubscription),
		logger:     logger.With("component", "inmemory_bus"),
		bufferSize: config.BufferSize,
		maxRetries: config.MaxRetries,
	}
}

// Start launches a consumer goroutine per bound queue. Queues bound after
// Start get their consumer immediately.
func (b *InMemoryBus) Start(ctx context.Context) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	if b.running.Swap(true) {
		return fmt.Errorf("bus is already running")
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())

	b.bindingsMu.Lock()
	for _, sub := range b.bindings {
		b.startConsumer(sub)
	}
	b.bindingsMu.Unlock()

	b.logger.Info("In-memory bus started", "buffer_size", b.bufferSize)

	return nil
}

// Publish routes the event to every queue bound under a matching pattern.
// Events with no matching binding are dropped.
func (b *InMemoryBus) Publish(ctx context.Context, e *Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	if e.ID == "" {
		e.ID = newEventID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	b.bindingsMu.RLock()
	var targets []*memorySubscription
	for _, sub := range b.bindings {
		if MatchPattern(sub.pattern, e.RoutingKey) {
			targets = append(targets, sub)
		}
	}
	b.bindingsMu.RUnlock()

	if len(targets) == 0 {
		b.logger.Debug("No queue bound for routing key, event dropped",
			"routing_key", e.RoutingKey,
			"event_id", e.ID,
		)
		return nil
	}

	for _, sub := range targets {
		select {
		case sub.events <- &delivery{Event: e}:
		case <-ctx.Done():
			return fmt.Errorf("publish cancelled: %w", ctx.Err())
		}
	}

	b.totalPublished.Add(1)
	return nil
}

// PublishAsync publishes without surfacing failures to the caller
func (b *InMemoryBus) PublishAsync(e *Event) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := b.Publish(ctx, e); err != nil {
			b.logger.Error("Async publish failed",
				"routing_key", e.RoutingKey,
				"event_id", e.ID,
				"error", err,
			)
		}
	}()
}

// Subscribe binds a queue under the pattern and registers the handler.
// Events published after the binding exists are buffered even if Start
// has not been called yet.
func (b *InMemoryBus) Subscribe(ctx context.Context, pattern, queue string, handler HandlerFunc) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	if pattern == "" || queue == "" || handler == nil {
		return fmt.Errorf("pattern, queue and handler are required")
	}

	b.bindingsMu.Lock()
	defer b.bindingsMu.Unlock()

	if _, exists := b.bindings[queue]; exists {
		return fmt.Errorf("already subscribed with queue: %s", queue)
	}

	sub := &memorySubscription{
		pattern: pattern,
		queue:   queue,
		handler: handler,
		events:  make(chan *delivery, b.bufferSize),
	}
	b.bindings[queue] = sub

	if b.running.Load() {
		b.startConsumer(sub)
	}

	b.logger.Info("Queue bound", "queue", queue, "pattern", pattern)

	return nil
}

// startConsumer launches the single serial consumer for a queue.
// Caller must hold bindingsMu.
func (b *InMemoryBus) startConsumer(sub *memorySubscription) {
	if sub.started {
		return
	}
	sub.started = true

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		for {
			select {
			case <-b.ctx.Done():
				return
			case d := <-sub.events:
				b.deliver(sub, d)
			}
		}
	}()
}

// deliver invokes the handler, redelivering on failure up to maxRetries
func (b *InMemoryBus) deliver(sub *memorySubscription, d *delivery) {
	b.totalDelivered.Add(1)

	err := sub.handler(b.ctx, d.Event)
	if err == nil {
		return
	}

	b.totalErrors.Add(1)
	b.logger.Error("Handler failed",
		"queue", sub.queue,
		"routing_key", d.Event.RoutingKey,
		"event_id", d.Event.ID,
		"deliveries", d.Deliveries+1,
		"error", err,
	)

	if d.Deliveries+1 >= b.maxRetries {
		b.totalDeadLettered.Add(1)
		b.logger.Warn("Event dropped after max retries",
			"queue", sub.queue,
			"event_id", d.Event.ID,
		)
		return
	}

	select {
	case sub.events <- &delivery{Deliveries: d.Deliveries + 1, Event: d.Event}:
	default:
		b.logger.Warn("Requeue dropped, queue buffer full",
			"queue", sub.queue,
			"event_id", d.Event.ID,
		)
	}
}

// Unsubscribe removes the binding for a queue
func (b *InMemoryBus) Unsubscribe(queue string) error {
	b.bindingsMu.Lock()
	defer b.bindingsMu.Unlock()

	delete(b.bindings, queue)

	b.logger.Info("Queue unbound", "queue", queue)
	return nil
}

// Stop gracefully stops the bus, waiting for in-flight handlers
func (b *InMemoryBus) Stop() error {
	if !b.running.Load() {
		return nil
	}

	b.logger.Info("Stopping in-memory bus")

	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()

	b.running.Store(false)

	b.logger.Info("In-memory bus stopped",
		"total_published", b.totalPublished.Load(),
		"total_delivered", b.totalDelivered.Load(),
		"total_errors", b.totalErrors.Load(),
	)

	return nil
}

// Close releases all resources
func (b *InMemoryBus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.Stop()
}

// Stats returns current bus statistics
func (b *InMemoryBus) Stats() BusStats {
	b.bindingsMu.RLock()
	active := len(b.bindings)
	b.bindingsMu.RUnlock()

	return BusStats{
		TotalPublished:      b.totalPublished.Load(),
		TotalDelivered:      b.totalDelivered.Load(),
		TotalErrors:         b.totalErrors.Load(),
		TotalDeadLettered:   b.totalDeadLettered.Load(),
		ActiveSubscriptions: active,
	}
}
