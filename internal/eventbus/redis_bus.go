package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jaaystones/social-media-microservice/internal/domain"
)

var (
	ErrBusClosed     = domain.ErrBusClosed
	ErrBusConnection = fmt.Errorf("%w: event bus broker unreachable", domain.ErrConnection)
)

// RedisBus implements EventBus as a topic exchange on Redis.
// A hash holds the queue bindings (queue name -> routing pattern), each
// durable queue is a Redis list that survives broker restarts and buffers
// events for disconnected consumers, and a sorted set per queue tracks
// in-flight deliveries by visibility deadline for at-least-once redelivery.
type RedisBus struct {
	client            *redis.Client
	logger            *slog.Logger
	exchange          string
	consumerID        string
	visibilityTimeout time.Duration
	maxRetries        int
	connectTimeout    time.Duration

	state atomic.Int32

	subscriptions map[string]*redisSubscription
	subMu         sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	totalPublished    atomic.Int64
	totalDelivered    atomic.Int64
	totalErrors       atomic.Int64
	totalDeadLettered atomic.Int64

	closed atomic.Bool
}

type redisSubscription struct {
	pattern  string
	queue    string
	handler  HandlerFunc
	cancel   context.CancelFunc
	doneChan chan struct{}
}

// RedisBusConfig configuration for the Redis-backed bus
type RedisBusConfig struct {
	RedisURL          string
	Exchange          string
	ConsumerID        string
	VisibilityTimeout time.Duration
	MaxRetries        int
	ConnectTimeout    time.Duration
	PoolSize          int
}

// NewRedisBus creates a new Redis-backed event bus and verifies the
// broker connection. Startup must fail fast rather than hang, so the
// initial ping is bounded by ConnectTimeout.
func NewRedisBus(config RedisBusConfig, logger *slog.Logger) (*RedisBus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.Exchange == "" {
		config.Exchange = "social-media-service"
	}

	if config.VisibilityTimeout == 0 {
		config.VisibilityTimeout = 5 * time.Minute
	}

	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}

	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 5 * time.Second
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

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBusConnection, err)
	}

	busCtx, busCancel := context.WithCancel(context.Background())

	b := &RedisBus{
		client:            client,
		logger:            logger.With("component", "redis_bus"),
		exchange:          config.Exchange,
		consumerID:        config.ConsumerID,
		visibilityTimeout: config.VisibilityTimeout,
		maxRetries:        config.MaxRetries,
		connectTimeout:    config.ConnectTimeout,
		subscriptions:     make(map[string]*redisSubscription),
		ctx:               busCtx,
		cancel:            busCancel,
	}
	b.state.Store(int32(StateReady))

	b.logger.Info("Event bus connected",
		"exchange", config.Exchange,
		"consumer_id", config.ConsumerID,
		"visibility_timeout", config.VisibilityTimeout,
		"max_retries", config.MaxRetries,
	)

	return b, nil
}

// State returns the current connection state
func (b *RedisBus) State() ConnState {
	return ConnState(b.state.Load())
}

// Redis key layout
func (b *RedisBus) bindingsKey() string {
	return fmt.Sprintf("%s:bindings", b.exchange)
}

func (b *RedisBus) queueKey(queue string) string {
	return fmt.Sprintf("%s:queue:%s", b.exchange, queue)
}

func (b *RedisBus) processingKey(queue string) string {
	return fmt.Sprintf("%s:processing:%s:%s", b.exchange, queue, b.consumerID)
}

func (b *RedisBus) pendingKey(queue string) string {
	return fmt.Sprintf("%s:pending:%s", b.exchange, queue)
}

func (b *RedisBus) deadLetterKey(queue string) string {
	return fmt.Sprintf("%s:dead:%s", b.exchange, queue)
}

// ensureReady drives the Disconnected -> Connecting -> Ready transition.
// Called before any transport operation once a failure has been detected.
func (b *RedisBus) ensureReady(ctx context.Context) error {
	if ConnState(b.state.Load()) == StateReady {
		return nil
	}

	// Only one caller performs the transition; others fail fast and retry
	// on their next operation.
	if !b.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		if ConnState(b.state.Load()) == StateReady {
			return nil
		}
		return ErrBusConnection
	}

	b.logger.Info("Reconnecting to broker", "exchange", b.exchange)

	pingCtx, cancel := context.WithTimeout(ctx, b.connectTimeout)
	defer cancel()

	if err := b.client.Ping(pingCtx).Err(); err != nil {
		b.state.Store(int32(StateDisconnected))
		return fmt.Errorf("%w: %v", ErrBusConnection, err)
	}

	// Re-assert this consumer's bindings; the stale channel may have died
	// before a declaration landed.
	b.subMu.RLock()
	subs := make([]*redisSubscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		subs = append(subs, sub)
	}
	b.subMu.RUnlock()

	for _, sub := range subs {
		if err := b.client.HSet(pingCtx, b.bindingsKey(), sub.queue, sub.pattern).Err(); err != nil {
			b.state.Store(int32(StateDisconnected))
			return fmt.Errorf("%w: %v", ErrBusConnection, err)
		}
	}

	b.state.Store(int32(StateReady))
	b.logger.Info("Broker connection restored", "exchange", b.exchange)

	return nil
}

// markDisconnected records a detected transport failure
func (b *RedisBus) markDisconnected(err error) {
	if b.state.CompareAndSwap(int32(StateReady), int32(StateDisconnected)) {
		b.logger.Warn("Broker connection lost", "error", err)
	}
}

// Publish routes an event to every bound queue whose pattern matches the
// routing key. Events published while no matching queue is bound are lost;
// durable queues declared beforehand buffer events for absent consumers.
func (b *RedisBus) Publish(ctx context.Context, e *Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	if err := b.ensureReady(ctx); err != nil {
		return err
	}

	if e.ID == "" {
		e.ID = newEventID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(delivery{Deliveries: 0, Event: e})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	bindings, err := b.client.HGetAll(ctx, b.bindingsKey()).Result()
	if err != nil {
		b.markDisconnected(err)
		b.totalErrors.Add(1)
		return fmt.Errorf("failed to read bindings: %w", err)
	}

	matched := 0
	for queue, pattern := range bindings {
		if !MatchPattern(pattern, e.RoutingKey) {
			continue
		}
		if err := b.client.LPush(ctx, b.queueKey(queue), data).Err(); err != nil {
			b.markDisconnected(err)
			b.totalErrors.Add(1)
			return fmt.Errorf("failed to push event to queue %s: %w", queue, err)
		}
		matched++
	}

	if matched == 0 {
		b.logger.Debug("No queue bound for routing key, event dropped",
			"routing_key", e.RoutingKey,
			"event_id", e.ID,
		)
		return nil
	}

	b.totalPublished.Add(1)
	b.logger.Debug("Event published",
		"routing_key", e.RoutingKey,
		"event_id", e.ID,
		"queues", matched,
	)

	return nil
}

// PublishAsync publishes without surfacing failures to the caller.
// The request path must never block on or fail because of the broker.
func (b *RedisBus) PublishAsync(e *Event) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ctx, cancel := context.WithTimeout(b.ctx, b.connectTimeout)
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

// Subscribe declares the durable queue, binds it under the pattern and
// starts a single consumer goroutine. One consumer per queue keeps handler
// invocations serial, preserving relative ordering of events on that queue.
func (b *RedisBus) Subscribe(ctx context.Context, pattern, queue string, handler HandlerFunc) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	if pattern == "" || queue == "" || handler == nil {
		return fmt.Errorf("%w: pattern, queue and handler are required", domain.ErrInvalidInput)
	}

	b.subMu.Lock()
	if _, exists := b.subscriptions[queue]; exists {
		b.subMu.Unlock()
		return fmt.Errorf("already subscribed with queue: %s", queue)
	}
	b.subMu.Unlock()

	// Durable declaration: the binding persists in Redis across restarts,
	// so events published while this consumer is down are buffered.
	if err := b.client.HSet(ctx, b.bindingsKey(), queue, pattern).Err(); err != nil {
		b.markDisconnected(err)
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}

	subCtx, subCancel := context.WithCancel(b.ctx)

	sub := &redisSubscription{
		pattern:  pattern,
		queue:    queue,
		handler:  handler,
		cancel:   subCancel,
		doneChan: make(chan struct{}),
	}

	b.subMu.Lock()
	b.subscriptions[queue] = sub
	b.subMu.Unlock()

	b.logger.Info("Queue bound",
		"queue", queue,
		"pattern", pattern,
		"consumer_id", b.consumerID,
	)

	b.wg.Add(1)
	go b.consumeLoop(subCtx, sub)

	return nil
}

// Start begins redelivery bookkeeping. Consumers start at Subscribe time.
func (b *RedisBus) Start(ctx context.Context) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	b.logger.Info("Starting event bus", "exchange", b.exchange)

	b.wg.Add(1)
	go b.visibilityChecker()

	return nil
}

// consumeLoop continuously pops deliveries for one queue and invokes the
// handler serially.
func (b *RedisBus) consumeLoop(ctx context.Context, sub *redisSubscription) {
	defer b.wg.Done()
	defer close(sub.doneChan)

	queueKey := b.queueKey(sub.queue)
	processingKey := b.processingKey(sub.queue)

	b.logger.Info("Consumer started",
		"queue", sub.queue,
		"pattern", sub.pattern,
	)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Consumer stopped", "queue", sub.queue)
			return
		case <-ticker.C:
			if err := b.ensureReady(ctx); err != nil {
				continue
			}

			// Atomically move the delivery from the queue to this
			// consumer's processing list.
			raw, err := b.client.BRPopLPush(ctx, queueKey, processingKey, time.Second).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if errors.Is(err, context.Canceled) {
					return
				}
				b.markDisconnected(err)
				b.totalErrors.Add(1)
				continue
			}

			var d delivery
			if err := json.Unmarshal([]byte(raw), &d); err != nil || d.Event == nil {
				// Poison payload: drop and acknowledge so the broker does
				// not redeliver it forever. Logged for inspection.
				b.logger.Error("Dropping malformed event",
					"queue", sub.queue,
					"error", err,
				)
				b.client.LRem(ctx, processingKey, 1, raw)
				b.totalErrors.Add(1)
				continue
			}

			// Track the in-flight delivery so a crash before ack leads to
			// redelivery once the visibility deadline passes.
			deadline := time.Now().Add(b.visibilityTimeout).Unix()
			b.client.ZAdd(ctx, b.pendingKey(sub.queue), redis.Z{
				Score:  float64(deadline),
				Member: raw,
			})

			b.totalDelivered.Add(1)
			b.handleDelivery(ctx, sub, &d, raw)
		}
	}
}

// handleDelivery invokes the handler and acks or nacks the delivery
func (b *RedisBus) handleDelivery(ctx context.Context, sub *redisSubscription, d *delivery, raw string) {
	if err := sub.handler(ctx, d.Event); err != nil {
		b.logger.Error("Handler failed",
			"queue", sub.queue,
			"routing_key", d.Event.RoutingKey,
			"event_id", d.Event.ID,
			"deliveries", d.Deliveries+1,
			"error", err,
		)
		b.totalErrors.Add(1)
		b.nack(ctx, sub.queue, d, raw)
		return
	}

	b.ack(ctx, sub.queue, raw)

	b.logger.Debug("Event acknowledged",
		"queue", sub.queue,
		"event_id", d.Event.ID,
	)
}

// ack removes a completed delivery from the processing list and pending set
func (b *RedisBus) ack(ctx context.Context, queue, raw string) {
	b.client.LRem(ctx, b.processingKey(queue), 1, raw)
	b.client.ZRem(ctx, b.pendingKey(queue), raw)
}

// nack requeues a failed delivery with its count incremented, or parks it
// on the dead-letter list once retries are exhausted.
func (b *RedisBus) nack(ctx context.Context, queue string, d *delivery, raw string) {
	b.client.LRem(ctx, b.processingKey(queue), 1, raw)
	b.client.ZRem(ctx, b.pendingKey(queue), raw)

	if d.Deliveries+1 >= b.maxRetries {
		b.client.LPush(ctx, b.deadLetterKey(queue), raw)
		b.totalDeadLettered.Add(1)
		b.logger.Warn("Event dead-lettered after max retries",
			"queue", queue,
			"event_id", d.Event.ID,
			"deliveries", d.Deliveries+1,
		)
		return
	}

	requeued, err := json.Marshal(delivery{Deliveries: d.Deliveries + 1, Event: d.Event})
	if err != nil {
		b.logger.Error("Failed to requeue event", "event_id", d.Event.ID, "error", err)
		return
	}
	b.client.LPush(ctx, b.queueKey(queue), requeued)
}

// visibilityChecker periodically requeues deliveries whose consumer died
// before acknowledging.
func (b *RedisBus) visibilityChecker() {
	defer b.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.requeueExpired()
		}
	}
}

// requeueExpired scans each subscribed queue's pending set for deliveries
// past their visibility deadline.
func (b *RedisBus) requeueExpired() {
	ctx, cancel := context.WithTimeout(b.ctx, b.connectTimeout)
	defer cancel()

	b.subMu.RLock()
	queues := make([]string, 0, len(b.subscriptions))
	for queue := range b.subscriptions {
		queues = append(queues, queue)
	}
	b.subMu.RUnlock()

	now := time.Now().Unix()

	for _, queue := range queues {
		pendingKey := b.pendingKey(queue)

		expired, err := b.client.ZRangeByScore(ctx, pendingKey, &redis.ZRangeBy{
			Min: "-inf",
			Max: fmt.Sprintf("%d", now),
		}).Result()
		if err != nil {
			b.markDisconnected(err)
			continue
		}

		for _, raw := range expired {
			b.client.ZRem(ctx, pendingKey, raw)
			b.client.LRem(ctx, b.processingKey(queue), 1, raw)

			var d delivery
			if err := json.Unmarshal([]byte(raw), &d); err != nil || d.Event == nil {
				b.logger.Error("Dropping malformed pending delivery", "queue", queue, "error", err)
				continue
			}

			if d.Deliveries+1 >= b.maxRetries {
				b.client.LPush(ctx, b.deadLetterKey(queue), raw)
				b.totalDeadLettered.Add(1)
				b.logger.Warn("Expired event dead-lettered",
					"queue", queue,
					"event_id", d.Event.ID,
				)
				continue
			}

			requeued, err := json.Marshal(delivery{Deliveries: d.Deliveries + 1, Event: d.Event})
			if err != nil {
				continue
			}
			b.client.LPush(ctx, b.queueKey(queue), requeued)

			b.logger.Debug("Requeued expired delivery",
				"queue", queue,
				"event_id", d.Event.ID,
				"deliveries", d.Deliveries+1,
			)
		}
	}
}

// Unsubscribe stops the consumer and removes the binding. The queue and
// its buffered events remain in Redis until explicitly purged.
func (b *RedisBus) Unsubscribe(ctx context.Context, queue string) error {
	b.subMu.Lock()
	sub, exists := b.subscriptions[queue]
	if !exists {
		b.subMu.Unlock()
		return fmt.Errorf("not subscribed with queue: %s", queue)
	}
	delete(b.subscriptions, queue)
	b.subMu.Unlock()

	sub.cancel()
	<-sub.doneChan

	if err := b.client.HDel(ctx, b.bindingsKey(), queue).Err(); err != nil {
		return fmt.Errorf("failed to unbind queue %s: %w", queue, err)
	}

	b.logger.Info("Queue unbound", "queue", queue)

	return nil
}

// Stop gracefully stops the bus
func (b *RedisBus) Stop() error {
	if b.closed.Load() {
		return nil
	}

	b.logger.Info("Stopping event bus")

	b.cancel()
	b.wg.Wait()

	b.logger.Info("Event bus stopped",
		"total_published", b.totalPublished.Load(),
		"total_delivered", b.totalDelivered.Load(),
		"total_errors", b.totalErrors.Load(),
	)

	return nil
}

// Close closes the broker connection
func (b *RedisBus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.subMu.Lock()
	for _, sub := range b.subscriptions {
		sub.cancel()
	}
	b.subMu.Unlock()

	b.cancel()
	b.wg.Wait()

	if err := b.client.Close(); err != nil {
		b.logger.Error("Failed to close broker connection", "error", err)
		return err
	}

	b.state.Store(int32(StateDisconnected))
	b.logger.Info("Event bus closed")

	return nil
}

// Stats returns bus statistics
func (b *RedisBus) Stats() BusStats {
	b.subMu.RLock()
	active := len(b.subscriptions)
	b.subMu.RUnlock()

	return BusStats{
		TotalPublished:      b.totalPublished.Load(),
		TotalDelivered:      b.totalDelivered.Load(),
		TotalErrors:         b.totalErrors.Load(),
		TotalDeadLettered:   b.totalDeadLettered.Load(),
		ActiveSubscriptions: active,
	}
}
