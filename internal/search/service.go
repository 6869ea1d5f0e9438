// Package search implements the search service core: a read-through
// query cache in front of the full-text index, kept coherent by handlers
// for the post mutation events.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jaaystones/social-media-microservice/internal/cache"
	"github.com/Jaaystones/social-media-microservice/internal/domain"
	"github.com/Jaaystones/social-media-microservice/internal/eventbus"
	"github.com/Jaaystones/social-media-microservice/internal/events"
	"github.com/Jaaystones/social-media-microservice/internal/storage"
)

// QueueName is the durable queue the search service consumes from
const QueueName = "search-service"

// Service wires the search index, the query cache and the event handlers
type Service struct {
	repo   storage.SearchRepository
	cache  cache.QueryCache
	logger *slog.Logger
	ttl    time.Duration
}

// NewService creates a new search service core
func NewService(repo storage.SearchRepository, qc cache.QueryCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		cache:  qc,
		logger: logger.With("component", "search_service"),
		ttl:    cache.DefaultTTL,
	}
}

// Search runs a full-text query through the cache. On a miss the index is
// queried and the result cached before returning. Two concurrent misses
// for the same query may both hit the index; the query is idempotent and
// either result is valid within the staleness window, so no single-flight
// deduplication is done.
func (s *Service) Search(ctx context.Context, query string) ([]*domain.SearchDoc, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	key := cache.SearchKey(query)

	if raw, ok, _ := s.cache.Get(ctx, key); ok {
		var docs []*domain.SearchDoc
		if err := json.Unmarshal(raw, &docs); err == nil {
			s.logger.Debug("Cache hit", "key", key)
			return docs, nil
		}
		// Undecodable entry: drop it and fall through to the index
		s.logger.Warn("Dropping undecodable cache entry", "key", key)
		_ = s.cache.Invalidate(ctx, key)
	}

	s.logger.Debug("Cache miss, querying index", "key", key)

	docs, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}

	if raw, err := json.Marshal(docs); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			// Cache write failure only costs the next request a miss
			s.logger.Warn("Failed to cache search results", "key", key, "error", err)
		}
	}

	return docs, nil
}

// RegisterHandlers binds the service's durable queue to the post event
// patterns. Both handlers run serially on the same queue, preserving the
// relative order the broker delivered.
func (s *Service) RegisterHandlers(ctx context.Context, bus eventbus.EventBus) error {
	return bus.Subscribe(ctx, "post.*", QueueName, s.handleEvent)
}

// handleEvent dispatches a delivered event to the handler for its routing
// key. Unknown keys are acknowledged and dropped so a new publisher
// cannot wedge the queue.
func (s *Service) handleEvent(ctx context.Context, e *eventbus.Event) error {
	switch e.RoutingKey {
	case events.PostCreated:
		return s.HandlePostCreated(ctx, e)
	case events.PostDeleted:
		return s.HandlePostDeleted(ctx, e)
	default:
		s.logger.Warn("Ignoring event with unknown routing key",
			"routing_key", e.RoutingKey,
			"event_id", e.ID,
		)
		return nil
	}
}

// HandlePostCreated indexes the new post and sweeps cached search results.
// The sweep trades precision for simplicity: the new post stays invisible
// in any cached result until that entry expires or is swept, and the
// handler stays idempotent under redelivery.
func (s *Service) HandlePostCreated(ctx context.Context, e *eventbus.Event) error {
	var payload events.PostCreatedEvent
	if err := e.Unmarshal(&payload); err != nil {
		// Malformed payload: log and acknowledge, never redeliver poison
		s.logger.Error("Dropping malformed post.created payload",
			"event_id", e.ID,
			"error", err,
		)
		return nil
	}
	if payload.PostID == "" {
		s.logger.Error("Dropping post.created without post id", "event_id", e.ID)
		return nil
	}

	doc := &domain.SearchDoc{
		PostID:    payload.PostID,
		AuthorID:  payload.AuthorID,
		Content:   payload.Content,
		CreatedAt: payload.CreatedAt,
	}
	if err := s.repo.Index(ctx, doc); err != nil {
		return fmt.Errorf("failed to index post %s: %w", payload.PostID, err)
	}

	if err := s.cache.InvalidateByPrefix(ctx, cache.SearchPrefix); err != nil {
		return fmt.Errorf("failed to sweep search cache: %w", err)
	}

	s.logger.Info("Indexed created post", "post_id", payload.PostID)
	return nil
}

// HandlePostDeleted removes the post from the index and sweeps every
// cached search result: a deletion can change the ranking of queries that
// never mention the post. Removing an already-removed post is a no-op, so
// redelivery and out-of-order arrival leave the cache stale at worst,
// never corrupt.
func (s *Service) HandlePostDeleted(ctx context.Context, e *eventbus.Event) error {
	var payload events.PostDeletedEvent
	if err := e.Unmarshal(&payload); err != nil {
		s.logger.Error("Dropping malformed post.deleted payload",
			"event_id", e.ID,
			"error", err,
		)
		return nil
	}
	if payload.PostID == "" {
		s.logger.Error("Dropping post.deleted without post id", "event_id", e.ID)
		return nil
	}

	if err := s.repo.Remove(ctx, payload.PostID); err != nil {
		return fmt.Errorf("failed to remove post %s from index: %w", payload.PostID, err)
	}

	if err := s.cache.InvalidateByPrefix(ctx, cache.SearchPrefix); err != nil {
		return fmt.Errorf("failed to sweep search cache: %w", err)
	}

	s.logger.Info("Removed deleted post from index", "post_id", payload.PostID)
	return nil
}
