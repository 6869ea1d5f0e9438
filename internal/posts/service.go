// Package posts implements the post service core: CRUD against the
// primary datastore with a read-through cache on the list and single-post
// paths, publishing domain events after each successful commit.
package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Jaaystones/social-media-microservice/internal/cache"
	"github.com/Jaaystones/social-media-microservice/internal/domain"
	"github.com/Jaaystones/social-media-microservice/internal/eventbus"
	"github.com/Jaaystones/social-media-microservice/internal/events"
	"github.com/Jaaystones/social-media-microservice/internal/storage"
)

// Service wires the post repository, the query cache and the event bus
type Service struct {
	repo   storage.PostRepository
	cache  cache.QueryCache
	bus    eventbus.EventBus
	logger *slog.Logger
	ttl    time.Duration
}

// Page is one cached page of the post list
type Page struct {
	Posts []*domain.Post `json:"posts"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// NewService creates a new post service core
func NewService(repo storage.PostRepository, qc cache.QueryCache, bus eventbus.EventBus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		cache:  qc,
		bus:    bus,
		logger: logger.With("component", "post_service"),
		ttl:    cache.DefaultTTL,
	}
}

// Create validates and persists a new post, then publishes post.created.
// The event goes out only after the datastore commit succeeds, so a
// failed write can never cause a phantom invalidation; a failed publish
// is logged and absorbed, leaving consumers to catch up via TTL expiry.
func (s *Service) Create(ctx context.Context, authorID, content string, mediaIDs []string) (*domain.Post, error) {
	post := &domain.Post{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Content:   content,
		MediaIDs:  mediaIDs,
		CreatedAt: time.Now().UTC(),
	}
	if err := post.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.publish(events.PostCreated, events.PostCreatedEvent{
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
	})

	// Cached list pages are stale now
	if err := s.cache.InvalidateByPrefix(ctx, cache.PostListPrefix); err != nil {
		s.logger.Warn("Failed to sweep post list cache", "error", err)
	}

	s.logger.Info("Post created", "post_id", post.ID, "author_id", post.AuthorID)
	return post, nil
}

// Get retrieves a single post through the cache
func (s *Service) Get(ctx context.Context, id string) (*domain.Post, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: post id is required", domain.ErrInvalidInput)
	}

	key := cache.PostKey(id)

	if raw, ok, _ := s.cache.Get(ctx, key); ok {
		var post domain.Post
		if err := json.Unmarshal(raw, &post); err == nil {
			return &post, nil
		}
		_ = s.cache.Invalidate(ctx, key)
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(post); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("Failed to cache post", "key", key, "error", err)
		}
	}

	return post, nil
}

// List returns one page of posts through the cache, newest first
func (s *Service) List(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	key := cache.PostPageKey(page, limit)

	if raw, ok, _ := s.cache.Get(ctx, key); ok {
		var cached Page
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		_ = s.cache.Invalidate(ctx, key)
	}

	posts, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	result := &Page{Posts: posts, Total: total, Page: page, Limit: limit}

	if raw, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("Failed to cache post page", "key", key, "error", err)
		}
	}

	return result, nil
}

// Delete removes a post, publishes post.deleted and invalidates cached
// entries that referenced it. Event and invalidation happen only after
// the datastore delete succeeds.
func (s *Service) Delete(ctx context.Context, id, authorID string) error {
	if id == "" {
		return fmt.Errorf("%w: post id is required", domain.ErrInvalidInput)
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if authorID != "" && post.AuthorID != authorID {
		return fmt.Errorf("%w: post %s belongs to another author", domain.ErrUnauthorized, id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(events.PostDeleted, events.PostDeletedEvent{
		PostID:   post.ID,
		AuthorID: post.AuthorID,
		MediaIDs: post.MediaIDs,
	})

	if err := s.cache.Invalidate(ctx, cache.PostKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate post cache entry", "post_id", id, "error", err)
	}
	if err := s.cache.InvalidateByPrefix(ctx, cache.PostListPrefix); err != nil {
		s.logger.Warn("Failed to sweep post list cache", "error", err)
	}

	s.logger.Info("Post deleted", "post_id", id)
	return nil
}

// publish sends a domain event without ever failing the request path
func (s *Service) publish(routingKey string, payload interface{}) {
	e, err := eventbus.NewEvent(routingKey, payload)
	if err != nil {
		s.logger.Error("Failed to build event", "routing_key", routingKey, "error", err)
		return
	}
	s.bus.PublishAsync(e)
}
