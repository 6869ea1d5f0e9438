package storage

import (
	"context"

	"github.com/Jaaystones/social-media-microservice/internal/domain"
)

// PostRepository defines the interface for the post service's primary
// datastore. Reads are idempotent; every successful mutation is followed
// by an event publish in the service layer.
type PostRepository interface {
	// Create persists a new post
	Create(ctx context.Context, post *domain.Post) error

	// GetByID retrieves a post by its id; domain.ErrNotFound when absent
	GetByID(ctx context.Context, id string) (*domain.Post, error)

	// List returns one page of posts, newest first, plus the total count
	List(ctx context.Context, page, limit int) ([]*domain.Post, int64, error)

	// Delete removes a post; domain.ErrNotFound when absent
	Delete(ctx context.Context, id string) error
}

// SearchRepository defines the interface for the search service's local
// index, maintained from post events independently of the post store.
type SearchRepository interface {
	// Index upserts a search document; applying the same document twice
	// leaves the index unchanged
	Index(ctx context.Context, doc *domain.SearchDoc) error

	// Remove deletes the document for a post; absent is a no-op
	Remove(ctx context.Context, postID string) error

	// Search runs a full-text query, best matches first
	Search(ctx context.Context, query string) ([]*domain.SearchDoc, error)
}
