package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Jaaystones/social-media-microservice/internal/domain"
)

// PostRepository is an in-memory implementation of post storage using Go
// maps with mutex protection. Used by tests and local runs; deployments
// inject the MongoDB repository instead.
type PostRepository struct {
	mu   sync.RWMutex
	data map[string]*domain.Post // key: post ID
}

// NewPostRepository creates a new in-memory post repository
func NewPostRepository() *PostRepository {
	return &PostRepository{
		data: make(map[string]*domain.Post),
	}
}

// Create persists a new post
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	if post == nil || post.ID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[post.ID]; exists {
		return fmt.Errorf("%w: post %s", domain.ErrAlreadyExists, post.ID)
	}

	cp := *post
	r.data[post.ID] = &cp
	return nil
}

// GetByID retrieves a post by its id
func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: post %s", domain.ErrNotFound, id)
	}

	cp := *post
	return &cp, nil
}

// List returns one page of posts, newest first, plus the total count
func (r *PostRepository) List(ctx context.Context, page, limit int) ([]*domain.Post, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	r.mu.RLock()
	all := make([]*domain.Post, 0, len(r.data))
	for _, post := range r.data {
		cp := *post
		all = append(all, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []*domain.Post{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	return all[start:end], total, nil
}

// Delete removes a post
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return fmt.Errorf("%w: post %s", domain.ErrNotFound, id)
	}

	delete(r.data, id)
	return nil
}
