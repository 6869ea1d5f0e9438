package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Jaaystones/social-media-microservice/internal/domain"
)

// SearchRepository is an in-memory implementation of the search index.
// Matching is naive substring search over content, which is enough for
// tests; deployments use the MongoDB text index.
type SearchRepository struct {
	mu   sync.RWMutex
	docs map[string]*domain.SearchDoc // key: post ID
}

// NewSearchRepository creates a new in-memory search repository
func NewSearchRepository() *SearchRepository {
	return &SearchRepository{
		docs: make(map[string]*domain.SearchDoc),
	}
}

// Index upserts a search document keyed by post id
func (r *SearchRepository) Index(ctx context.Context, doc *domain.SearchDoc) error {
	if doc == nil || doc.PostID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *doc
	r.docs[doc.PostID] = &cp
	return nil
}

// Remove deletes the document for a post; absent is a no-op
func (r *SearchRepository) Remove(ctx context.Context, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.docs, postID)
	return nil
}

// Search returns documents whose content contains every query term,
// newest first.
func (r *SearchRepository) Search(ctx context.Context, query string) ([]*domain.SearchDoc, error) {
	terms := strings.Fields(strings.ToLower(query))

	r.mu.RLock()
	var matches []*domain.SearchDoc
	for _, doc := range r.docs {
		content := strings.ToLower(doc.Content)
		matched := true
		for _, term := range terms {
			if !strings.Contains(content, term) {
				matched = false
				break
			}
		}
		if matched {
			cp := *doc
			matches = append(matches, &cp)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	return matches, nil
}

// Len returns the number of indexed documents
func (r *SearchRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}
