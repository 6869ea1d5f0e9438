package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaaystones/social-media-microservice/internal/domain"
)

func TestSearchRepository_IndexAndSearch(t *testing.T) {
	repo := NewSearchRepository()
	ctx := context.Background()

	require.NoError(t, repo.Index(ctx, &domain.SearchDoc{
		PostID:    "p1",
		AuthorID:  "u1",
		Content:   "Go concurrency patterns",
		CreatedAt: time.Now(),
	}))
	require.NoError(t, repo.Index(ctx, &domain.SearchDoc{
		PostID:    "p2",
		AuthorID:  "u2",
		Content:   "Cooking with cast iron",
		CreatedAt: time.Now().Add(time.Second),
	}))

	docs, err := repo.Search(ctx, "concurrency")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "p1", docs[0].PostID)

	docs, err = repo.Search(ctx, "nothing matches this")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

// Indexing the same document twice leaves one entry: event redelivery safe
func TestSearchRepository_IndexIsIdempotent(t *testing.T) {
	repo := NewSearchRepository()
	ctx := context.Background()

	doc := &domain.SearchDoc{PostID: "p1", AuthorID: "u1", Content: "hello"}
	require.NoError(t, repo.Index(ctx, doc))
	require.NoError(t, repo.Index(ctx, doc))

	assert.Equal(t, 1, repo.Len())
}

// Removing an absent document is a no-op, not an error
func TestSearchRepository_RemoveIsIdempotent(t *testing.T) {
	repo := NewSearchRepository()
	ctx := context.Background()

	require.NoError(t, repo.Index(ctx, &domain.SearchDoc{PostID: "p1", Content: "hello"}))
	require.NoError(t, repo.Remove(ctx, "p1"))
	require.NoError(t, repo.Remove(ctx, "p1"))
	assert.Equal(t, 0, repo.Len())
}
