package cache

import (
	"fmt"
	"strings"
)

// Shared key prefixes. Deleting a post can affect the ranking of cached
// results that never mention it, so mutation-event handlers sweep the
// whole prefix instead of chasing individual keys.
const (
	SearchPrefix   = "search:"
	PostPrefix     = "post:"
	PostListPrefix = "posts:"
)

// SearchKey derives the cache key for a full-text search query.
// Queries are normalized so equivalent requests share one entry.
func SearchKey(query string) string {
	return SearchPrefix + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// PostKey derives the cache key for a single post lookup
func PostKey(postID string) string {
	return PostPrefix + postID
}

// PostPageKey derives the cache key for a page of the post list
func PostPageKey(page, limit int) string {
	return fmt.Sprintf("%s%d:%d", PostListPrefix, page, limit)
}
