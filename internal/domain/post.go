package domain

import (
	"strings"
	"time"
)

// MaxContentLength bounds post content size; mirrors the request-body
// validation enforced at the HTTP edge.
const MaxContentLength = 5000

// Post represents a user-authored post stored in the primary datastore
type Post struct {
	// ID is the unique identifier for the post
	// This is the PRIMARY KEY used in API endpoints: /api/posts/{id}
	ID string `json:"id" bson:"_id"`

	// AuthorID is the id of the user who created the post
	// Extracted from the x-user-id header by the auth middleware
	AuthorID string `json:"author_id" bson:"author_id"`

	// Content is the post body
	Content string `json:"content" bson:"content"`

	// MediaIDs reference uploaded media attached to the post (optional)
	MediaIDs []string `json:"media_ids,omitempty" bson:"media_ids,omitempty"`

	// CreatedAt is when the post was committed to the datastore
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Validate checks the post fields before it is persisted
func (p *Post) Validate() error {
	if p.AuthorID == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(p.Content) == "" {
		return ErrInvalidInput
	}
	if len(p.Content) > MaxContentLength {
		return ErrInvalidInput
	}
	return nil
}

// SearchDoc is the search service's local projection of a post.
// It is maintained from post.created / post.deleted events and indexed
// for full-text queries independently of the post service's datastore.
type SearchDoc struct {
	PostID    string    `json:"post_id" bson:"_id"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
