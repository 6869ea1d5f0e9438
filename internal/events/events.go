// Package events defines the routing keys and payload shapes shared by
// every service that publishes to or consumes from the event bus.
package events

import "time"

// Routing keys - using consistent entity.action patterns
const (
	PostCreated = "post.created"
	PostDeleted = "post.deleted"
)

// PostCreatedEvent is published by the post service after a post is
// committed to the primary datastore.
// Consumers must tolerate unknown additional fields.
type PostCreatedEvent struct {
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostDeletedEvent is published by the post service after a post is
// removed from the primary datastore.
type PostDeletedEvent struct {
	PostID   string   `json:"postId"`
	AuthorID string   `json:"authorId,omitempty"`
	MediaIDs []string `json:"mediaIds,omitempty"`
}
