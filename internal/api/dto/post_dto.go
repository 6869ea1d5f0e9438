package dto

import "time"

// CreatePostRequest is the body accepted when creating a post
type CreatePostRequest struct {
	Content  string   `json:"content" binding:"required"`
	MediaIDs []string `json:"mediaIds"`
}

// PostResponse represents a single post in API responses
type PostResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	MediaIDs  []string  `json:"mediaIds,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostListResponse is a paginated page of posts
type PostListResponse struct {
	Posts      []PostResponse `json:"posts"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int64          `json:"totalPages"`
}

// MessageResponse carries a human-readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}
