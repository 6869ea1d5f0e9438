package dto

import "time"

// SearchResultResponse represents a single search hit
type SearchResultResponse struct {
	PostID    string    `json:"postId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// SearchResponse is the body returned by the search endpoint
type SearchResponse struct {
	Results []SearchResultResponse `json:"results"`
}
