package dto

import (
	"github.com/Jaaystones/social-media-microservice/internal/domain"
	"github.com/Jaaystones/social-media-microservice/internal/posts"
)

// ToPostResponse converts a domain post to its API representation
func ToPostResponse(p *domain.Post) PostResponse {
	return PostResponse{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Content:   p.Content,
		MediaIDs:  p.MediaIDs,
		CreatedAt: p.CreatedAt,
	}
}

// ToPostListResponse converts one page of posts to its API representation
func ToPostListResponse(page *posts.Page) PostListResponse {
	out := PostListResponse{
		Posts: make([]PostResponse, 0, len(page.Posts)),
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	}
	for _, p := range page.Posts {
		out.Posts = append(out.Posts, ToPostResponse(p))
	}
	if page.Limit > 0 {
		out.TotalPages = (page.Total + int64(page.Limit) - 1) / int64(page.Limit)
	}
	return out
}

// ToSearchResponse converts search hits to their API representation
func ToSearchResponse(docs []*domain.SearchDoc) SearchResponse {
	out := SearchResponse{Results: make([]SearchResultResponse, 0, len(docs))}
	for _, d := range docs {
		out.Results = append(out.Results, SearchResultResponse{
			PostID:    d.PostID,
			Content:   d.Content,
			CreatedAt: d.CreatedAt,
		})
	}
	return out
}
