package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Jaaystones/social-media-microservice/internal/api/dto"
	"github.com/Jaaystones/social-media-microservice/internal/api/middleware"
	"github.com/Jaaystones/social-media-microservice/internal/domain"
	"github.com/Jaaystones/social-media-microservice/internal/posts"
	"github.com/gin-gonic/gin"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// PostHandler handles post-related API requests
type PostHandler struct {
	svc *posts.Service
}

// NewPostHandler creates a new post handler
func NewPostHandler(svc *posts.Service) *PostHandler {
	return &PostHandler{svc: svc}
}

// CreatePost persists a new post for the authenticated user
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:     "Invalid request",
			Message:   "Request body must contain post content",
			Timestamp: time.Now(),
		})
		return
	}

	post, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), req.Content, req.MediaIDs)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:     "Invalid request",
				Message:   "Post content is empty or exceeds the maximum length",
				Timestamp: time.Now(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:     "Failed to create post",
			Message:   "Internal server error occurred",
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusCreated, dto.ToPostResponse(post))
}

// GetPost returns a single post by id
func (h *PostHandler) GetPost(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:     "Invalid request",
			Message:   "Post id is required",
			Timestamp: time.Now(),
		})
		return
	}

	post, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:     "Post not found",
				Message:   "No post found with id: " + id,
				Timestamp: time.Now(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:     "Failed to retrieve post",
			Message:   "Internal server error occurred",
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.ToPostResponse(post))
}

// ListPosts returns one page of posts, newest first
func (h *PostHandler) ListPosts(c *gin.Context) {
	page := parsePositiveInt(c.Query("page"), defaultPage)
	limit := parsePositiveInt(c.Query("limit"), defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}

	result, err := h.svc.List(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:     "Failed to retrieve posts",
			Message:   "Internal server error occurred",
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.ToPostListResponse(result))
}

// DeletePost removes a post owned by the authenticated user
func (h *PostHandler) DeletePost(c *gin.Context) {
	id := c.Param("id")

	err := h.svc.Delete(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:     "Post not found",
				Message:   "No post found with id: " + id,
				Timestamp: time.Now(),
			})
		case errors.Is(err, domain.ErrUnauthorized):
			c.JSON(http.StatusForbidden, dto.ErrorResponse{
				Error:     "Forbidden",
				Message:   "Only the author can delete a post",
				Timestamp: time.Now(),
			})
		default:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:     "Failed to delete post",
				Message:   "Internal server error occurred",
				Timestamp: time.Now(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Post deleted successfully"})
}

// parsePositiveInt parses s, falling back to def for absent or bad values
func parsePositiveInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
