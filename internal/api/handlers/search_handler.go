package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Jaaystones/social-media-microservice/internal/api/dto"
	"github.com/Jaaystones/social-media-microservice/internal/domain"
	"github.com/Jaaystones/social-media-microservice/internal/search"
	"github.com/gin-gonic/gin"
)

// SearchHandler handles search API requests
type SearchHandler struct {
	svc *search.Service
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(svc *search.Service) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// SearchPosts runs a full-text query over the indexed posts
func (h *SearchHandler) SearchPosts(c *gin.Context) {
	query := c.Query("query")

	docs, err := h.svc.Search(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:     "Invalid request",
				Message:   "Query parameter is required",
				Timestamp: time.Now(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:     "Search failed",
			Message:   "Internal server error occurred",
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.ToSearchResponse(docs))
}
