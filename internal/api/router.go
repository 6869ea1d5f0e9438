// Package api wires the HTTP surface of both services: gin routers,
// middleware chains and the request handlers. Everything here is thin
// glue; the admission, caching and event behavior lives in the service
// cores it delegates to.
package api

import (
	"github.com/Jaaystones/social-media-microservice/internal/api/handlers"
	"github.com/Jaaystones/social-media-microservice/internal/api/middleware"
	"github.com/Jaaystones/social-media-microservice/internal/posts"
	"github.com/Jaaystones/social-media-microservice/internal/ratelimit"
	"github.com/Jaaystones/social-media-microservice/internal/search"
	"github.com/gin-gonic/gin"
)

// Limiters holds the admission budgets a router enforces. Global applies
// to every route; Sensitive stacks on top of the designated endpoint and
// is only consulted after the global tier admits the request.
type Limiters struct {
	Global    ratelimit.Limiter
	Sensitive ratelimit.Limiter
}

// PostRouter manages routing for the post service
type PostRouter struct {
	engine      *gin.Engine
	postHandler *handlers.PostHandler
}

// NewPostRouter creates the post service router with all handlers initialized
func NewPostRouter(svc *posts.Service, limiters Limiters) *PostRouter {
	r := &PostRouter{
		engine:      gin.New(),
		postHandler: handlers.NewPostHandler(svc),
	}

	r.setupMiddleware()
	r.setupRoutes(limiters)

	return r
}

// setupMiddleware configures global middleware
func (r *PostRouter) setupMiddleware() {
	r.engine.Use(middleware.LoggingMiddleware())
	r.engine.Use(middleware.ErrorHandlerMiddleware())
	r.engine.Use(gin.Recovery())
}

// setupRoutes configures all API routes
func (r *PostRouter) setupRoutes(limiters Limiters) {
	r.engine.GET("/health", healthHandler)

	v1 := r.engine.Group("/api/v1")
	v1.Use(middleware.RequireUser())
	v1.Use(middleware.RateLimitMiddleware(limiters.Global))
	{
		postsGroup := v1.Group("/posts")
		{
			// Creation carries the stricter budget on top of the global one
			postsGroup.POST("", middleware.RateLimitMiddleware(limiters.Sensitive), r.postHandler.CreatePost)
			postsGroup.GET("", r.postHandler.ListPosts)
			postsGroup.GET("/:id", r.postHandler.GetPost)
			postsGroup.DELETE("/:id", r.postHandler.DeletePost)
		}
	}
}

// Engine returns the underlying Gin engine
func (r *PostRouter) Engine() *gin.Engine {
	return r.engine
}

// SearchRouter manages routing for the search service
type SearchRouter struct {
	engine        *gin.Engine
	searchHandler *handlers.SearchHandler
}

// NewSearchRouter creates the search service router with all handlers initialized
func NewSearchRouter(svc *search.Service, limiters Limiters) *SearchRouter {
	r := &SearchRouter{
		engine:        gin.New(),
		searchHandler: handlers.NewSearchHandler(svc),
	}

	r.engine.Use(middleware.LoggingMiddleware())
	r.engine.Use(middleware.ErrorHandlerMiddleware())
	r.engine.Use(gin.Recovery())

	r.engine.GET("/health", healthHandler)

	v1 := r.engine.Group("/api/v1")
	v1.Use(middleware.RequireUser())
	v1.Use(middleware.RateLimitMiddleware(limiters.Global))
	{
		v1.GET("/search/posts", middleware.RateLimitMiddleware(limiters.Sensitive), r.searchHandler.SearchPosts)
	}

	return r
}

// Engine returns the underlying Gin engine
func (r *SearchRouter) Engine() *gin.Engine {
	return r.engine
}

func healthHandler(c *gin.Context) {
	c.JSON(200, gin.H{
		"status": "healthy",
	})
}
