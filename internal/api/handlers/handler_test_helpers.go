package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Jaaystones/social-media-microservice/internal/api/middleware"
	"github.com/Jaaystones/social-media-microservice/internal/cache"
	"github.com/Jaaystones/social-media-microservice/internal/eventbus"
	"github.com/Jaaystones/social-media-microservice/internal/posts"
	"github.com/Jaaystones/social-media-microservice/internal/search"
	"github.com/Jaaystones/social-media-microservice/internal/storage/inmemory"
)

// newPostRig wires a post handler over in-memory dependencies. Requests
// made through the returned engine must carry the x-user-id header.
func newPostRig() (*gin.Engine, *inmemory.PostRepository) {
	gin.SetMode(gin.TestMode)

	repo := inmemory.NewPostRepository()
	bus := eventbus.NewInMemoryBus(eventbus.DefaultInMemoryBusConfig(), nil)
	svc := posts.NewService(repo, cache.NewMemoryCache(), bus, nil)

	engine := gin.New()
	engine.Use(middleware.RequireUser())

	h := NewPostHandler(svc)
	engine.POST("/api/v1/posts", h.CreatePost)
	engine.GET("/api/v1/posts", h.ListPosts)
	engine.GET("/api/v1/posts/:id", h.GetPost)
	engine.DELETE("/api/v1/posts/:id", h.DeletePost)

	return engine, repo
}

// newSearchRig wires a search handler over in-memory dependencies
func newSearchRig() (*gin.Engine, *inmemory.SearchRepository) {
	gin.SetMode(gin.TestMode)

	repo := inmemory.NewSearchRepository()
	svc := search.NewService(repo, cache.NewMemoryCache(), nil)

	engine := gin.New()
	engine.Use(middleware.RequireUser())
	engine.GET("/api/v1/search/posts", NewSearchHandler(svc).SearchPosts)

	return engine, repo
}
