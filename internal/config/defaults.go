package config

import "time"

// Default configuration values for all services
const (
	// HTTP server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultPostServicePort = 3002
	DefaultSearchPort      = 3003
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Event bus defaults
	DefaultRedisURL          = "redis://localhost:6379"
	DefaultExchangeName      = "social-media-service"
	DefaultBusConnectTimeout = 5 * time.Second
	DefaultVisibilityTimeout = 30 * time.Second
	DefaultBusMaxRetries     = 3

	// MongoDB defaults
	DefaultMongoURI              = "mongodb://localhost:27017"
	DefaultMongoDatabase         = "social_media"
	DefaultPostsCollection       = "posts"
	DefaultSearchCollection      = "search_posts"
	DefaultMongoConnectTimeout   = 10 * time.Second
	DefaultMongoOperationTimeout = 5 * time.Second

	// Query cache defaults
	DefaultCacheTTL = 5 * time.Minute
)
