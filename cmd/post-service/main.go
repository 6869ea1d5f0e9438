package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/Jaaystones/social-media-microservice/internal/api"
	"github.com/Jaaystones/social-media-microservice/internal/cache"
	"github.com/Jaaystones/social-media-microservice/internal/config"
	"github.com/Jaaystones/social-media-microservice/internal/eventbus"
	"github.com/Jaaystones/social-media-microservice/internal/posts"
	"github.com/Jaaystones/social-media-microservice/internal/ratelimit"
	"github.com/Jaaystones/social-media-microservice/internal/storage"
	"github.com/Jaaystones/social-media-microservice/internal/storage/inmemory"
	"github.com/Jaaystones/social-media-microservice/internal/storage/mongodb"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting post service",
		slog.String("service", "post-service"),
	)

	cfg, err := config.Load(config.DefaultPostServicePort)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Primary datastore
	var repo storage.PostRepository
	if cfg.Storage.Type == "mongodb" {
		mongoRepo, err := mongodb.NewPostRepository(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.PostsCollection)
		if err != nil {
			slog.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer mongoRepo.Close(context.Background())
		repo = mongoRepo

		slog.Info("Using MongoDB storage",
			slog.String("database", cfg.Mongo.Database),
			slog.String("collection", cfg.Mongo.PostsCollection),
		)
	} else {
		slog.Info("Using in-memory storage")
		repo = inmemory.NewPostRepository()
	}

	// Query cache; unavailability degrades reads at runtime, but a
	// misconfigured cache URL should fail startup loudly.
	queryCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
		RedisURL:   cfg.Cache.RedisURL,
		DefaultTTL: cfg.Cache.TTL,
	}, logger)
	if err != nil {
		slog.Error("Failed to connect to cache", "error", err)
		os.Exit(1)
	}
	defer queryCache.Close()

	// Event bus
	bus, err := newBus(cfg, logger)
	if err != nil {
		slog.Error("Failed to connect to event bus", "error", err)
		os.Exit(1)
	}
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bus.Start(ctx); err != nil {
		slog.Error("Failed to start event bus", "error", err)
		os.Exit(1)
	}

	svc := posts.NewService(repo, queryCache, bus, logger)

	limiters, err := newLimiters(cfg, logger)
	if err != nil {
		slog.Error("Failed to connect to rate limit store", "error", err)
		os.Exit(1)
	}

	router := api.NewPostRouter(svc, limiters)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting HTTP server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down post service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Post service stopped gracefully")
}

// newBus builds the configured event bus backend
func newBus(cfg *config.Config, logger *slog.Logger) (eventbus.EventBus, error) {
	if cfg.Bus.Type == "inmemory" {
		slog.Info("Using in-memory event bus")
		return eventbus.NewInMemoryBus(eventbus.DefaultInMemoryBusConfig(), logger), nil
	}

	return eventbus.NewRedisBus(eventbus.RedisBusConfig{
		RedisURL:          cfg.Bus.RedisURL,
		Exchange:          cfg.Bus.Exchange,
		ConsumerID:        "post-service",
		VisibilityTimeout: cfg.Bus.VisibilityTimeout,
		MaxRetries:        cfg.Bus.MaxRetries,
		ConnectTimeout:    cfg.Bus.ConnectTimeout,
	}, logger)
}

// newLimiters builds both admission tiers on a shared Redis client so
// every replica of the service counts against the same budgets.
func newLimiters(cfg *config.Config, logger *slog.Logger) (api.Limiters, error) {
	global := ratelimit.GlobalTier
	if cfg.RateLimit.GlobalPoints > 0 {
		global.Points = cfg.RateLimit.GlobalPoints
	}
	if cfg.RateLimit.GlobalWindow > 0 {
		global.Window = cfg.RateLimit.GlobalWindow
	}

	sensitive := ratelimit.CreatePostTier
	if cfg.RateLimit.SensitivePoints > 0 {
		sensitive.Points = cfg.RateLimit.SensitivePoints
	}
	if cfg.RateLimit.SensitiveWindow > 0 {
		sensitive.Window = cfg.RateLimit.SensitiveWindow
	}

	// A run on the in-memory bus is a single-process dev setup with no
	// shared infrastructure; per-process token buckets suffice there.
	if cfg.Bus.Type == "inmemory" {
		return api.Limiters{
			Global:    ratelimit.NewLocalLimiter(global),
			Sensitive: ratelimit.NewLocalLimiter(sensitive),
		}, nil
	}

	opts, err := redis.ParseURL(cfg.RateLimit.RedisURL)
	if err != nil {
		return api.Limiters{}, err
	}
	client := redis.NewClient(opts)

	return api.Limiters{
		Global: ratelimit.NewRedisLimiter(client, ratelimit.RedisLimiterConfig{
			Tier:     global,
			FailOpen: cfg.RateLimit.FailOpen,
		}, logger),
		Sensitive: ratelimit.NewRedisLimiter(client, ratelimit.RedisLimiterConfig{
			Tier:     sensitive,
			FailOpen: cfg.RateLimit.FailOpen,
		}, logger),
	}, nil
}
