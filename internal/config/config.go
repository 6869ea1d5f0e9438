// Package config loads service configuration from environment variables
// with sane defaults, so every knob can be set per deployment without
// code changes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig
	Bus       BusConfig
	Mongo     MongoConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// BusConfig holds event bus configuration
type BusConfig struct {
	Type              string // "redis" or "inmemory"
	RedisURL          string
	Exchange          string
	ConnectTimeout    time.Duration
	VisibilityTimeout time.Duration
	MaxRetries        int
}

// MongoConfig holds MongoDB configuration
type MongoConfig struct {
	URI              string
	Database         string
	PostsCollection  string
	SearchCollection string
	ConnectTimeout   time.Duration
}

// CacheConfig holds query cache configuration
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

// RateLimitConfig holds admission control configuration. Zero tier
// values fall back to the compiled-in tier budgets.
type RateLimitConfig struct {
	RedisURL        string
	GlobalPoints    int
	GlobalWindow    time.Duration
	SensitivePoints int
	SensitiveWindow time.Duration
	FailOpen        bool
}

// StorageConfig selects the datastore backend
type StorageConfig struct {
	Type string // "mongodb" or "inmemory"
}

// Load loads configuration from environment variables. port is the
// service's default listen port; each service passes its own.
func Load(port int) (*Config, error) {
	redisURL := getEnv("REDIS_URL", DefaultRedisURL)

	config := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", DefaultServerHost),
			Port:            getEnvAsInt("PORT", port),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", DefaultReadTimeout),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", DefaultWriteTimeout),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", DefaultIdleTimeout),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),
		},
		Bus: BusConfig{
			Type:              getEnv("BUS_TYPE", "redis"),
			RedisURL:          redisURL,
			Exchange:          getEnv("BUS_EXCHANGE", DefaultExchangeName),
			ConnectTimeout:    getEnvAsDuration("BUS_CONNECT_TIMEOUT", DefaultBusConnectTimeout),
			VisibilityTimeout: getEnvAsDuration("BUS_VISIBILITY_TIMEOUT", DefaultVisibilityTimeout),
			MaxRetries:        getEnvAsInt("BUS_MAX_RETRIES", DefaultBusMaxRetries),
		},
		Mongo: MongoConfig{
			URI:              getEnv("MONGODB_URI", DefaultMongoURI),
			Database:         getEnv("MONGODB_DATABASE", DefaultMongoDatabase),
			PostsCollection:  getEnv("MONGODB_POSTS_COLLECTION", DefaultPostsCollection),
			SearchCollection: getEnv("MONGODB_SEARCH_COLLECTION", DefaultSearchCollection),
			ConnectTimeout:   getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", DefaultMongoConnectTimeout),
		},
		Cache: CacheConfig{
			RedisURL: redisURL,
			TTL:      getEnvAsDuration("CACHE_TTL", DefaultCacheTTL),
		},
		RateLimit: RateLimitConfig{
			RedisURL:        redisURL,
			GlobalPoints:    getEnvAsInt("RATELIMIT_GLOBAL_POINTS", 0),
			GlobalWindow:    getEnvAsDuration("RATELIMIT_GLOBAL_WINDOW", 0),
			SensitivePoints: getEnvAsInt("RATELIMIT_SENSITIVE_POINTS", 0),
			SensitiveWindow: getEnvAsDuration("RATELIMIT_SENSITIVE_WINDOW", 0),
			FailOpen:        getEnvAsBool("RATELIMIT_FAIL_OPEN", false),
		},
		Storage: StorageConfig{
			Type: getEnv("STORAGE_TYPE", "mongodb"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Bus.Type != "redis" && c.Bus.Type != "inmemory" {
		return fmt.Errorf("invalid bus type: %s", c.Bus.Type)
	}

	if c.Storage.Type != "mongodb" && c.Storage.Type != "inmemory" {
		return fmt.Errorf("invalid storage type: %s", c.Storage.Type)
	}

	if c.Bus.MaxRetries < 1 {
		return fmt.Errorf("invalid bus max retries: %d", c.Bus.MaxRetries)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("invalid cache ttl: %s", c.Cache.TTL)
	}

	return nil
}
