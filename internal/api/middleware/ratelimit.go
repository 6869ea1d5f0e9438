package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/Jaaystones/social-media-microservice/internal/api/dto"
	"github.com/Jaaystones/social-media-microservice/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware admits or rejects the request under one budget.
// Tiers stack: the router applies the global tier to every route and a
// stricter per-endpoint tier on top of sensitive ones, and a rejection
// by the first aborts the chain before the second is consulted.
//
// Identity is the authenticated user when RequireUser ran earlier in the
// chain, the client IP otherwise, so pre-auth traffic is still bounded.
func RateLimitMiddleware(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := UserID(c)
		if identity == "" {
			identity = c.ClientIP()
		}

		decision, err := limiter.Allow(c.Request.Context(), identity)
		if err != nil {
			// Counter store unreachable and the limiter is configured
			// fail-closed: shed the request rather than admit unmetered.
			slog.Error("Rate limit check failed",
				"error", err,
				"path", c.Request.URL.Path,
			)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.ErrorResponse{
				Error:     "Service unavailable",
				Message:   "Unable to process the request right now, please retry",
				Timestamp: time.Now(),
			})
			return
		}

		if !decision.Allowed {
			slog.Warn("Rate limit exceeded",
				"identity", identity,
				"path", c.Request.URL.Path,
			)
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(decision.RetryAfter)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error:     "Too many requests",
				Message:   "Request rate limit exceeded, slow down",
				Timestamp: time.Now(),
			})
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Next()
	}
}

// retryAfterSeconds rounds the reset delay up to whole seconds so a
// client honoring the header never retries inside the same window.
func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	return int(math.Ceil(d.Seconds()))
}
