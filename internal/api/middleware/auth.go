package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Jaaystones/social-media-microservice/internal/api/dto"
	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the authenticated user's id, stamped by the
// API gateway after it validates the session token.
const UserIDHeader = "x-user-id"

const userIDKey = "userID"

// RequireUser rejects requests that arrive without an authenticated user.
// The gateway strips this header from client traffic, so its presence is
// proof the request passed authentication upstream.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			slog.Warn("Request without authenticated user",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:     "Authentication required",
				Message:   "Please login to continue",
				Timestamp: time.Now(),
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user's id, or "" when the request
// did not pass through RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
