package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"shakespeare-rag-api/pkg/errors"
)

// RateLimiter is the limiter behind the rate-limit middleware.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// RateLimit rejects requests over the limit with 429. Keys combine
// client IP and route so one noisy endpoint cannot starve the rest.
func RateLimit(enabled bool, limiter RateLimiter) gin.HandlerFunc {
	if !enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()
		if !limiter.Allow(c.Request.Context(), key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":     errors.CodeTooManyRequests,
				"message":  "rate limit exceeded",
				"trace_id": c.GetString("trace_id"),
			})
			return
		}
		c.Next()
	}
}
