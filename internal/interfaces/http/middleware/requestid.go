// Package middleware provides HTTP middleware.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shakespeare-rag-api/pkg/logger"
)

const (
	// RequestIDHeader carries the request ID.
	RequestIDHeader = "X-Request-ID"
)

// RequestID assigns every request an ID, honoring one supplied by the
// caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)

		ctx := logger.WithContext(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}
