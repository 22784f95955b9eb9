package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader is the request header carrying the idempotency key.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// IdempotencyKey copies the Idempotency-Key header into the request context.
func IdempotencyKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": "VCH-400", "error": "Idempotency-Key must be at most 255 characters"})
			return
		}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), idempotencyKeyKey, key))
		c.Next()
	}
}

// GetIdempotencyKey returns the header key, or fallback when the request has none.
func GetIdempotencyKey(ctx context.Context, fallback string) string {
	if key, ok := ctx.Value(idempotencyKeyKey).(string); ok && key != "" {
		return key
	}
	return strings.TrimSpace(fallback)
}
