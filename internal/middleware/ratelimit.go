package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/authkit/api/internal/cache"
	"github.com/gin-gonic/gin"
)

// LoginRateLimit caps attempts per client IP within a fixed window. A nil
// storage or a redis error lets the request through: losing the limiter must
// not take down logins.
func LoginRateLimit(storage *cache.RedisStorage, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if storage == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate:login:%s", c.ClientIP())

		count, err := storage.Incr(c.Request.Context(), key, window)
		if err != nil {
			log.Printf("[RateLimit] redis error, failing open: %v", err)
			c.Next()
			return
		}

		if count > limit {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}
