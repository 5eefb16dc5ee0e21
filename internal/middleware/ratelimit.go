package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit limits each client IP to max requests per window using a
// fixed-window counter in redis. Counters live in redis rather than an
// in-process map so the limit holds across multiple server processes and
// stale entries expire on their own. Fails open when redis is down or not
// configured: availability over strictness for a storefront.
func RateLimit(rdb *redis.Client, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())
		ctx := c.Request.Context()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Println("[RATELIMIT] [ERROR] redis incr failed:", err)
			c.Next()
			return
		}
		if count == 1 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				log.Println("[RATELIMIT] [ERROR] redis expire failed:", err)
			}
		}

		if count > int64(max) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
