package middleware

import (
	"strconv"
	"time"

	"natours/internal/apperrors"
	"natours/internal/services"
	"natours/internal/utils"
	"natours/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RateLimit allows max requests per client IP in each fixed window. Counter
// failures let the request through.
func RateLimit(counter services.CacheService, max int, window time.Duration, log *logger.Logger) gin.HandlerFunc {
	limit := strconv.Itoa(max)

	return func(c *gin.Context) {
		count, ttl, err := counter.IncrementWindow(c.Request.Context(), "ratelimit:"+c.ClientIP(), window)
		if err != nil {
			log.WithError(err).Warn("rate limit counter unavailable")
			c.Next()
			return
		}

		remaining := int64(max) - count
		if remaining < 0 {
			remaining = 0
		}
		reset := int64(ttl.Round(time.Second) / time.Second)
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset, 10))

		if count > int64(max) {
			c.Header("Retry-After", strconv.FormatInt(reset, 10))
			log.LogSecurityEvent("rate_limited", "low", map[string]interface{}{
				"ip":   c.ClientIP(),
				"path": c.Request.URL.Path,
			})
			_ = c.Error(apperrors.TooManyRequests(utils.MsgTooManyRequests))
			c.Abort()
			return
		}
		c.Next()
	}
}
