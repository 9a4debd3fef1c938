package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"mining_webapp/internal/logger"
	"mining_webapp/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit applies l per client IP. name labels the metrics and the log lines.
// A limiter store error lets the request through.
func RateLimit(name string, l ratelimit.Limiter, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		ident := c.ClientIP()

		d, err := l.Allow(c.Request.Context(), ident, now())
		if err != nil {
			RLErrors.WithLabelValues(name).Inc()
			logger.Warn("rate limiter store failed, allowing request", "limiter", name, "ip", ident, "error", err)
		}

		if !d.Allowed {
			RLBlocked.WithLabelValues(name).Inc()
			retry := int(math.Ceil(d.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retry,
			})
			return
		}

		RLRequests.WithLabelValues(name).Inc()
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Next()
	}
}
