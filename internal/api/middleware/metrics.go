package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/energysplit/internal/observability/metrics"
)

// Metrics records request count and latency per matched route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
