package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/weatherwear/pkg/metrics"
)

// metricsMiddleware records request counts, latency and error codes per route.
func metricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	if collector == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		if endpoint == "/metrics" {
			return
		}
		collector.RecordAPIRequest(endpoint, c.Request.Method, strconv.Itoa(c.Writer.Status()))
		collector.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if len(c.Errors) > 0 {
			collector.RecordAPIError(asHTTPError(c.Errors.Last().Err).Code, endpoint)
		}
	}
}
