package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/metrowx/metro-weather/pkg/metrics"
)

// MetricsMiddleware records per-request Prometheus counters and latency
// histograms on the shared collector.
func MetricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		collector.RecordAPIRequest(endpoint, c.Request.Method, strconv.Itoa(c.Writer.Status()))
		collector.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}
