package monitoring

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// MonitoringMiddleware counts requests and records latency. Requests matched to
// predictRoute also feed the prediction latency average. Any request slower
// than slow is logged as a performance event.
func MonitoringMiddleware(metrics *Metrics, logger *Logger, predictRoute string, slow time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementRequest()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		ip := c.ClientIP()
		requestID := c.GetString("request_id")

		metrics.RecordResponseTime(duration)
		metrics.RecordRequestByStatus(status)
		if status >= 400 {
			metrics.IncrementError()
		}

		event := "slow_request"
		if route != "" && route == predictRoute {
			metrics.RecordPredictionLatency(duration)
			event = "slow_prediction"
		}

		logger.RequestLogger(c.Request.Method, c.Request.URL.Path, ip, requestID, status, duration)

		if slow > 0 && duration > slow {
			logger.PerformanceLogger(event, duration.Seconds(), "seconds")
		}

		// client errors are already logged by the error handler
		if status >= 500 {
			for _, err := range c.Errors {
				logger.APIErrorLogger(err.Err, c.Request.Method, c.Request.URL.Path, ip, status)
			}
			logger.SystemLogger("server_error", fmt.Sprintf("status %d on %s (request %s)", status, route, requestID))
		}
	}
}
