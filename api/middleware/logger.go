package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/internal/metrics"
)

// RequestLogger logs each request and records it in the HTTP metrics. Request
// bodies and query strings are not logged because they can carry patient data.
func RequestLogger(m *metrics.Metrics) gin.HandlerFunc {
	if m == nil {
		m = metrics.Get()
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, route, status, latency)

		fields := map[string]interface{}{
			"status":     status,
			"method":     c.Request.Method,
			"path":       path,
			"latency_ms": latency.Milliseconds(),
			"ip":         c.ClientIP(),
		}

		if username := GetUsername(c); username != "" {
			fields["user"] = username
		}

		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := logger.WithFieldsCtx(c.Request.Context(), fields)

		switch {
		case status >= 500:
			entry.Error("server error")
		case status >= 400:
			entry.Warn("client error")
		default:
			entry.Info("request completed")
		}
	}
}
