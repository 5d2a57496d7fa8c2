package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"crypto-invoice.backend/pkg/logger"
	"crypto-invoice.backend/pkg/metrics"
)

// LoggerMiddleware logs HTTP requests using the structured logger and counts
// them per matched route.
func LoggerMiddleware(m *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()))

		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), latency, c.ClientIP())
	}
}
