// Package main provides the LINE bot server entry point.
package main

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/miulabs/miu-linebot-go/internal/logger"
	"github.com/miulabs/miu-linebot-go/internal/metrics"
)

// securityHeadersMiddleware adds security headers to all responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests and counts error responses.
func loggingMiddleware(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		entry := log.WithField("method", method).
			WithField("path", path).
			WithField("status", status).
			WithField("duration_ms", duration.Milliseconds()).
			WithField("ip", c.ClientIP())

		if status >= 400 {
			m.HTTPErrorsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
		}

		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("Request completed with errors")
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Debug("Request completed")
		}
	}
}
