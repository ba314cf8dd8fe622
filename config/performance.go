package config

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoicing-backend/logger"
)

const (
	slowRequestThreshold = 200 * time.Millisecond
	requestIDHeader      = "X-Request-ID"
)

// PerformanceLogger writes one access log line per request, tagged with the
// caller's X-Request-ID or a generated one, and warns on slow requests.
func PerformanceLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		latency := time.Since(start)
		log := logger.WithRequestID(requestID)

		log.Info().
			Str("component", "http").
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("request")

		if latency > slowRequestThreshold {
			log.Warn().
				Str("component", "http").
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Dur("latency", latency).
				Msg("slow request")
		}
	}
}
