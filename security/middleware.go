package security

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"invoicing-backend/logger"
	"invoicing-backend/utils"
)

var methodPattern = regexp.MustCompile(`^[A-Z]{3,10}$`)

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
		c.Next()
	}
}

func RequestValidation() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !methodPattern.MatchString(c.Request.Method) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid request")
			return
		}
		c.Next()
	}
}

// RateLimit throttles /api/ requests per client IP and path.
func RateLimit(limiter RateLimiter) gin.HandlerFunc {
	log := logger.WithComponent("ratelimit")

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !strings.HasPrefix(path, "/api/") {
			c.Next()
			return
		}

		key := utils.ClientIP(c) + ":" + path
		if !limiter.Allow(key) {
			log.Warn().Str("key", key).Msg("rate limit exceeded")
			utils.RespondWithError(c, http.StatusTooManyRequests, "Rate limit exceeded. Try again in a few minutes.")
			return
		}
		c.Next()
	}
}

// LoginThrottle rejects sign-in requests from client IPs with too many
// recent failures.
func LoginThrottle(attempts *LoginAttemptService) gin.HandlerFunc {
	log := logger.WithComponent("login-throttle")

	return func(c *gin.Context) {
		ip := utils.ClientIP(c)
		blocked, err := attempts.IsBlocked(c.Request.Context(), ip)
		if err != nil {
			// fail open: the counter store being down must not lock everyone out
			log.Error().Err(err).Str("ip", ip).Msg("failed to read login attempts")
			c.Next()
			return
		}
		if blocked {
			utils.RespondWithError(c, http.StatusForbidden, "Too many login attempts. Please try again later.")
			return
		}
		c.Next()
	}
}
