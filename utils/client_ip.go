package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
)

var ipHeaderCandidates = []string{
	"X-Forwarded-For",
	"Proxy-Client-IP",
	"WL-Proxy-Client-IP",
	"X-Real-IP",
}

// ClientIP returns the originating client address, preferring proxy headers.
func ClientIP(c *gin.Context) string {
	for _, header := range ipHeaderCandidates {
		value := c.GetHeader(header)
		if value == "" || strings.EqualFold(value, "unknown") {
			continue
		}
		if header == "X-Forwarded-For" {
			value = strings.TrimSpace(strings.Split(value, ",")[0])
		}
		if value != "" {
			return value
		}
	}
	return c.ClientIP()
}
