package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "first forwarded address", headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, want: "203.0.113.9"},
		{name: "unknown is skipped", headers: map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "198.51.100.2"}, want: "198.51.100.2"},
		{name: "proxy client header", headers: map[string]string{"Proxy-Client-IP": "192.0.2.44"}, want: "192.0.2.44"},
		{name: "falls back to remote address", headers: nil, want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, ClientIP(c))
		})
	}
}
