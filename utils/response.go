package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Success   bool                `json:"success"`
	Status    int                 `json:"status"`
	Error     string              `json:"error"`
	Message   string              `json:"message"`
	Field     string              `json:"field,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
	Path      string              `json:"path,omitempty"`
	Timestamp string              `json:"timestamp"`
}

func newErrorResponse(c *gin.Context, status int, message string) ErrorResponse {
	return ErrorResponse{
		Success:   false,
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      c.Request.URL.Path,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// RespondWithError aborts the request with the standard error body.
func RespondWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, newErrorResponse(c, status, message))
}

// RespondWithFieldErrors reports validation failures grouped by field. A
// single failing field is reported inline.
func RespondWithFieldErrors(c *gin.Context, fieldErrors map[string][]string) {
	body := newErrorResponse(c, http.StatusBadRequest, "Validation failed")
	if len(fieldErrors) == 1 {
		for field, msgs := range fieldErrors {
			body.Field = field
			if len(msgs) > 0 {
				body.Message = msgs[0]
			}
		}
	} else {
		body.Errors = fieldErrors
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}
