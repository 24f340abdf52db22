package context

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const requestIDGinKey = "request_id"

func RequestIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if c.Request != nil {
		if value := RequestIDFromContext(c.Request.Context()); value != "" {
			return value
		}
	}
	return strings.TrimSpace(c.GetString(requestIDGinKey))
}

// SetRequestID stores the request id on both the gin context and the request context.
func SetRequestID(c *gin.Context, requestID string) {
	if c == nil || requestID == "" {
		return
	}
	c.Set(requestIDGinKey, requestID)
	if c.Request != nil {
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))
	}
}
