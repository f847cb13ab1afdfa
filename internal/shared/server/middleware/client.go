package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	clientIDKey    = "clientId"
	clientIDHeader = "X-Client-Id"
	maxClientIDLen = 128
)

// ClientID stores the caller's client identifier from the X-Client-Id header.
// Oversized values are ignored.
func ClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(clientIDHeader))
		if id != "" && len(id) <= maxClientIDLen {
			c.Set(clientIDKey, id)
		}
		c.Next()
	}
}

// SetClientID records the client a handler resolved from the request body.
func SetClientID(c *gin.Context, id string) {
	if id = strings.TrimSpace(id); id != "" {
		c.Set(clientIDKey, id)
	}
}

// ClientIDFromContext returns the client identifier, if any.
func ClientIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(clientIDKey)
}
