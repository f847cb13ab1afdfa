package middleware

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"estate-gap-backend/internal/shared/server/respond"
	"estate-gap-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 envelope and one structured log
// line. gin's own recovery output is discarded.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		telemetry.Error("http.panic", map[string]any{
			"request_id": RequestIDFromContext(c),
			"route":      c.FullPath(),
			"method":     c.Request.Method,
			"error":      fmt.Sprint(rec),
			"stack":      string(debug.Stack()),
		})
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "unexpected server error", nil)
	})
}
