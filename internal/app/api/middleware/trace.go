package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/payflow/gateway/pkg/tool"
)

// TraceMiddleware adds a trace ID to the request context. It reads
// X-Request-ID if provided by the client; otherwise generates one. The trace
// ID is stored in both gin.Context (key: "traceID") and the request context.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Request-ID")
		if traceID == "" {
			traceID = tool.GenerateUUIDV7()
		}

		c.Set("traceID", traceID)
		ctx := context.WithValue(c.Request.Context(), "traceID", traceID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
