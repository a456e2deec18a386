package middleware

import (
	"time"

	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDMiddleware propagates X-Request-ID, generating one when the caller did not send it.
// An X-Actor header, when present, is recorded on the rows the request writes.
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	ctx := types.SetRequestID(c.Request.Context(), requestID)
	if actor := c.GetHeader(types.HeaderActor); actor != "" {
		ctx = types.SetActor(ctx, actor)
	}
	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}

// TenantContextMiddleware copies the :tenant_id path parameter into the request context
// so service logs carry it
func TenantContextMiddleware(c *gin.Context) {
	if tenantID := c.Param("tenant_id"); tenantID != "" {
		c.Request = c.Request.WithContext(types.SetTenantID(c.Request.Context(), tenantID))
	}
	c.Next()
}

// LoggingMiddleware writes one structured line per request
func LoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithContext(c.Request.Context()).Debugw("request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
