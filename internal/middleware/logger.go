package middleware

import (
	"driveet-backend/internal/api/v1/common"
	"driveet-backend/pkg/logger"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader is echoed back so clients can quote it in support tickets.
const RequestIDHeader = "X-Request-ID"

// Logger writes one line per request. The user and the failure kind set by
// the handlers ride along, so a declined purchase or verification can be
// traced from the access log alone.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(common.RequestIDKey, requestID)

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if user, ok := common.CurrentUser(c); ok {
			fields = append(fields, zap.Uint("user_id", user.ID))
		}
		if kind, ok := c.Get(common.ErrorKindKey); ok {
			fields = append(fields, zap.String("error_kind", fmt.Sprint(kind)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case status >= 500:
			logger.Log.Error("request failed", fields...)
		case status >= 400:
			logger.Log.Warn("request rejected", fields...)
		default:
			logger.Log.Info("request", fields...)
		}
	}
}
