package middleware

import (
	"time"

	"go-leave/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextLogger attaches a request-scoped logger to the request context
// and writes one access log line per request. Run it after RequestID.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()

		reqLogger := logger.With(zap.String("request_id", contextutil.GetRequestID(ctx)))
		c.Request = c.Request.WithContext(contextutil.WithLogger(ctx, reqLogger))

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if id := c.GetUint(ContextEmployeeID); id != 0 {
			fields = append(fields, zap.Uint("employee_id", id))
		}
		if c.Writer.Status() >= 500 {
			reqLogger.Error("http request", fields...)
			return
		}
		reqLogger.Info("http request", fields...)
	}
}
