package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"proximity-service/pkg/logger"
)

// Logger returns a gin middleware that writes one structured access log
// entry per request.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		l := logger.WithContext(c.Request.Context(), log)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}

		switch {
		case c.Writer.Status() >= 500:
			l.Error("request completed", fields...)
		case c.Writer.Status() >= 400:
			l.Warn("request completed", fields...)
		default:
			l.Info("request completed", fields...)
		}
	}
}
