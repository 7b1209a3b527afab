package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/pkg/logger"
)

// Logger returns a gin middleware for logging. Server errors are also written
// to the error category log when multiLogger is set.
func Logger(log *zap.Logger, multiLogger *logger.MultiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		// polling endpoints would drown everything else at info
		if c.Writer.Status() < 400 && c.Request.Method == "GET" {
			log.Debug("HTTP request", fields...)
		} else {
			log.Info("HTTP request", fields...)
		}

		if c.Writer.Status() >= 500 && multiLogger != nil {
			multiLogger.LogAppError("HTTP error response", fields...)
		}
	}
}
