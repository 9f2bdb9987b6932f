package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/payrail/pkg/log"
	"go.uber.org/zap"
)

// RequestLogger emits one structured line per request with tracing metadata
// pulled from the request context.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.L(c.Request.Context()).Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
