package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"renovation-scope/internal/common/logger"
)

// RequestLogger logs one line per request, with the level chosen by status.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	log = logger.ForComponent(log, "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := map[string]interface{}{
			"method":     strings.ToUpper(c.Request.Method),
			"path":       path,
			"status":     status,
			"durationMs": time.Since(start).Milliseconds(),
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields)
		case status >= 400:
			log.Warn("HTTP request", fields)
		default:
			log.Info("HTTP request", fields)
		}
	}
}
