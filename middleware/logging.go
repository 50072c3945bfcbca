package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// Logging returns a logging middleware for HTTP requests. WebSocket
// upgrade requests are skipped since they stay open for minutes.
func Logging() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(params gin.LogFormatterParams) string {
		if params.Request.Header.Get("Upgrade") == "websocket" {
			return ""
		}
		return fmt.Sprintf("%s | %3d | %13v | %s %s\n",
			params.TimeStamp.Format("2006/01/02 15:04:05"),
			params.StatusCode,
			params.Latency,
			params.Method,
			params.Path,
		)
	})
}
