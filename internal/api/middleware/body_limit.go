package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wastewise/backend/pkg/response"
)

// BodyLimit 全局请求体大小限制中间件
// maxBytes: 允许的最大请求体字节数（如 10<<20 = 10MB）
// 声明长度超限时直接返回 413；未声明长度的请求在读取超限时由 Handler 处理
func BodyLimit(maxBytes int64, write response.Writer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			write(c, http.StatusRequestEntityTooLarge, "Request body too large")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
