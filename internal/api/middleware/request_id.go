package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDCtxKey = "request_id"
)

// 调用方传入的追踪 ID 只接受可安全写入日志与响应头的字符
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,63}$`)

// RequestID 为每个请求分配追踪 ID
// 合法的 X-Request-ID 原样沿用，缺失或不合法时生成 UUID v4
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !requestIDPattern.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDCtxKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom 取出当前请求的追踪 ID；未经过 RequestID 中间件时为空串
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDCtxKey)
}
