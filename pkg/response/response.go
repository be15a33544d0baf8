package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 与前端客户端约定的扁平响应结构：
//   - 分析服务错误体为 {"error": "..."}
//   - 账户服务消息体为 {"message": "..."}
//   - 成功时直接返回业务数据，不做信封包装

// ErrorBody 分析服务错误响应
type ErrorBody struct {
	Error string `json:"error"`
}

// MessageBody 账户服务消息响应
type MessageBody struct {
	Message string `json:"message"`
}

// Writer 错误写出函数，Error 与 Message 均满足
type Writer func(c *gin.Context, httpStatus int, message string)

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 201 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// ── 错误响应 ──

// Error 通用错误响应 {"error": msg}
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, ErrorBody{Error: message})
}

// Message 通用消息响应 {"message": msg}
func Message(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, MessageBody{Message: message})
}

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "internal server error")
}
