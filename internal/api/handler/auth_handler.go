package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wastewise/backend/internal/api/middleware"
	"wastewise/backend/internal/dto"
	"wastewise/backend/internal/service"
	"wastewise/backend/pkg/response"
)

// AuthHandler 账户模块 HTTP 处理器，响应体统一为 {"message": ...}
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// SignUp 用户注册
// POST /sign_up
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err, "Missing name, email, or password"), response.Message)
		return
	}

	if _, err := h.authSvc.SignUp(c.Request.Context(), &req); err != nil {
		writeError(c, err, response.Message)
		return
	}

	response.Message(c, http.StatusCreated, "User signed up successfully")
}

// Login 用户登录
// POST /log_in
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err, "Missing email or password"), response.Message)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err, response.Message)
		return
	}

	response.OK(c, result)
}

// Logout 注销当前 Token
// POST /log_out
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		response.Message(c, http.StatusUnauthorized, "Missing or invalid token")
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), claims); err != nil {
		writeError(c, err, response.Message)
		return
	}

	c.Status(http.StatusNoContent)
}
