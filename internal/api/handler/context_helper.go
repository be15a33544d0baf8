package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wastewise/backend/internal/api/middleware"
	"wastewise/backend/internal/policy"
	"wastewise/backend/internal/service"
	apperr "wastewise/backend/pkg/errors"
	"wastewise/backend/pkg/response"
)

// callerFrom 解析调用方身份
// 携带有效 Bearer Token 时以 Token 为准，忽略请求体/查询串中的 user_id 与 role
// defaultRole 为空表示 role 必填
func callerFrom(c *gin.Context, userID uint, role string, defaultRole policy.Role) (service.Caller, error) {
	if claims := middleware.ClaimsFrom(c); claims != nil {
		r, err := policy.ParseRole(claims.Role)
		if err != nil {
			return service.Caller{}, apperr.Wrap(apperr.ErrAuth, "Invalid token", err)
		}
		return service.Caller{UserID: claims.UserID, Role: r}, nil
	}

	if role == "" {
		if defaultRole == "" {
			return service.Caller{}, apperr.Validation("Missing role")
		}
		return service.Caller{UserID: userID, Role: defaultRole}, nil
	}
	r, err := policy.ParseRole(role)
	if err != nil {
		return service.Caller{}, apperr.Wrap(apperr.ErrValidation, "Invalid role", err)
	}
	return service.Caller{UserID: userID, Role: r}, nil
}

// readCaller 读类接口的调用方：role 必填，user 角色须带 user_id
func readCaller(c *gin.Context, userID uint, role string) (service.Caller, error) {
	caller, err := callerFrom(c, userID, role, "")
	if err != nil {
		return caller, err
	}
	if caller.Role == policy.RoleUser && caller.UserID == 0 {
		return caller, apperr.Validation("Missing user_id")
	}
	return caller, nil
}

// statusOf 错误分类到 HTTP 状态码
func statusOf(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrInference):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError 按错误分类写出响应；5xx 存储类错误不向客户端暴露细节
func writeError(c *gin.Context, err error, write response.Writer) {
	status := statusOf(err)
	_ = c.Error(err)

	switch {
	case status == http.StatusRequestEntityTooLarge:
		write(c, status, "Request body too large")
	case status == http.StatusInternalServerError:
		write(c, status, "internal server error")
	default:
		write(c, status, apperr.Message(err))
	}
}
