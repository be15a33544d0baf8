package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wastewise/backend/pkg/jwt"
	"wastewise/backend/pkg/response"
)

// 注入 gin.Context 的键
const (
	ClaimsKey = "claims"
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// TokenChecker 查询 Token 是否已注销
type TokenChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// OptionalJWT 可选 JWT 认证中间件
// 无 Authorization 头时直接放行，由请求体/查询串提供身份；
// 携带 Token 时必须有效且未注销，其身份覆盖请求中的 user_id/role。
// checker 为 nil 或 Redis 出错时跳过黑名单检查
func OptionalJWT(jwtMgr *jwt.Manager, checker TokenChecker, write response.Writer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := jwt.FromHeader(header)
		if !ok {
			write(c, http.StatusUnauthorized, "invalid authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			write(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		if checker != nil {
			revoked, err := checker.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Warn("检查 Token 黑名单失败", zap.Error(err))
			} else if revoked {
				write(c, http.StatusUnauthorized, "token revoked")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)

		c.Next()
	}
}

// ClaimsFrom 读取 OptionalJWT 注入的声明，未携带 Token 时返回 nil
func ClaimsFrom(c *gin.Context) *jwt.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}
