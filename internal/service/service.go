package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wastewise/backend/config"
	"wastewise/backend/internal/classifier"
	"wastewise/backend/internal/imagestore"
	"wastewise/backend/internal/notify"
	"wastewise/backend/internal/policy"
	"wastewise/backend/internal/repository"
	apperr "wastewise/backend/pkg/errors"
	"wastewise/backend/pkg/jwt"
)

// Caller 调用方身份；游客的 UserID 为 0
type Caller struct {
	UserID uint
	Role   policy.Role
}

// TokenBlacklist 注销 Token 的存储，未启用 Redis 时为 nil
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Deps Service 层依赖
type Deps struct {
	Config     *config.Config
	Repo       *repository.Repository
	Classifier classifier.Classifier
	Images     imagestore.Store
	Publisher  notify.Publisher
	JWT        *jwt.Manager
	Blacklist  TokenBlacklist
	Logger     *zap.Logger
}

// Service 所有 Service 的聚合入口
type Service struct {
	Analysis AnalysisService
	Auth     AuthService
	History  HistoryService
	User     UserService
	Export   ExportService
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	if d.Publisher == nil {
		d.Publisher = notify.Nop{}
	}
	history := NewHistoryService(d.Repo, d.Logger)
	return &Service{
		Analysis: NewAnalysisService(d.Config, d.Repo, d.Classifier, d.Images, d.Publisher, d.Logger),
		Auth:     NewAuthService(d.Repo, d.JWT, d.Blacklist, d.Logger),
		History:  history,
		User:     NewUserService(d.Repo, d.Logger),
		Export:   NewExportService(history, d.Logger),
	}
}

// logViolation 记录被角色门拒绝的操作
func logViolation(logger *zap.Logger, op policy.Operation, caller Caller, reason string) {
	logger.Warn("策略拒绝",
		zap.String("operation", op.String()),
		zap.String("role", caller.Role.String()),
		zap.Uint("user_id", caller.UserID),
		zap.String("reason", reason),
	)
}

// ErrRoleMismatch 声明的角色与账户角色不一致
var ErrRoleMismatch = apperr.Wrap(apperr.ErrForbidden, "role does not match account", nil)

// verifyAccount 核对调用方身份并返回账户 ID；游客返回 nil
// user/admin 须携带 user_id，对应的账户须存在且角色与声明一致
func verifyAccount(ctx context.Context, repo *repository.Repository, logger *zap.Logger, op policy.Operation, caller Caller) (*uint, error) {
	if caller.Role == policy.RoleGuest {
		return nil, nil
	}
	if caller.UserID == 0 {
		return nil, apperr.Validation("Missing user_id")
	}

	user, err := repo.User.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validation("Unknown user_id")
		}
		logger.Error("查询用户失败", zap.Error(err))
		return nil, apperr.Storage("query user", err)
	}
	if user.Role != caller.Role {
		logViolation(logger, op, caller, ErrRoleMismatch.Message)
		return nil, ErrRoleMismatch
	}

	id := user.ID
	return &id, nil
}
