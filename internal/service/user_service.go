package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wastewise/backend/internal/dto"
	"wastewise/backend/internal/model"
	"wastewise/backend/internal/policy"
	"wastewise/backend/internal/repository"
	apperr "wastewise/backend/pkg/errors"
)

// UserService 用户管理业务接口
type UserService interface {
	// List 列出全部用户，仅管理员可用
	List(ctx context.Context, caller Caller) ([]dto.UserResponse, error)
	// CreateAdmin 创建管理员账户（维护工具使用）
	CreateAdmin(ctx context.Context, name, email, password string) (uint, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) List(ctx context.Context, caller Caller) ([]dto.UserResponse, error) {
	d := policy.Authorize(policy.OpReadUsers, caller.Role, caller.UserID, 0)
	if !d.Allowed {
		logViolation(s.logger, policy.OpReadUsers, caller, d.Reason)
		return nil, apperr.Wrap(apperr.ErrForbidden, d.Reason, nil)
	}
	if _, err := verifyAccount(ctx, s.repo, s.logger, policy.OpReadUsers, caller); err != nil {
		return nil, err
	}

	users, err := s.repo.User.List(ctx)
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, apperr.Storage("list users", err)
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, toUserResponse(&users[i]))
	}
	return resp, nil
}

func (s *userService) CreateAdmin(ctx context.Context, name, email, password string) (uint, error) {
	user, err := createUser(ctx, s.repo, s.logger, name, email, password, policy.RoleAdmin)
	if err != nil {
		return 0, err
	}
	s.logger.Info("管理员已创建", zap.Uint("user_id", user.ID))
	return user.ID, nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
