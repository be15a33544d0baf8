package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"wastewise/backend/internal/dto"
	"wastewise/backend/internal/model"
	"wastewise/backend/internal/policy"
	"wastewise/backend/internal/repository"
	apperr "wastewise/backend/pkg/errors"
	"wastewise/backend/pkg/jwt"
)

// ── 账户模块业务错误 ──

var (
	ErrEmailExists        = apperr.Validation("Email already exists")
	ErrPasswordTooLong    = apperr.Validation("Password too long") // bcrypt 上限 72 字节
	ErrInvalidCredentials = apperr.Wrap(apperr.ErrAuth, "Invalid email or password", nil)
)

// AuthService 账户业务接口
type AuthService interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest) (uint, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例；blacklist 可为 nil
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) SignUp(ctx context.Context, req *dto.SignUpRequest) (uint, error) {
	user, err := createUser(ctx, s.repo, s.logger, req.Name, req.Email, req.Password, policy.RoleUser)
	if err != nil {
		return 0, err
	}
	s.logger.Info("用户注册成功", zap.Uint("user_id", user.ID))
	return user.ID, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, apperr.Storage("query user", err)
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token
	token, err := s.jwtMgr.GenerateAccessToken(user.ID, user.Role.String(), user.Email)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.LoginResponse{
		Message: "User logged in successfully",
		User: dto.LoginUser{
			Email: user.Email,
			ID:    user.ID,
			Role:  user.Role.String(),
		},
		Token: token,
	}, nil
}

// Logout 将 Token 加入黑名单直至其自然过期
func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if s.blacklist == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.Error(err))
		return apperr.Storage("blacklist token", err)
	}
	return nil
}

// createUser 校验邮箱唯一后以 bcrypt 哈希保存用户
// 先查后插存在竞态，单写入方部署下可接受
func createUser(
	ctx context.Context,
	repo *repository.Repository,
	logger *zap.Logger,
	name, email, password string,
	role policy.Role,
) (*model.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, apperr.Validation("Missing name, email, or password")
	}
	if !role.Valid() {
		return nil, apperr.Wrap(apperr.ErrValidation, "unknown role", policy.ErrUnknownRole)
	}

	_, err := repo.User.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("查询邮箱失败", zap.Error(err))
		return nil, apperr.Storage("query user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		logger.Error("密码哈希失败", zap.Error(err))
		return nil, apperr.Storage("hash password", err)
	}

	user := &model.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     role,
	}
	if err := repo.User.Create(ctx, user); err != nil {
		logger.Error("创建用户失败", zap.Error(err))
		return nil, apperr.Storage("create user", err)
	}
	return user, nil
}
