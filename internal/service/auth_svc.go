package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront_202610/internal/middleware"
	"storefront_202610/internal/model"
	"storefront_202610/internal/repository"
	"storefront_202610/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserDisabled       = errors.New("用户已被禁用")
	ErrInvalidToken       = errors.New("Token 无效")
	ErrUsernameTaken      = errors.New("用户名已存在")
	ErrUserNotFound       = errors.New("用户不存在")
)

// TokenPair 登录/刷新结果
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *model.SysUser
}

// AuthService 后台登录认证
type AuthService struct {
	userRepo repository.UserRepository
	jwt      *middleware.JWTManager
	log      *zap.Logger
}

// NewAuthService 工厂方法
func NewAuthService(userRepo repository.UserRepository, jwt *middleware.JWTManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		jwt:      jwt,
		log:      logger.Named("AuthService"),
	}
}

// Login 用户名密码登录，成功返回 Token 对
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.log.Warn("更新最后登录时间失败", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return pair, nil
}

// Refresh 用 Refresh Token 换新的 Token 对
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ParseToken(refreshToken)
	if err != nil || claims.Subject != middleware.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	// 确保用户仍然有效
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrUserDisabled
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *model.SysUser) (*TokenPair, error) {
	access, refresh, err := s.jwt.GenerateTokenPair(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("生成 Token 失败: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(s.jwt.Config().AccessTokenTTL),
		User:         user,
	}, nil
}

// EnsureAdmin 启动时创建初始管理员 (已存在则跳过)
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &model.SysUser{
		Username: username,
		Password: string(hashed),
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("创建管理员失败: %w", err)
	}
	s.log.Info("已创建初始管理员", zap.String("username", username))
	return nil
}

// Register 顾客注册
func (s *AuthService) Register(ctx context.Context, username, password, email string) (*model.SysUser, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.SysUser{
		Username: username,
		Password: string(hashed),
		Email:    email,
		Role:     model.RoleCustomer,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("注册失败: %w", err)
	}
	return user, nil
}

// SetUserActive 启用/禁用用户，禁用后无法登录与刷新 Token
func (s *AuthService) SetUserActive(ctx context.Context, id int64, active bool) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.userRepo.SetActive(ctx, id, active)
}
