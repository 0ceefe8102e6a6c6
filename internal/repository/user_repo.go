package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"storefront_202610/internal/model"
)

// ==================== UserRepository 用户仓库 ====================

// UserRepository 用户仓库接口
type UserRepository interface {
	Create(ctx context.Context, user *model.SysUser) error
	GetByID(ctx context.Context, id int64) (*model.SysUser, error)
	GetByUsername(ctx context.Context, username string) (*model.SysUser, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	SetActive(ctx context.Context, id int64, active bool) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ListRecent(ctx context.Context, limit int) ([]model.SysUser, error)
	NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error)
}

// ==================== 实现 ====================

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 创建用户
func (r *userRepository) Create(ctx context.Context, user *model.SysUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID 根据 ID 获取用户，不存在返回 nil, nil
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.SysUser, error) {
	var user model.SysUser
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

// GetByUsername 根据用户名获取用户，不存在返回 nil, nil
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.SysUser, error) {
	var user model.SysUser
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

// UpdateLastLogin 更新最后登录时间
func (r *userRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.SysUser{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

// SetActive 启用/禁用用户
func (r *userRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.db.WithContext(ctx).
		Model(&model.SysUser{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

// ExistsByUsername 检查用户名是否存在
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.SysUser{}).
		Where("username = ?", username).
		Count(&count).Error
	return count > 0, err
}

// ListRecent 最近注册的用户
func (r *userRepository) ListRecent(ctx context.Context, limit int) ([]model.SysUser, error) {
	if limit <= 0 {
		limit = 5
	}
	var users []model.SysUser
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// NamesByIDs 用户 ID -> 用户名
func (r *userRepository) NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var users []model.SysUser
	if err := r.db.WithContext(ctx).Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
