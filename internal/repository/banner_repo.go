package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront_202610/internal/model"
)

// BannerRepository 轮播图仓储接口
type BannerRepository interface {
	Create(ctx context.Context, banner *model.Banner) error
	ListActive(ctx context.Context) ([]model.Banner, error)
	SetActive(ctx context.Context, id int64, active bool) (bool, error)
}

type bannerRepo struct {
	db *gorm.DB
}

// NewBannerRepository 创建轮播图仓储
func NewBannerRepository(db *gorm.DB) BannerRepository {
	return &bannerRepo{db: db}
}

func (r *bannerRepo) Create(ctx context.Context, banner *model.Banner) error {
	return r.db.WithContext(ctx).Create(banner).Error
}

func (r *bannerRepo) ListActive(ctx context.Context) ([]model.Banner, error) {
	var banners []model.Banner
	err := r.db.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC, id ASC")
		}).
		Where("active = ?", true).
		Order("id ASC").
		Find(&banners).Error
	return banners, err
}

// SetActive 返回值表示该轮播图是否存在
func (r *bannerRepo) SetActive(ctx context.Context, id int64, active bool) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Banner{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	err := r.db.WithContext(ctx).
		Model(&model.Banner{}).
		Where("id = ?", id).
		Update("active", active).Error
	return err == nil, err
}
