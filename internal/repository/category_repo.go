package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront_202610/internal/model"
)

// CategoryRepository 分类仓储接口
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Names(ctx context.Context) (map[int64]string, error)
}

type categoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

// Names 分类 ID -> 名称
func (r *categoryRepo) Names(ctx context.Context) (map[int64]string, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Select("id", "name").Find(&categories).Error; err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}
