package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront_202610/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)

	// 变体操作
	ReplaceColors(ctx context.Context, productID int64, colors []model.ColorVariant) error
	ListPhotoPublicIDs(ctx context.Context, productID int64) ([]string, error)

	// 统计
	Count(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context) (map[int64]int64, error)

	// 事务
	WithTx(tx *gorm.DB) ProductRepository
	Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error
}

// ==================== 过滤条件 ====================

// ProductFilter 商品过滤条件
type ProductFilter struct {
	CategoryID    int64
	SubcategoryID int64
	Keyword       string
	Page          int
	PageSize      int
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.withColors(r.db.WithContext(ctx)).First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// withColors 预加载变体与图库，保证顺序稳定
func (r *productRepo) withColors(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Colors", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Colors.Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC, id ASC")
		})
}

func (r *productRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, id).Error
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.CategoryID > 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.SubcategoryID > 0 {
		query = query.Where("subcategory_id = ?", filter.SubcategoryID)
	}
	if filter.Keyword != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := r.withColors(query).
		Order("updated_at DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&products).Error

	return products, total, err
}

// ReplaceColors 整体替换商品的变体与图库
// 旧变体与图片物理删除，新数据按传入顺序写入 (Position / Rank 由调用方给定)
func (r *productRepo) ReplaceColors(ctx context.Context, productID int64, colors []model.ColorVariant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var variantIDs []int64
		if err := tx.Model(&model.ColorVariant{}).
			Where("product_id = ?", productID).
			Pluck("id", &variantIDs).Error; err != nil {
			return err
		}

		if len(variantIDs) > 0 {
			if err := tx.Unscoped().
				Where("variant_id IN ?", variantIDs).
				Delete(&model.VariantPhoto{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().
				Where("id IN ?", variantIDs).
				Delete(&model.ColorVariant{}).Error; err != nil {
				return err
			}
		}

		if len(colors) == 0 {
			return nil
		}
		for i := range colors {
			colors[i].ID = 0
			colors[i].ProductID = productID
			for j := range colors[i].Photos {
				colors[i].Photos[j].ID = 0
				colors[i].Photos[j].VariantID = 0
			}
		}
		return tx.Create(&colors).Error
	})
}

// ListPhotoPublicIDs 商品当前引用的全部存储对象 (图库 + 专属图)
func (r *productRepo) ListPhotoPublicIDs(ctx context.Context, productID int64) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.VariantPhoto{}).
		Joins("JOIN product_color_variants v ON v.id = product_variant_photos.variant_id").
		Where("v.product_id = ? AND v.deleted_at IS NULL", productID).
		Pluck("product_variant_photos.public_id", &ids).Error
	if err != nil {
		return nil, err
	}

	var colorIDs []string
	err = r.db.WithContext(ctx).
		Model(&model.ColorVariant{}).
		Where("product_id = ? AND color_image_public_id <> ''", productID).
		Pluck("color_image_public_id", &colorIDs).Error
	if err != nil {
		return nil, err
	}
	return append(ids, colorIDs...), nil
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&total).Error
	return total, err
}

func (r *productRepo) CountByCategory(ctx context.Context) (map[int64]int64, error) {
	type result struct {
		CategoryID int64
		Count      int64
	}
	var results []result

	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Select("category_id, COUNT(*) as count").
		Group("category_id").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	stats := make(map[int64]int64, len(results))
	for _, r := range results {
		stats[r.CategoryID] = r.Count
	}
	return stats, nil
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{db: tx}
}

func (r *productRepo) Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
