package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"storefront_202610/internal/model"
	"storefront_202610/internal/repository"
)

var ErrCategoryNameEmpty = errors.New("分类名称不能为空")

// CategoryService 分类树
type CategoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// List 全部分类 (含子分类)，按名称排序
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.repo.List(ctx)
}

// Create 新建分类及其子分类
func (s *CategoryService) Create(ctx context.Context, name string, subcategories []string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNameEmpty
	}

	category := &model.Category{Name: name, Slug: Slugify(name)}
	seen := make(map[string]struct{})
	for _, sub := range subcategories {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			continue
		}
		slug := Slugify(sub)
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		category.Subcategories = append(category.Subcategories, model.Subcategory{Name: sub, Slug: slug})
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("创建分类失败: %w", err)
	}
	return category, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify "Men's Shoes" -> "men-s-shoes"
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
