package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront_202610/internal/model"
	"storefront_202610/internal/repository"
	"storefront_202610/pkg/logger"
)

// ==================== 错误定义 ====================

var (
	ErrProductNotFound    = errors.New("商品不存在")
	ErrCategoryNotFound   = errors.New("分类不存在")
	ErrInvalidSubmission  = errors.New("提交数据不合法")
	ErrUnknownImage       = errors.New("图片不属于该商品")
	ErrTooManyVariants    = errors.New("变体数量超过上限")
	ErrSubcategoryInvalid = errors.New("子分类不属于该分类")
)

// MaxColorVariants 单个商品允许的变体上限
const MaxColorVariants = 50

// ==================== 提交结构 ====================

// VariantInput 一个颜色变体的提交内容
// ExistingIDs 为保留的已有图片，顺序即展示顺序；NewImages 追加在其后
type VariantInput struct {
	ColorName   string
	Stock       int
	ColorImage  *multipart.FileHeader
	NewImages   []*multipart.FileHeader
	ExistingIDs []string
}

// VariantSubmission 变体整体提交
// Provided=false 表示表单未携带 numColorVariants，变体保持不变
type VariantSubmission struct {
	Provided bool
	Variants []VariantInput
}

// ProductBasics 商品基本信息，nil 字段表示不修改
type ProductBasics struct {
	Name          *string
	PriceAmount   *int64
	Description   *string
	CategoryID    *int64
	SubcategoryID *int64
}

// ==================== 表单解析 ====================

// ParseVariantSubmission 解析多部分表单中的变体字段
//
//	numColorVariants          变体数量
//	colorName{i}              名称，缺省为 "Variant {i+1}"
//	colorStock{i}             库存，缺省为 0
//	colorImage{i}             专属图 (可选)
//	colorImages{i}            新增图库文件 (0..n)
//	existingColorImageIds{i}  保留的已有图片 public_id，逗号分隔
func ParseVariantSubmission(form *multipart.Form) (*VariantSubmission, error) {
	sub := &VariantSubmission{}
	if form == nil {
		return sub, nil
	}

	raw, ok := firstValue(form, "numColorVariants")
	if !ok {
		return sub, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: numColorVariants=%q", ErrInvalidSubmission, raw)
	}
	if n > MaxColorVariants {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyVariants, n, MaxColorVariants)
	}

	sub.Provided = true
	sub.Variants = make([]VariantInput, 0, n)
	for i := 0; i < n; i++ {
		v := VariantInput{}

		name, _ := firstValue(form, fmt.Sprintf("colorName%d", i))
		v.ColorName = strings.TrimSpace(name)
		if v.ColorName == "" {
			v.ColorName = fmt.Sprintf("Variant %d", i+1)
		}

		stock, _ := firstValue(form, fmt.Sprintf("colorStock%d", i))
		stock = strings.TrimSpace(stock)
		if stock != "" {
			v.Stock, err = strconv.Atoi(stock)
			if err != nil || v.Stock < 0 {
				return nil, fmt.Errorf("%w: colorStock%d=%q", ErrInvalidSubmission, i, stock)
			}
		}

		if files := form.File[fmt.Sprintf("colorImage%d", i)]; len(files) > 0 {
			v.ColorImage = files[0]
		}
		v.NewImages = form.File[fmt.Sprintf("colorImages%d", i)]

		ids, _ := firstValue(form, fmt.Sprintf("existingColorImageIds%d", i))
		v.ExistingIDs = splitIDs(ids)

		sub.Variants = append(sub.Variants, v)
	}
	return sub, nil
}

// ParseProductBasics 解析基本信息字段: name, price, description, category, subcategory
// price 为十进制字符串 (如 "25.99")，换算为最小货币单位
func ParseProductBasics(form *multipart.Form) (ProductBasics, error) {
	var b ProductBasics
	if form == nil {
		return b, nil
	}

	if v, ok := firstValue(form, "name"); ok {
		name := strings.TrimSpace(v)
		if name == "" {
			return b, fmt.Errorf("%w: name 不能为空", ErrInvalidSubmission)
		}
		b.Name = &name
	}
	if v, ok := firstValue(form, "price"); ok && strings.TrimSpace(v) != "" {
		amount, err := ParsePrice(v)
		if err != nil {
			return b, err
		}
		b.PriceAmount = &amount
	}
	if v, ok := firstValue(form, "description"); ok {
		b.Description = &v
	}
	if v, ok := firstValue(form, "category"); ok {
		id, err := parseOptionalID(v)
		if err != nil {
			return b, fmt.Errorf("%w: category=%q", ErrInvalidSubmission, v)
		}
		b.CategoryID = &id
	}
	if v, ok := firstValue(form, "subcategory"); ok {
		id, err := parseOptionalID(v)
		if err != nil {
			return b, fmt.Errorf("%w: subcategory=%q", ErrInvalidSubmission, v)
		}
		b.SubcategoryID = &id
	}
	return b, nil
}

// ParsePrice "25.99" -> 2599
func ParsePrice(s string) (int64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: price=%q", ErrInvalidSubmission, s)
	}
	// 必须用 math.Round 修正浮点精度
	return int64(math.Round(f * 100)), nil
}

func firstValue(form *multipart.Form, key string) (string, bool) {
	vals, ok := form.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func splitIDs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

func parseOptionalID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// ==================== ProductService ====================

type ProductService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	deletionRepo repository.DeletionRepository
	storage      *StorageService
	log          *zap.Logger
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	deletionRepo repository.DeletionRepository,
	storage *StorageService,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		deletionRepo: deletionRepo,
		storage:      storage,
		log:          logger.Named("ProductService"),
	}
}

// GetProduct 商品详情 (含变体与图库)
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("查询商品失败: %w", err)
	}
	return product, nil
}

// ListProducts 商品分页列表
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	return s.productRepo.List(ctx, filter)
}

// CreateProduct 新建商品 (仅基本信息，变体通过 UpdateProduct 提交)
func (s *ProductService) CreateProduct(ctx context.Context, basics ProductBasics) (*model.Product, error) {
	if basics.Name == nil {
		return nil, fmt.Errorf("%w: name 不能为空", ErrInvalidSubmission)
	}
	product := &model.Product{PriceDivisor: 100}
	if err := s.applyBasics(ctx, product, basics); err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("创建商品失败: %w", err)
	}
	return product, nil
}

// UpdateProduct 更新商品基本信息并整体替换变体
//
// 流程:
//  1. 校验保留的 public_id 均属于该商品
//  2. 上传新文件 (专属图 + 图库)
//  3. 事务内更新基本信息并替换变体
//  4. 提交后删除不再引用的存储对象
//
// 事务失败时立即删除本次上传的对象，删除失败的进入待删除队列
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, basics ProductBasics, sub *VariantSubmission) (*model.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.applyBasics(ctx, product, basics); err != nil {
		return nil, err
	}

	// 现有图片索引 (跨变体，允许图片在变体之间移动)
	existing := make(map[string]model.VariantPhoto)
	oldRefs := make(map[string]struct{})
	for _, c := range product.Colors {
		for _, p := range c.Photos {
			existing[p.PublicID] = p
			oldRefs[p.PublicID] = struct{}{}
		}
		if c.ColorImagePublicID != "" {
			oldRefs[c.ColorImagePublicID] = struct{}{}
		}
	}

	if sub != nil && sub.Provided {
		for i, v := range sub.Variants {
			for _, pid := range v.ExistingIDs {
				if _, ok := existing[pid]; !ok {
					return nil, fmt.Errorf("%w: existingColorImageIds%d 包含 %s", ErrUnknownImage, i, pid)
				}
			}
		}
	}

	var (
		colors   []model.ColorVariant
		uploaded []string
	)
	if sub != nil && sub.Provided {
		colors, uploaded, err = s.buildColors(ctx, product.Colors, existing, sub.Variants)
		if err != nil {
			s.discard(ctx, uploaded)
			return nil, err
		}
	}

	fields := map[string]interface{}{
		"name":           product.Name,
		"description":    product.Description,
		"price_amount":   product.PriceAmount,
		"category_id":    product.CategoryID,
		"subcategory_id": product.SubcategoryID,
	}

	err = s.productRepo.Transaction(ctx, func(txRepo repository.ProductRepository) error {
		if err := txRepo.UpdateFields(ctx, id, fields); err != nil {
			return err
		}
		if sub == nil || !sub.Provided {
			return nil
		}
		return txRepo.ReplaceColors(ctx, id, colors)
	})
	if err != nil {
		s.discard(ctx, uploaded)
		return nil, fmt.Errorf("保存商品失败: %w", err)
	}

	if sub != nil && sub.Provided {
		newRefs := make(map[string]struct{})
		for _, c := range colors {
			for _, p := range c.Photos {
				newRefs[p.PublicID] = struct{}{}
			}
			if c.ColorImagePublicID != "" {
				newRefs[c.ColorImagePublicID] = struct{}{}
			}
		}
		var orphaned []string
		for pid := range oldRefs {
			if _, ok := newRefs[pid]; !ok {
				orphaned = append(orphaned, pid)
			}
		}
		s.discard(ctx, orphaned)
	}

	s.log.Info("商品已更新",
		zap.Int64("product_id", id),
		zap.Int("variants", len(colors)),
		zap.Int("uploaded", len(uploaded)),
	)
	return s.GetProduct(ctx, id)
}

// applyBasics 把非 nil 字段写入 product，并校验分类关系
func (s *ProductService) applyBasics(ctx context.Context, product *model.Product, b ProductBasics) error {
	if b.Name != nil {
		product.Name = *b.Name
	}
	if b.Description != nil {
		product.Description = *b.Description
	}
	if b.PriceAmount != nil {
		product.PriceAmount = *b.PriceAmount
	}
	if b.CategoryID != nil {
		product.CategoryID = *b.CategoryID
	}
	if b.SubcategoryID != nil {
		product.SubcategoryID = *b.SubcategoryID
	}

	if product.CategoryID == 0 {
		if product.SubcategoryID != 0 {
			return ErrSubcategoryInvalid
		}
		return nil
	}
	cat, err := s.categoryRepo.GetByID(ctx, product.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("查询分类失败: %w", err)
	}
	if product.SubcategoryID == 0 {
		return nil
	}
	for _, sc := range cat.Subcategories {
		if sc.ID == product.SubcategoryID {
			return nil
		}
	}
	return ErrSubcategoryInvalid
}

// matchOldVariants 为每个提交的变体找到对应的旧变体下标，找不到为 -1
// 依次按图片归属、颜色名、位置匹配，每个旧变体最多被认领一次
func matchOldVariants(old []model.ColorVariant, inputs []VariantInput) []int {
	prev := make([]int, len(inputs))
	for i := range prev {
		prev[i] = -1
	}
	claimed := make([]bool, len(old))
	claim := func(i, k int) {
		prev[i] = k
		claimed[k] = true
	}

	owner := make(map[string]int)
	for k, c := range old {
		for _, p := range c.Photos {
			owner[p.PublicID] = k
		}
	}
	for i, in := range inputs {
		for _, pid := range in.ExistingIDs {
			if k, ok := owner[pid]; ok && !claimed[k] {
				claim(i, k)
				break
			}
		}
	}

	for i, in := range inputs {
		if prev[i] >= 0 {
			continue
		}
		for k, c := range old {
			if !claimed[k] && c.ColorName == in.ColorName {
				claim(i, k)
				break
			}
		}
	}

	for i := range inputs {
		if prev[i] < 0 && i < len(old) && !claimed[i] {
			claim(i, i)
		}
	}
	return prev
}

// buildColors 上传新文件并组装新的变体列表
// 返回已上传的 public_id，调用方负责失败时清理
func (s *ProductService) buildColors(
	ctx context.Context,
	old []model.ColorVariant,
	existing map[string]model.VariantPhoto,
	inputs []VariantInput,
) ([]model.ColorVariant, []string, error) {
	colors := make([]model.ColorVariant, 0, len(inputs))
	var uploaded []string
	prev := matchOldVariants(old, inputs)

	for i, in := range inputs {
		c := model.ColorVariant{
			Position:  i,
			ColorName: in.ColorName,
			Stock:     in.Stock,
		}

		// 专属图: 新文件覆盖，否则沿用对应旧变体的
		if in.ColorImage != nil {
			obj, err := s.uploadFile(ctx, in.ColorImage)
			if err != nil {
				return nil, uploaded, fmt.Errorf("上传 colorImage%d 失败: %w", i, err)
			}
			uploaded = append(uploaded, obj.PublicID)
			c.ColorImagePublicID = obj.PublicID
			c.ColorImageURL = obj.URL
		} else if k := prev[i]; k >= 0 {
			c.ColorImagePublicID = old[k].ColorImagePublicID
			c.ColorImageURL = old[k].ColorImageURL
		}

		seen := make(map[string]struct{}, len(in.ExistingIDs))
		for _, pid := range in.ExistingIDs {
			if _, dup := seen[pid]; dup {
				continue
			}
			seen[pid] = struct{}{}
			p := existing[pid]
			c.Photos = append(c.Photos, model.VariantPhoto{
				PublicID: p.PublicID,
				URL:      p.URL,
				Rank:     len(c.Photos),
			})
		}

		for j, fh := range in.NewImages {
			obj, err := s.uploadFile(ctx, fh)
			if err != nil {
				return nil, uploaded, fmt.Errorf("上传 colorImages%d[%d] 失败: %w", i, j, err)
			}
			uploaded = append(uploaded, obj.PublicID)
			c.Photos = append(c.Photos, model.VariantPhoto{
				PublicID: obj.PublicID,
				URL:      obj.URL,
				Rank:     len(c.Photos),
			})
		}

		colors = append(colors, c)
	}
	return colors, uploaded, nil
}

func (s *ProductService) uploadFile(ctx context.Context, fh *multipart.FileHeader) (StoredObject, error) {
	return uploadHeader(ctx, s.storage, fh)
}

// uploadHeader 读取表单文件并上传
func uploadHeader(ctx context.Context, storage *StorageService, fh *multipart.FileHeader) (StoredObject, error) {
	f, err := fh.Open()
	if err != nil {
		return StoredObject{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return StoredObject{}, err
	}
	return storage.Upload(ctx, data, fh.Filename, fh.Header.Get("Content-Type"))
}

// discard 删除存储对象，失败的进入待删除队列由定时任务重试
func (s *ProductService) discard(ctx context.Context, publicIDs []string) {
	var failed []string
	for _, pid := range publicIDs {
		if err := s.storage.Delete(ctx, pid); err != nil {
			s.log.Warn("删除存储对象失败，加入清理队列", zap.String("public_id", pid), zap.Error(err))
			failed = append(failed, pid)
		}
	}
	if len(failed) == 0 {
		return
	}
	if err := s.deletionRepo.Enqueue(ctx, failed...); err != nil {
		s.log.Error("写入清理队列失败", zap.Strings("public_ids", failed), zap.Error(err))
	}
}
