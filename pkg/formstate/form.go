package formstate

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrLastVariant     = errors.New("cannot remove the last variant")
	ErrInvalidStock    = errors.New("stock must be a non-negative integer")
)

// ==================== 加载的商品 ====================

// Product 表单初始化所需的商品数据
type Product struct {
	ID            string
	Name          string
	Price         string // 十进制字符串，如 "25.99"
	Description   string
	CategoryID    string
	SubcategoryID string
	Colors        []ProductColor
}

// ProductColor 已保存的颜色变体
type ProductColor struct {
	ColorName     string
	Stock         int
	ColorImageURL string
	Photos        []PersistedImage
}

// Basics 商品基本信息
type Basics struct {
	Name          string
	Price         string
	Description   string
	CategoryID    string
	SubcategoryID string
}

// ==================== 变体 ====================

// Variant 编辑中的颜色变体
type Variant struct {
	ColorName string
	Stock     string // 输入框原值，空串提交为 0
	Images    []Image

	// 专属图: 新选文件 + 其预览；未选新文件时 ColorImageURL 为已保存图地址
	ColorImage    *File
	ColorPreview  Preview
	ColorImageURL string
}

// ColorImageDisplay 专属图渲染地址
func (v Variant) ColorImageDisplay() string {
	if v.ColorPreview != "" {
		return string(v.ColorPreview)
	}
	return v.ColorImageURL
}

// ==================== Form ====================

// Form 商品变体表单状态
// 非并发安全，只由一个调用方 (UI 线程) 修改
type Form struct {
	previews *PreviewRegistry
	loaded   bool
	id       string
	basics   Basics
	variants []Variant
}

func NewForm(previews *PreviewRegistry) *Form {
	if previews == nil {
		previews = NewPreviewRegistry()
	}
	return &Form{previews: previews}
}

// Previews 表单使用的预览注册表
func (f *Form) Previews() *PreviewRegistry { return f.previews }

// Loaded 是否已加载商品
func (f *Form) Loaded() bool { return f.loaded }

// ProductID 已加载商品的 ID
func (f *Form) ProductID() string { return f.id }

// Initialize 用已加载的商品覆盖表单，释放旧的预览
func (f *Form) Initialize(p *Product) {
	f.releaseAll()
	f.variants = nil
	if p == nil {
		f.loaded = false
		f.id = ""
		f.basics = Basics{}
		return
	}

	f.loaded = true
	f.id = p.ID
	f.basics = Basics{
		Name:          p.Name,
		Price:         p.Price,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
	}

	f.variants = make([]Variant, 0, len(p.Colors))
	for _, c := range p.Colors {
		images := make([]Image, 0, len(c.Photos))
		for _, ph := range c.Photos {
			images = append(images, ph)
		}
		f.variants = append(f.variants, Variant{
			ColorName:     c.ColorName,
			Stock:         strconv.Itoa(c.Stock),
			Images:        images,
			ColorImageURL: c.ColorImageURL,
		})
	}
}

// Basics 当前基本信息
func (f *Form) Basics() Basics { return f.basics }

// SetBasics 覆盖基本信息
func (f *Form) SetBasics(b Basics) { f.basics = b }

// SetCategory 切换分类时清空子分类
func (f *Form) SetCategory(categoryID string) {
	if f.basics.CategoryID != categoryID {
		f.basics.SubcategoryID = ""
	}
	f.basics.CategoryID = categoryID
}

// Variants 变体快照，调用方修改不影响表单
func (f *Form) Variants() []Variant {
	out := make([]Variant, len(f.variants))
	for i, v := range f.variants {
		v.Images = append([]Image(nil), v.Images...)
		out[i] = v
	}
	return out
}

// Len 变体数量
func (f *Form) Len() int { return len(f.variants) }

// AddVariant 追加空变体
func (f *Form) AddVariant() {
	f.variants = append(f.variants, Variant{})
}

// RemoveVariant 按位置删除变体，至少保留一个
func (f *Form) RemoveVariant(i int) error {
	if err := f.checkVariant(i); err != nil {
		return err
	}
	if len(f.variants) == 1 {
		return ErrLastVariant
	}
	f.releaseVariant(&f.variants[i])
	f.variants = append(f.variants[:i], f.variants[i+1:]...)
	return nil
}

func (f *Form) SetColorName(i int, name string) error {
	if err := f.checkVariant(i); err != nil {
		return err
	}
	f.variants[i].ColorName = name
	return nil
}

// SetStock 设置库存输入，允许空串
func (f *Form) SetStock(i int, stock string) error {
	if err := f.checkVariant(i); err != nil {
		return err
	}
	stock = strings.TrimSpace(stock)
	if stock != "" {
		n, err := strconv.Atoi(stock)
		if err != nil || n < 0 {
			return ErrInvalidStock
		}
	}
	f.variants[i].Stock = stock
	return nil
}

// ReplaceDedicatedImage 替换专属图，释放上一次的预览
func (f *Form) ReplaceDedicatedImage(i int, file File) error {
	if err := f.checkVariant(i); err != nil {
		return err
	}
	v := &f.variants[i]
	f.previews.Release(v.ColorPreview)
	v.ColorImage = &file
	v.ColorPreview = f.previews.Create(file)
	return nil
}

// ClearDedicatedImage 移除专属图预览与文件
func (f *Form) ClearDedicatedImage(i int) error {
	if err := f.checkVariant(i); err != nil {
		return err
	}
	v := &f.variants[i]
	f.previews.Release(v.ColorPreview)
	v.ColorImage = nil
	v.ColorPreview = ""
	v.ColorImageURL = ""
	return nil
}

// AppendGalleryImages 新选文件追加到图库末尾
func (f *Form) AppendGalleryImages(i int, files ...File) error {
	if err := f.checkVariant(i); err != nil {
		return err
	}
	v := &f.variants[i]
	for _, file := range files {
		v.Images = append(v.Images, PendingImage{File: file, Preview: f.previews.Create(file)})
	}
	return nil
}

// SetDefault 把第 idx 张图移到首位，其余保持相对顺序
func (f *Form) SetDefault(vi, idx int) error {
	if err := f.checkImage(vi, idx); err != nil {
		return err
	}
	images := f.variants[vi].Images
	img := images[idx]
	copy(images[1:idx+1], images[:idx])
	images[0] = img
	return nil
}

// RemoveImage 删除图库中的一张图，待上传图同时释放预览
func (f *Form) RemoveImage(vi, idx int) error {
	if err := f.checkImage(vi, idx); err != nil {
		return err
	}
	v := &f.variants[vi]
	if pending, ok := v.Images[idx].(PendingImage); ok {
		f.previews.Release(pending.Preview)
	}
	v.Images = append(v.Images[:idx], v.Images[idx+1:]...)
	return nil
}

// Commit 提交成功后丢弃本地文件与预览，新图已由服务端转为持久图
func (f *Form) Commit() {
	f.releaseAll()
	for i := range f.variants {
		v := &f.variants[i]
		v.ColorImage = nil
		v.ColorPreview = ""
		kept := v.Images[:0]
		for _, img := range v.Images {
			if _, ok := img.(PersistedImage); ok {
				kept = append(kept, img)
			}
		}
		v.Images = kept
	}
}

// Close 释放全部预览
func (f *Form) Close() {
	f.releaseAll()
}

func (f *Form) releaseAll() {
	for i := range f.variants {
		f.releaseVariant(&f.variants[i])
	}
}

func (f *Form) releaseVariant(v *Variant) {
	f.previews.Release(v.ColorPreview)
	for _, img := range v.Images {
		if pending, ok := img.(PendingImage); ok {
			f.previews.Release(pending.Preview)
		}
	}
}

func (f *Form) checkVariant(i int) error {
	if i < 0 || i >= len(f.variants) {
		return ErrIndexOutOfRange
	}
	return nil
}

func (f *Form) checkImage(vi, idx int) error {
	if err := f.checkVariant(vi); err != nil {
		return err
	}
	if idx < 0 || idx >= len(f.variants[vi].Images) {
		return ErrIndexOutOfRange
	}
	return nil
}
