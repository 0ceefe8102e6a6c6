package dto

import (
	"time"

	"storefront_202610/internal/model"
)

// ==================== 请求 DTO ====================

// ProductListReq 商品列表查询
type ProductListReq struct {
	CategoryID    int64  `form:"category_id"`
	SubcategoryID int64  `form:"subcategory_id"`
	Keyword       string `form:"keyword" binding:"max=100"`
	Page          int    `form:"page" binding:"omitempty,gte=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,gte=1,lte=100"`
}

// ==================== 响应 DTO ====================

// ImageResp 已持久化的图片
type ImageResp struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// ColorVariantResp 颜色变体
// photos[0] 为默认展示图
type ColorVariantResp struct {
	ID         int64       `json:"id"`
	ColorName  string      `json:"colorName"`
	Stock      int         `json:"stock"`
	ColorImage *ImageResp  `json:"colorImage"`
	Photos     []ImageResp `json:"photos"`
}

// ProductResp 商品详情
type ProductResp struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	Price         float64            `json:"price"` // 元
	PriceAmount   int64              `json:"price_amount"`
	Description   string             `json:"description"`
	CategoryID    int64              `json:"category_id"`
	SubcategoryID int64              `json:"subcategory_id"`
	TotalStock    int                `json:"total_stock"`
	Colors        []ColorVariantResp `json:"colors"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ProductListResp 分页列表
type ProductListResp struct {
	List     []ProductResp `json:"list"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// ==================== 转换 ====================

// ToProductResp model -> DTO
func ToProductResp(p *model.Product) ProductResp {
	divisor := p.PriceDivisor
	if divisor <= 0 {
		divisor = 100
	}

	resp := ProductResp{
		ID:            p.ID,
		Name:          p.Name,
		Price:         float64(p.PriceAmount) / float64(divisor),
		PriceAmount:   p.PriceAmount,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
		TotalStock:    p.TotalStock(),
		Colors:        make([]ColorVariantResp, 0, len(p.Colors)),
		UpdatedAt:     p.UpdatedAt,
	}

	for _, c := range p.Colors {
		cv := ColorVariantResp{
			ID:        c.ID,
			ColorName: c.ColorName,
			Stock:     c.Stock,
			Photos:    make([]ImageResp, 0, len(c.Photos)),
		}
		if c.ColorImageURL != "" {
			cv.ColorImage = &ImageResp{PublicID: c.ColorImagePublicID, URL: c.ColorImageURL}
		}
		for _, ph := range c.Photos {
			cv.Photos = append(cv.Photos, ImageResp{PublicID: ph.PublicID, URL: ph.URL})
		}
		resp.Colors = append(resp.Colors, cv)
	}
	return resp
}
