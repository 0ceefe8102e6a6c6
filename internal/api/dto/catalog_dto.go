package dto

import "storefront_202610/internal/model"

// ==================== 分类 ====================

// CreateCategoryReq 新建分类
type CreateCategoryReq struct {
	Name          string   `json:"name" binding:"required,max=100"`
	Subcategories []string `json:"subcategories" binding:"max=50"`
}

type SubcategoryResp struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CategoryResp struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	Subcategories []SubcategoryResp `json:"subcategories"`
}

func ToCategoryResp(c *model.Category) CategoryResp {
	resp := CategoryResp{
		ID:            c.ID,
		Name:          c.Name,
		Slug:          c.Slug,
		Subcategories: make([]SubcategoryResp, 0, len(c.Subcategories)),
	}
	for _, s := range c.Subcategories {
		resp.Subcategories = append(resp.Subcategories, SubcategoryResp{ID: s.ID, Name: s.Name, Slug: s.Slug})
	}
	return resp
}

// ==================== 轮播图 ====================

type BannerPhotoResp struct {
	ID       int64  `json:"id"`
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// BannerResp 轮播图组，photos 按展示顺序
type BannerResp struct {
	ID     int64             `json:"id"`
	Title  string            `json:"title"`
	Photos []BannerPhotoResp `json:"photos"`
}

func ToBannerResp(b *model.Banner) BannerResp {
	resp := BannerResp{
		ID:     b.ID,
		Title:  b.Title,
		Photos: make([]BannerPhotoResp, 0, len(b.Photos)),
	}
	for _, p := range b.Photos {
		resp.Photos = append(resp.Photos, BannerPhotoResp{ID: p.ID, PublicID: p.PublicID, URL: p.URL})
	}
	return resp
}
