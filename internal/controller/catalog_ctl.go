package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront_202610/internal/api/dto"
	"storefront_202610/internal/service"
)

// ==================== 分类 ====================

type CategoryController struct {
	categorySvc *service.CategoryService
}

func NewCategoryController(categorySvc *service.CategoryService) *CategoryController {
	return &CategoryController{categorySvc: categorySvc}
}

// List GET /api/categories
func (c *CategoryController) List(ctx *gin.Context) {
	categories, err := c.categorySvc.List(ctx.Request.Context())
	if err != nil {
		failErr(ctx, err)
		return
	}

	out := make([]dto.CategoryResp, 0, len(categories))
	for i := range categories {
		out = append(out, dto.ToCategoryResp(&categories[i]))
	}
	ok(ctx, "success", out)
}

// Create POST /api/admin/categories
func (c *CategoryController) Create(ctx *gin.Context) {
	var req dto.CreateCategoryReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	category, err := c.categorySvc.Create(ctx.Request.Context(), req.Name, req.Subcategories)
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "创建成功", dto.ToCategoryResp(category))
}

// ==================== 轮播图 ====================

type BannerController struct {
	bannerSvc *service.BannerService
}

func NewBannerController(bannerSvc *service.BannerService) *BannerController {
	return &BannerController{bannerSvc: bannerSvc}
}

// List GET /api/banners
func (c *BannerController) List(ctx *gin.Context) {
	banners, err := c.bannerSvc.ListActive(ctx.Request.Context())
	if err != nil {
		failErr(ctx, err)
		return
	}

	out := make([]dto.BannerResp, 0, len(banners))
	for i := range banners {
		out = append(out, dto.ToBannerResp(&banners[i]))
	}
	ok(ctx, "success", out)
}

// Create POST /api/admin/banners (multipart: title, photos[], meta.{key})
func (c *BannerController) Create(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		fail(ctx, http.StatusBadRequest, "请使用 multipart/form-data 提交")
		return
	}

	meta := make(map[string]string)
	for key, vals := range form.Value {
		if strings.HasPrefix(key, "meta.") && len(vals) > 0 {
			meta[strings.TrimPrefix(key, "meta.")] = vals[0]
		}
	}

	banner, err := c.bannerSvc.Create(ctx.Request.Context(), ctx.PostForm("title"), meta, form.File["photos"])
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "创建成功", dto.ToBannerResp(banner))
}

// SetActive PUT /api/admin/banners/:id/active
func (c *BannerController) SetActive(ctx *gin.Context) {
	id, valid := pathID(ctx)
	if !valid {
		return
	}
	var req dto.SetActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	if err := c.bannerSvc.SetActive(ctx.Request.Context(), id, *req.Active); err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "更新成功", gin.H{"id": id, "active": *req.Active})
}
