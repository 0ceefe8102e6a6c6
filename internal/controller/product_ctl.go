package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_202610/internal/api/dto"
	"storefront_202610/internal/repository"
	"storefront_202610/internal/service"
)

type ProductController struct {
	productSvc *service.ProductService
}

func NewProductController(productSvc *service.ProductService) *ProductController {
	return &ProductController{productSvc: productSvc}
}

// List 商品列表
// GET /api/products?category_id=&keyword=&page=&page_size=
func (c *ProductController) List(ctx *gin.Context) {
	var req dto.ProductListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	products, total, err := c.productSvc.ListProducts(ctx.Request.Context(), repository.ProductFilter{
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Keyword:       req.Keyword,
		Page:          req.Page,
		PageSize:      req.PageSize,
	})
	if err != nil {
		failErr(ctx, err)
		return
	}

	list := make([]dto.ProductResp, 0, len(products))
	for i := range products {
		list = append(list, dto.ToProductResp(&products[i]))
	}
	ok(ctx, "success", dto.ProductListResp{
		List:     list,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// Get 商品详情
// GET /api/products/:id
func (c *ProductController) Get(ctx *gin.Context) {
	id, valid := pathID(ctx)
	if !valid {
		return
	}

	product, err := c.productSvc.GetProduct(ctx.Request.Context(), id)
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "success", dto.ToProductResp(product))
}

// Create 新建商品 (multipart 或 urlencoded，仅基本信息)
// POST /api/admin/products
func (c *ProductController) Create(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		fail(ctx, http.StatusBadRequest, "请使用 multipart/form-data 提交")
		return
	}

	basics, err := service.ParseProductBasics(form)
	if err != nil {
		failErr(ctx, err)
		return
	}

	product, err := c.productSvc.CreateProduct(ctx.Request.Context(), basics)
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "创建成功", dto.ToProductResp(product))
}

// Update 更新商品及其颜色变体
// PUT /api/admin/products/:id (multipart/form-data)
//
//	name, price, description, category, subcategory
//	numColorVariants
//	colorName{i}, colorStock{i}, colorImage{i}, colorImages{i}, existingColorImageIds{i}
func (c *ProductController) Update(ctx *gin.Context) {
	id, valid := pathID(ctx)
	if !valid {
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		fail(ctx, http.StatusBadRequest, "请使用 multipart/form-data 提交")
		return
	}

	basics, err := service.ParseProductBasics(form)
	if err != nil {
		failErr(ctx, err)
		return
	}
	sub, err := service.ParseVariantSubmission(form)
	if err != nil {
		failErr(ctx, err)
		return
	}

	product, err := c.productSvc.UpdateProduct(ctx.Request.Context(), id, basics, sub)
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "Product updated", dto.ToProductResp(product))
}
