package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront_202610/internal/controller"
	"storefront_202610/internal/middleware"
	"storefront_202610/internal/model"
)

// Controllers 路由依赖的全部控制器
type Controllers struct {
	Auth      *controller.AuthController
	Product   *controller.ProductController
	Category  *controller.CategoryController
	Banner    *controller.BannerController
	Dashboard *controller.DashboardController
	Task      *controller.TaskController // 可选，未启用后台任务时为 nil
}

// Options 路由级配置
type Options struct {
	JWT            *middleware.JWTManager
	Limiter        *middleware.SubmitLimiter
	SubmitCooldown time.Duration
	UploadDir      string // 本地存储目录，非空时挂载 /uploads
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctl Controllers, opts Options) {
	if opts.Limiter == nil {
		opts.Limiter = middleware.NewSubmitLimiter()
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0, "message": "ok"})
	})

	// 本地存储的静态文件
	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	api := r.Group("/api")
	{
		// auth 鉴权组
		auth := api.Group("/auth")
		{
			auth.POST("/login", ctl.Auth.Login)
			auth.POST("/refresh", ctl.Auth.Refresh)
			auth.POST("/register", ctl.Auth.Register)
		}

		// 前台公开接口
		api.GET("/products", ctl.Product.List)
		api.GET("/products/:id", ctl.Product.Get)
		api.GET("/categories", ctl.Category.List)
		api.GET("/banners", ctl.Banner.List)

		// 后台管理 (需登录 + admin 角色)
		admin := api.Group("/admin")
		admin.Use(
			middleware.JWTAuth(opts.JWT),
			middleware.RequireRole(model.RoleAdmin),
			middleware.AuditContext(),
		)
		{
			products := admin.Group("/products")
			{
				products.POST("", ctl.Product.Create)
				// PUT /api/admin/products/:id 同一商品短时间内重复提交直接拒绝
				products.PUT("/:id",
					middleware.SubmitCooldown(opts.Limiter, "product_update", opts.SubmitCooldown),
					ctl.Product.Update,
				)
			}

			admin.POST("/categories", ctl.Category.Create)
			admin.POST("/banners", ctl.Banner.Create)
			admin.PUT("/banners/:id/active", ctl.Banner.SetActive)
			admin.PUT("/users/:id/active", ctl.Auth.SetActive)

			dashboard := admin.Group("/dashboard")
			{
				dashboard.GET("/stats", ctl.Dashboard.Stats)
				dashboard.GET("/pie", ctl.Dashboard.Pie)
				dashboard.GET("/bar", ctl.Dashboard.Bar)
				dashboard.GET("/line", ctl.Dashboard.Line)
				dashboard.GET("/activity", ctl.Dashboard.Activity)
				dashboard.GET("/recent-users", ctl.Dashboard.RecentUsers)
			}

			if ctl.Task != nil {
				admin.GET("/tasks", ctl.Task.Status)
				admin.POST("/tasks/cleanup", ctl.Task.Cleanup)
			}
		}
	}
}
