package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront_202610/internal/api/dto"
	"storefront_202610/internal/service"
)

// DashboardController 后台仪表盘
// 四个数据集各自独立接口，前端并发请求、分别渲染
type DashboardController struct {
	dashboardSvc *service.DashboardService
}

func NewDashboardController(dashboardSvc *service.DashboardService) *DashboardController {
	return &DashboardController{dashboardSvc: dashboardSvc}
}

// Stats GET /api/admin/dashboard/stats
func (c *DashboardController) Stats(ctx *gin.Context) {
	stats, err := c.dashboardSvc.Stats(ctx.Request.Context())
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "success", dto.ToDashboardStatsResp(stats))
}

// Pie GET /api/admin/dashboard/pie
func (c *DashboardController) Pie(ctx *gin.Context) {
	pie, err := c.dashboardSvc.PieCharts(ctx.Request.Context())
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "success", dto.PieChartsResp{CategoryCount: pie.CategoryCount})
}

// Bar GET /api/admin/dashboard/bar
func (c *DashboardController) Bar(ctx *gin.Context) {
	bar, err := c.dashboardSvc.BarCharts(ctx.Request.Context())
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "success", dto.ToBarChartsResp(bar))
}

// Line GET /api/admin/dashboard/line
func (c *DashboardController) Line(ctx *gin.Context) {
	line, err := c.dashboardSvc.LineCharts(ctx.Request.Context())
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "success", dto.LineChartsResp{Months: line.Months, Users: line.Users})
}

// Activity GET /api/admin/dashboard/activity?limit=5
func (c *DashboardController) Activity(ctx *gin.Context) {
	entries, err := c.dashboardSvc.Activity(ctx.Request.Context(), queryLimit(ctx))
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "success", dto.ToActivityResp(entries))
}

// RecentUsers GET /api/admin/dashboard/recent-users?limit=5
func (c *DashboardController) RecentUsers(ctx *gin.Context) {
	users, err := c.dashboardSvc.RecentUsers(ctx.Request.Context(), queryLimit(ctx))
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "success", dto.ToRecentUsersResp(users))
}

func queryLimit(ctx *gin.Context) int {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "5"))
	if err != nil || limit <= 0 || limit > 50 {
		return 5
	}
	return limit
}
