package console

import (
	"context"
	"fmt"
	"math"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// DashboardAPI 仪表盘依赖的接口
type DashboardAPI interface {
	FetchDashboardStats(ctx context.Context) (*DashboardStats, error)
	FetchPieCharts(ctx context.Context) (*PieCharts, error)
	FetchBarCharts(ctx context.Context) (*BarCharts, error)
	FetchLineCharts(ctx context.Context) (*LineCharts, error)
}

// Card 指标卡片
type Card struct {
	Key    string // revenue, users, orders, products (与 changePercent 的 key 一致)
	Label  string
	Value  string
	Badge  PercentBadge
	Prefix string
}

// Dashboard 管理后台首页
// 各区块独立加载、独立渲染，互不等待
type Dashboard struct {
	api  DashboardAPI
	feed FeedSource
	log  *zap.Logger

	Stats    *Slice[*DashboardStats]
	Pie      *Slice[*PieCharts]
	Bar      *Slice[*BarCharts]
	Line     *Slice[*LineCharts]
	Activity *Slice[[]ActivityEntry]
	Users    *Slice[[]RecentUser]

	wg conc.WaitGroup
}

func NewDashboard(api DashboardAPI, feed FeedSource, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{
		api:      api,
		feed:     feed,
		log:      logger,
		Stats:    NewSlice[*DashboardStats](),
		Pie:      NewSlice[*PieCharts](),
		Bar:      NewSlice[*BarCharts](),
		Line:     NewSlice[*LineCharts](),
		Activity: NewSlice[[]ActivityEntry](),
		Users:    NewSlice[[]RecentUser](),
	}
}

// Mount 并发发起全部请求后立即返回
func (d *Dashboard) Mount(ctx context.Context) {
	launch(&d.wg, d.log, "stats", func() error { return d.Stats.Load(ctx, d.api.FetchDashboardStats) })
	launch(&d.wg, d.log, "pie", func() error { return d.Pie.Load(ctx, d.api.FetchPieCharts) })
	launch(&d.wg, d.log, "bar", func() error { return d.Bar.Load(ctx, d.api.FetchBarCharts) })
	launch(&d.wg, d.log, "line", func() error { return d.Line.Load(ctx, d.api.FetchLineCharts) })

	if d.feed != nil {
		launch(&d.wg, d.log, "activity", func() error { return d.Activity.Load(ctx, d.feed.Activity) })
		launch(&d.wg, d.log, "recent_users", func() error { return d.Users.Load(ctx, d.feed.RecentUsers) })
	}
}

// Wait 等待本轮全部请求结束 (CLI 与测试使用，渲染不依赖它)
func (d *Dashboard) Wait() {
	d.wg.Wait()
}

func launch(wg *conc.WaitGroup, log *zap.Logger, section string, load func() error) {
	wg.Go(func() {
		if err := load(); err != nil {
			log.Warn("区块加载失败", zap.String("section", section), zap.Error(err))
		}
	})
}

// Cards 四张指标卡片；统计未就绪时返回 nil
func (d *Dashboard) Cards() []Card {
	st := d.Stats.Snapshot()
	if !st.Ready() || st.Data == nil {
		return nil
	}
	count := st.Data.Count
	change := st.Data.ChangePercent

	return []Card{
		{Key: "revenue", Label: "Revenue", Prefix: "₹", Value: formatAmount(count.Revenue), Badge: Badge(change["revenue"])},
		{Key: "users", Label: "Users", Value: fmt.Sprint(count.User), Badge: Badge(change["users"])},
		{Key: "orders", Label: "Transactions", Value: fmt.Sprint(count.Order), Badge: Badge(change["orders"])},
		{Key: "products", Label: "Products", Value: fmt.Sprint(count.Product), Badge: Badge(change["products"])},
	}
}

// Breakdown 分类占比，按占比降序
func (d *Dashboard) Breakdown() []BreakdownEntry {
	st := d.Pie.Snapshot()
	if st.Data == nil {
		return nil
	}
	return SortedBreakdown(st.Data.CategoryCount)
}

// BarChartHTML 柱状图 HTML；数据未就绪时渲染空图
func (d *Dashboard) BarChartHTML(dark bool) (string, error) {
	return RevenueOrdersChart(d.Bar.Snapshot().Data, dark)
}

func formatAmount(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
