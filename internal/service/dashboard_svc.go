package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"storefront_202610/internal/model"
	"storefront_202610/internal/repository"
)

// ==================== 返回结构 ====================

// ChangePercent 的 key 与前端卡片一致 (注意是复数，与 count 的 key 不同)
const (
	MetricRevenue  = "revenue"
	MetricUsers    = "users"
	MetricOrders   = "orders"
	MetricProducts = "products"
)

// DashboardStats 核心指标与环比
// ChangePercent 为原始值，不做截断 (展示层负责 ±100 截断)
type DashboardStats struct {
	Count         model.StatsCounts
	ChangePercent map[string]float64
}

// PieCharts 分类占比 (百分比，保留两位小数)
type PieCharts struct {
	CategoryCount map[string]float64
}

// BarCharts 近 N 个月营收与订单数
type BarCharts struct {
	Months  []string
	Revenue []int64 // 最小货币单位
	Orders  []int64
}

// LineCharts 近 N 个月新增用户
type LineCharts struct {
	Months []string
	Users  []int64
}

// ActivityEntry 动态流中的一条
type ActivityEntry struct {
	User   string
	Action string
	Item   string
	At     time.Time
}

// UncategorizedLabel 未分类商品在饼图中的名称
const UncategorizedLabel = "Uncategorized"

// ChartMonths 柱状图/折线图覆盖的月数 (含当月)
const ChartMonths = 6

// ==================== DashboardService ====================

type DashboardService struct {
	statsRepo    repository.StatsRepository
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
	now          func() time.Time
}

func NewDashboardService(
	statsRepo repository.StatsRepository,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
) *DashboardService {
	return &DashboardService{
		statsRepo:    statsRepo,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		now:          time.Now,
	}
}

// SetClock 替换时钟 (测试用)
func (s *DashboardService) SetClock(now func() time.Time) {
	s.now = now
}

// Today 当前日期 "2006-01-02"
func (s *DashboardService) Today() string {
	return s.now().Format("2006-01-02")
}

// Stats 实时指标 + 相对最近一次历史快照的变化百分比
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	counts, err := s.statsRepo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("统计指标失败: %w", err)
	}

	prev, err := s.statsRepo.LatestSnapshotBefore(ctx, s.Today())
	if err != nil {
		return nil, fmt.Errorf("读取快照失败: %w", err)
	}
	if prev == nil {
		prev = &model.StatsCounts{}
	}

	return &DashboardStats{
		Count: counts,
		ChangePercent: map[string]float64{
			MetricRevenue:  PercentChange(prev.Revenue, counts.Revenue),
			MetricUsers:    PercentChange(prev.Users, counts.Users),
			MetricOrders:   PercentChange(prev.Orders, counts.Orders),
			MetricProducts: PercentChange(prev.Products, counts.Products),
		},
	}, nil
}

// Snapshot 把当前指标写入今日快照
func (s *DashboardService) Snapshot(ctx context.Context) (model.StatsCounts, error) {
	counts, err := s.statsRepo.Counts(ctx)
	if err != nil {
		return counts, err
	}
	return counts, s.statsRepo.SaveSnapshot(ctx, s.Today(), counts)
}

// PercentChange (cur-prev)/prev*100，保留两位小数
// 基数为 0 时: 有增长记 100，否则记 0
func PercentChange(prev, cur int64) float64 {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return round2(float64(cur-prev) / float64(prev) * 100)
}

// PieCharts 各分类商品数占比
func (s *DashboardService) PieCharts(ctx context.Context) (*PieCharts, error) {
	byCategory, err := s.productRepo.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("统计分类失败: %w", err)
	}
	names, err := s.categoryRepo.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询分类名称失败: %w", err)
	}

	var total int64
	for _, n := range byCategory {
		total += n
	}

	out := &PieCharts{CategoryCount: make(map[string]float64, len(byCategory))}
	if total == 0 {
		return out, nil
	}
	for id, n := range byCategory {
		label, ok := names[id]
		if !ok {
			label = UncategorizedLabel
		}
		out.CategoryCount[label] += round2(float64(n) / float64(total) * 100)
	}
	return out, nil
}

// BarCharts 近 ChartMonths 个月的营收与订单数 (已取消订单不计)
func (s *DashboardService) BarCharts(ctx context.Context) (*BarCharts, error) {
	start, months := s.monthWindow()
	orders, err := s.statsRepo.OrdersSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}

	out := &BarCharts{
		Months:  months,
		Revenue: make([]int64, len(months)),
		Orders:  make([]int64, len(months)),
	}
	for _, o := range orders {
		if i := monthIndex(start, o.CreatedAt); i >= 0 && i < len(months) {
			out.Revenue[i] += o.TotalAmount
			out.Orders[i]++
		}
	}
	return out, nil
}

// LineCharts 近 ChartMonths 个月的新增顾客
func (s *DashboardService) LineCharts(ctx context.Context) (*LineCharts, error) {
	start, months := s.monthWindow()
	signups, err := s.statsRepo.SignupsSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("查询注册用户失败: %w", err)
	}

	out := &LineCharts{Months: months, Users: make([]int64, len(months))}
	for _, at := range signups {
		if i := monthIndex(start, at); i >= 0 && i < len(months) {
			out.Users[i]++
		}
	}
	return out, nil
}

// Activity 最近订单组成的动态流
func (s *DashboardService) Activity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	orders, err := s.statsRepo.RecentOrders(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("查询最近订单失败: %w", err)
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.UserID)
	}
	names, err := s.userRepo.NamesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("查询用户名失败: %w", err)
	}

	entries := make([]ActivityEntry, 0, len(orders))
	for _, o := range orders {
		user := names[o.UserID]
		if user == "" {
			user = fmt.Sprintf("user#%d", o.UserID)
		}
		entries = append(entries, ActivityEntry{
			User:   user,
			Action: activityAction(o.Status),
			Item:   fmt.Sprintf("order #%d", o.ID),
			At:     o.CreatedAt,
		})
	}
	return entries, nil
}

// RecentUsers 最近注册的用户
func (s *DashboardService) RecentUsers(ctx context.Context, limit int) ([]model.SysUser, error) {
	return s.userRepo.ListRecent(ctx, limit)
}

func activityAction(status model.OrderStatus) string {
	switch status {
	case model.OrderStatusPaid:
		return "purchased"
	case model.OrderStatusShipped:
		return "received"
	case model.OrderStatusCancelled:
		return "cancelled"
	default:
		return "placed"
	}
}

// monthWindow 返回窗口起点 (最早月份的 1 号 0 点) 与月份标签
func (s *DashboardService) monthWindow() (time.Time, []string) {
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	start := first.AddDate(0, -(ChartMonths - 1), 0)

	months := make([]string, 0, ChartMonths)
	for i := 0; i < ChartMonths; i++ {
		months = append(months, start.AddDate(0, i, 0).Format("Jan"))
	}
	return start, months
}

func monthIndex(start, at time.Time) int {
	at = at.In(start.Location())
	return (at.Year()-start.Year())*12 + int(at.Month()) - int(start.Month())
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
