package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront_202610/internal/model"
	"storefront_202610/internal/repository"
)

var dashboardNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newTestDashboardService(t *testing.T) (*DashboardService, *gorm.DB) {
	db := setupStoreTestDB(t)
	svc := NewDashboardService(
		repository.NewStatsRepository(db),
		repository.NewProductRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewUserRepository(db),
	)
	svc.SetClock(func() time.Time { return dashboardNow })
	return svc, db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func seedUser(t *testing.T, db *gorm.DB, name, role string, at time.Time) *model.SysUser {
	t.Helper()
	u := &model.SysUser{Username: name, Password: "x", Role: role, IsActive: true}
	u.CreatedAt = at
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedOrder(t *testing.T, db *gorm.DB, userID, amount int64, status model.OrderStatus, at time.Time) *model.Order {
	t.Helper()
	o := &model.Order{UserID: userID, TotalAmount: amount, Status: status}
	o.CreatedAt = at
	require.NoError(t, db.Create(o).Error)
	return o
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		prev, cur int64
		want      float64
	}{
		{100, 150, 50},
		{100, 50, -50},
		{500, 2000, 300},
		{3, 4, 33.33},
		{0, 0, 0},
		{0, 7, 100},
		{10, 0, -100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PercentChange(tt.prev, tt.cur), "prev=%d cur=%d", tt.prev, tt.cur)
	}
}

func TestDashboardService_Stats(t *testing.T) {
	svc, db := newTestDashboardService(t)
	ctx := context.Background()
	stats := repository.NewStatsRepository(db)

	amit := seedUser(t, db, "amit", model.RoleCustomer, day(2026, 10, 1))
	seedUser(t, db, "sara", model.RoleCustomer, day(2026, 10, 2))
	seedUser(t, db, "root", model.RoleAdmin, day(2026, 1, 1))
	seedOrder(t, db, amit.ID, 1000, model.OrderStatusPaid, day(2026, 10, 2))
	seedOrder(t, db, amit.ID, 1000, model.OrderStatusPaid, day(2026, 10, 3))
	seedOrder(t, db, amit.ID, 500, model.OrderStatusCancelled, day(2026, 10, 4))
	require.NoError(t, db.Create(&model.Product{Name: "Tee"}).Error)

	require.NoError(t, stats.SaveSnapshot(ctx, "2026-10-13", model.StatsCounts{Revenue: 100, Users: 9, Orders: 9, Products: 9}))
	require.NoError(t, stats.SaveSnapshot(ctx, "2026-10-14", model.StatsCounts{Revenue: 500, Users: 1, Orders: 2, Products: 0}))
	// 当天快照不参与环比
	require.NoError(t, stats.SaveSnapshot(ctx, "2026-10-15", model.StatsCounts{Revenue: 1, Users: 1, Orders: 1, Products: 1}))

	got, err := svc.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, model.StatsCounts{Revenue: 2000, Users: 2, Orders: 3, Products: 1}, got.Count)
	assert.Equal(t, 300.0, got.ChangePercent[MetricRevenue], "环比不截断")
	assert.Equal(t, 100.0, got.ChangePercent[MetricUsers])
	assert.Equal(t, 50.0, got.ChangePercent[MetricOrders])
	assert.Equal(t, 100.0, got.ChangePercent[MetricProducts])
}

func TestDashboardService_StatsWithoutSnapshot(t *testing.T) {
	svc, _ := newTestDashboardService(t)

	got, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatsCounts{}, got.Count)
	for _, key := range []string{MetricRevenue, MetricUsers, MetricOrders, MetricProducts} {
		assert.Equal(t, 0.0, got.ChangePercent[key], key)
	}
}

func TestDashboardService_Snapshot(t *testing.T) {
	svc, db := newTestDashboardService(t)
	ctx := context.Background()
	require.NoError(t, db.Create(&model.Product{Name: "Tee"}).Error)

	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Product{Name: "Cap"}).Error)
	counts, err := svc.Snapshot(ctx)
	require.NoError(t, err, "同日重复快照覆盖")
	assert.Equal(t, int64(2), counts.Products)

	var n int64
	db.Model(&model.StatsSnapshot{}).Count(&n)
	assert.Equal(t, int64(1), n)

	prev, err := repository.NewStatsRepository(db).LatestSnapshotBefore(ctx, "2026-10-16")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, int64(2), prev.Products)
}

func TestDashboardService_PieCharts(t *testing.T) {
	svc, db := newTestDashboardService(t)
	men := &model.Category{Name: "Men", Slug: "men"}
	women := &model.Category{Name: "Women", Slug: "women"}
	require.NoError(t, db.Create(men).Error)
	require.NoError(t, db.Create(women).Error)

	for _, p := range []model.Product{
		{Name: "a", CategoryID: men.ID},
		{Name: "b", CategoryID: men.ID},
		{Name: "c", CategoryID: women.ID},
		{Name: "d"},
	} {
		p := p
		require.NoError(t, db.Create(&p).Error)
	}

	got, err := svc.PieCharts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"Men":              50,
		"Women":            25,
		UncategorizedLabel: 25,
	}, got.CategoryCount)
}

func TestDashboardService_PieChartsEmpty(t *testing.T) {
	svc, _ := newTestDashboardService(t)

	got, err := svc.PieCharts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.CategoryCount)
}

func TestDashboardService_BarCharts(t *testing.T) {
	svc, db := newTestDashboardService(t)
	seedOrder(t, db, 1, 1000, model.OrderStatusPaid, day(2026, 10, 2))
	seedOrder(t, db, 1, 1000, model.OrderStatusPaid, day(2026, 10, 3))
	seedOrder(t, db, 1, 999, model.OrderStatusCancelled, day(2026, 10, 3))
	seedOrder(t, db, 1, 700, model.OrderStatusShipped, day(2026, 8, 10))
	seedOrder(t, db, 1, 300, model.OrderStatusPaid, day(2026, 3, 1))

	got, err := svc.BarCharts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"May", "Jun", "Jul", "Aug", "Sep", "Oct"}, got.Months)
	assert.Equal(t, []int64{0, 0, 0, 700, 0, 2000}, got.Revenue)
	assert.Equal(t, []int64{0, 0, 0, 1, 0, 2}, got.Orders)
}

func TestDashboardService_LineCharts(t *testing.T) {
	svc, db := newTestDashboardService(t)
	seedUser(t, db, "a", model.RoleCustomer, day(2026, 10, 1))
	seedUser(t, db, "b", model.RoleCustomer, day(2026, 9, 20))
	seedUser(t, db, "c", model.RoleCustomer, day(2026, 9, 21))
	seedUser(t, db, "admin", model.RoleAdmin, day(2026, 10, 1))

	got, err := svc.LineCharts(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Months, ChartMonths)
	assert.Equal(t, []int64{0, 0, 0, 0, 2, 1}, got.Users)
}

func TestDashboardService_ActivityAndRecentUsers(t *testing.T) {
	svc, db := newTestDashboardService(t)
	ctx := context.Background()
	amit := seedUser(t, db, "amit", model.RoleCustomer, day(2026, 10, 1))
	sara := seedUser(t, db, "sara", model.RoleSeller, day(2026, 10, 2))
	seedOrder(t, db, amit.ID, 100, model.OrderStatusPaid, day(2026, 10, 3))
	last := seedOrder(t, db, sara.ID, 100, model.OrderStatusCancelled, day(2026, 10, 4))
	seedOrder(t, db, 99, 100, model.OrderStatusPending, day(2026, 10, 2))

	entries, err := svc.Activity(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sara", entries[0].User)
	assert.Equal(t, "cancelled", entries[0].Action)
	assert.Contains(t, entries[0].Item, "#")
	assert.Equal(t, last.CreatedAt.Unix(), entries[0].At.Unix())
	assert.Equal(t, "amit", entries[1].User)
	assert.Equal(t, "purchased", entries[1].Action)

	all, err := svc.Activity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "user#99", all[2].User)

	users, err := svc.RecentUsers(ctx, 5)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "sara", users[0].Username)
}
