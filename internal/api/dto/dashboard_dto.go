package dto

import (
	"time"

	"storefront_202610/internal/model"
	"storefront_202610/internal/service"
)

// StatsCountResp 核心指标，revenue 为元
type StatsCountResp struct {
	Revenue float64 `json:"revenue"`
	User    int64   `json:"user"`
	Order   int64   `json:"order"`
	Product int64   `json:"product"`
}

// DashboardStatsResp changePercent 未截断
type DashboardStatsResp struct {
	Count         StatsCountResp     `json:"count"`
	ChangePercent map[string]float64 `json:"changePercent"`
}

type PieChartsResp struct {
	CategoryCount map[string]float64 `json:"categoryCount"`
}

type BarChartsResp struct {
	Months  []string  `json:"months"`
	Revenue []float64 `json:"revenue"` // 元
	Orders  []int64   `json:"orders"`
}

type LineChartsResp struct {
	Months []string `json:"months"`
	Users  []int64  `json:"users"`
}

type ActivityResp struct {
	User   string    `json:"user"`
	Action string    `json:"action"`
	Item   string    `json:"item"`
	At     time.Time `json:"at"`
}

type RecentUserResp struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func minorToMajor(v int64) float64 {
	return float64(v) / 100
}

func ToDashboardStatsResp(s *service.DashboardStats) DashboardStatsResp {
	return DashboardStatsResp{
		Count: StatsCountResp{
			Revenue: minorToMajor(s.Count.Revenue),
			User:    s.Count.Users,
			Order:   s.Count.Orders,
			Product: s.Count.Products,
		},
		ChangePercent: s.ChangePercent,
	}
}

func ToBarChartsResp(b *service.BarCharts) BarChartsResp {
	revenue := make([]float64, 0, len(b.Revenue))
	for _, v := range b.Revenue {
		revenue = append(revenue, minorToMajor(v))
	}
	return BarChartsResp{Months: b.Months, Revenue: revenue, Orders: b.Orders}
}

func ToActivityResp(entries []service.ActivityEntry) []ActivityResp {
	out := make([]ActivityResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, ActivityResp{User: e.User, Action: e.Action, Item: e.Item, At: e.At})
	}
	return out
}

func ToRecentUsersResp(users []model.SysUser) []RecentUserResp {
	out := make([]RecentUserResp, 0, len(users))
	for _, u := range users {
		out = append(out, RecentUserResp{Name: u.Username, Role: u.Role})
	}
	return out
}
