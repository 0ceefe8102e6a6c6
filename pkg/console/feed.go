package console

import (
	"context"
	"fmt"
	"time"
)

// FeedSource 仪表盘动态流与最近用户的数据来源
type FeedSource interface {
	Activity(ctx context.Context) ([]ActivityEntry, error)
	RecentUsers(ctx context.Context) ([]RecentUser, error)
}

// StaticFeed 固定数据，用于演示与离线模式
type StaticFeed struct {
	Entries []ActivityEntry
	Users   []RecentUser
}

func (f StaticFeed) Activity(context.Context) ([]ActivityEntry, error) {
	return append([]ActivityEntry(nil), f.Entries...), nil
}

func (f StaticFeed) RecentUsers(context.Context) ([]RecentUser, error) {
	return append([]RecentUser(nil), f.Users...), nil
}

// DefaultFeed 占位数据
func DefaultFeed(now time.Time) StaticFeed {
	return StaticFeed{
		Entries: []ActivityEntry{
			{User: "Amit", Action: "purchased", Item: "iPhone 15", At: now.Add(-2 * time.Minute)},
			{User: "Sara", Action: "added", Item: "T-shirt", At: now.Add(-10 * time.Minute)},
			{User: "John", Action: "reviewed", Item: "Laptop", At: now.Add(-time.Hour)},
		},
		Users: []RecentUser{
			{Name: "Amit Sharma", Role: "Customer"},
			{Name: "Sara Lee", Role: "Seller"},
			{Name: "John Doe", Role: "Admin"},
		},
	}
}

// APIFeed 从后台接口读取
type APIFeed struct {
	Client *Client
	Limit  int
}

func (f APIFeed) limit() int {
	if f.Limit <= 0 {
		return 5
	}
	return f.Limit
}

func (f APIFeed) Activity(ctx context.Context) ([]ActivityEntry, error) {
	return f.Client.FetchActivity(ctx, f.limit())
}

func (f APIFeed) RecentUsers(ctx context.Context) ([]RecentUser, error) {
	return f.Client.FetchRecentUsers(ctx, f.limit())
}

// Ago "2 mins ago" 风格的相对时间
func Ago(at, now time.Time) string {
	d := now.Sub(at)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "min")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d/(24*time.Hour)), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
