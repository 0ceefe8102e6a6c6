package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront_202610/internal/model"
)

// StatsRepository 仪表盘统计仓储
type StatsRepository interface {
	Counts(ctx context.Context) (model.StatsCounts, error)
	OrdersSince(ctx context.Context, since time.Time) ([]model.Order, error)
	SignupsSince(ctx context.Context, since time.Time) ([]time.Time, error)
	RecentOrders(ctx context.Context, limit int) ([]model.Order, error)

	// 快照
	SaveSnapshot(ctx context.Context, day string, counts model.StatsCounts) error
	LatestSnapshotBefore(ctx context.Context, day string) (*model.StatsCounts, error)
}

type statsRepo struct {
	db *gorm.DB
}

// NewStatsRepository 创建统计仓储
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepo{db: db}
}

// Counts 实时指标
// 营收只统计未取消的订单
func (r *statsRepo) Counts(ctx context.Context) (model.StatsCounts, error) {
	var c model.StatsCounts
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Order{}).
		Where("status <> ?", model.OrderStatusCancelled).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&c.Revenue).Error; err != nil {
		return c, err
	}
	if err := db.Model(&model.Order{}).Count(&c.Orders).Error; err != nil {
		return c, err
	}
	if err := db.Model(&model.SysUser{}).
		Where("role = ?", model.RoleCustomer).
		Count(&c.Users).Error; err != nil {
		return c, err
	}
	if err := db.Model(&model.Product{}).Count(&c.Products).Error; err != nil {
		return c, err
	}
	return c, nil
}

func (r *statsRepo) OrdersSince(ctx context.Context, since time.Time) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND status <> ?", since, model.OrderStatusCancelled).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *statsRepo) SignupsSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var users []model.SysUser
	err := r.db.WithContext(ctx).
		Select("id", "created_at").
		Where("created_at >= ? AND role = ?", since, model.RoleCustomer).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	times := make([]time.Time, 0, len(users))
	for _, u := range users {
		times = append(times, u.CreatedAt)
	}
	return times, nil
}

// RecentOrders 最近的订单 (含已取消)，用于动态流
func (r *statsRepo) RecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// SaveSnapshot 写入某日快照 (同日重复写入则覆盖)
func (r *statsRepo) SaveSnapshot(ctx context.Context, day string, counts model.StatsCounts) error {
	payload, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	snap := model.StatsSnapshot{Day: day, Payload: datatypes.JSON(payload)}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&snap).Error
}

// LatestSnapshotBefore 早于 day 的最近一次快照，没有则返回 nil
func (r *statsRepo) LatestSnapshotBefore(ctx context.Context, day string) (*model.StatsCounts, error) {
	var snaps []model.StatsSnapshot
	err := r.db.WithContext(ctx).
		Where("day < ?", day).
		Order("day DESC").
		Limit(1).
		Find(&snaps).Error
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	var counts model.StatsCounts
	if err := json.Unmarshal(snaps[0].Payload, &counts); err != nil {
		return nil, err
	}
	return &counts, nil
}
