package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront_202610/internal/model"
)

// DeletionRepository 存储对象待删除队列
type DeletionRepository interface {
	Enqueue(ctx context.Context, publicIDs ...string) error
	ListPending(ctx context.Context, maxAttempts, limit int) ([]model.PendingDeletion, error)
	MarkDone(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
}

type deletionRepo struct {
	db *gorm.DB
}

// NewDeletionRepository 创建待删除队列仓储
func NewDeletionRepository(db *gorm.DB) DeletionRepository {
	return &deletionRepo{db: db}
}

func (r *deletionRepo) Enqueue(ctx context.Context, publicIDs ...string) error {
	if len(publicIDs) == 0 {
		return nil
	}
	rows := make([]model.PendingDeletion, 0, len(publicIDs))
	for _, id := range publicIDs {
		if id == "" {
			continue
		}
		rows = append(rows, model.PendingDeletion{PublicID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *deletionRepo) ListPending(ctx context.Context, maxAttempts, limit int) ([]model.PendingDeletion, error) {
	var rows []model.PendingDeletion
	err := r.db.WithContext(ctx).
		Where("attempts < ?", maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *deletionRepo) MarkDone(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.PendingDeletion{}, id).Error
}

func (r *deletionRepo) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	if len(errMsg) > 500 {
		errMsg = errMsg[:500]
	}
	return r.db.WithContext(ctx).
		Model(&model.PendingDeletion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts": gorm.Expr("attempts + 1"),
			"last_err": errMsg,
		}).Error
}
