package model

import (
	"time"

	"gorm.io/gorm"
)

type BaseModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AuditMixin 审计字段，由 middleware.RegisterAuditCallbacks 自动填充
type AuditMixin struct {
	CreatedBy int64 `gorm:"index;default:0" json:"created_by"`
	UpdatedBy int64 `gorm:"index;default:0" json:"updated_by"`
}
