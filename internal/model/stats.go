package model

import "gorm.io/datatypes"

// StatsCounts 仪表盘四项核心指标
type StatsCounts struct {
	Revenue  int64 `json:"revenue"`
	Users    int64 `json:"user"`
	Orders   int64 `json:"order"`
	Products int64 `json:"product"`
}

// StatsSnapshot 每日指标快照，用于计算环比
type StatsSnapshot struct {
	BaseModel
	Day     string         `gorm:"size:10;uniqueIndex;not null"` // 2006-01-02
	Payload datatypes.JSON `gorm:"type:json"`                    // StatsCounts
}

func (StatsSnapshot) TableName() string {
	return "stats_snapshots"
}

// PendingDeletion 待清理的存储对象 (事务失败后残留的上传文件)
type PendingDeletion struct {
	BaseModel
	PublicID string `gorm:"size:255;index;not null"`
	Attempts int    `gorm:"default:0"`
	LastErr  string `gorm:"size:512"`
}

func (PendingDeletion) TableName() string {
	return "pending_deletions"
}
