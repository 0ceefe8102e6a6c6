package model

import "time"

// 系统角色
const (
	RoleAdmin    = "admin"
	RoleSeller   = "seller"
	RoleCustomer = "customer"
)

// SysUser 用户 (管理员、卖家、顾客共用一张表，靠 Role 区分)
type SysUser struct {
	BaseModel
	Username    string `gorm:"size:100;uniqueIndex;not null"`
	Password    string `gorm:"size:255;not null"` // bcrypt 哈希
	Email       string `gorm:"size:100"`
	Role        string `gorm:"size:20;index;default:'customer'"`
	IsActive    bool   `gorm:"default:true"`
	LastLoginAt *time.Time
}

func (SysUser) TableName() string {
	return "sys_users"
}
