package model

import "gorm.io/datatypes"

// Banner 首页轮播图组
type Banner struct {
	BaseModel
	AuditMixin
	Title  string         `gorm:"size:255"`
	Active bool           `gorm:"default:true;index"`
	Meta   datatypes.JSON `gorm:"type:json"` // 运营侧附加信息 (投放位、活动名等)
	Photos []BannerPhoto  `gorm:"foreignKey:BannerID;constraint:OnDelete:CASCADE"`
}

func (Banner) TableName() string {
	return "banners"
}

type BannerPhoto struct {
	BaseModel
	BannerID int64  `gorm:"index;not null"`
	PublicID string `gorm:"size:255"`
	URL      string `gorm:"size:512"`
	Rank     int    `gorm:"default:0"`
}

func (BannerPhoto) TableName() string {
	return "banner_photos"
}
