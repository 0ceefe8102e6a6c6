package model

type Category struct {
	BaseModel
	Name          string        `gorm:"size:100;not null"`
	Slug          string        `gorm:"size:100;uniqueIndex"`
	Subcategories []Subcategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

func (Category) TableName() string {
	return "categories"
}

type Subcategory struct {
	BaseModel
	CategoryID int64  `gorm:"index;not null"`
	Name       string `gorm:"size:100;not null"`
	Slug       string `gorm:"size:100;index"`
}

func (Subcategory) TableName() string {
	return "subcategories"
}
