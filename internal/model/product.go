package model

// Product 商品
// 颜色变体 (Colors) 的顺序即前台展示顺序，由 Position 决定
type Product struct {
	BaseModel
	AuditMixin

	// --- 基本信息 ---
	Name        string `gorm:"size:255;not null;index"`
	Description string `gorm:"type:text"`

	// --- 价格 (最小货币单位，100 = 1.00) ---
	PriceAmount  int64 `gorm:"default:0"`
	PriceDivisor int64 `gorm:"default:100"`

	// --- 分类 ---
	CategoryID    int64 `gorm:"index;default:0"`
	SubcategoryID int64 `gorm:"index;default:0"`

	// --- 关联关系 ---
	Colors []ColorVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (Product) TableName() string {
	return "products"
}

// TotalStock 所有变体库存之和
func (p *Product) TotalStock() int {
	total := 0
	for _, c := range p.Colors {
		total += c.Stock
	}
	return total
}

// ColorVariant 颜色变体
// Photos 按 Rank 升序，Rank 最小 (下标 0) 的为默认展示图
type ColorVariant struct {
	BaseModel

	ProductID int64 `gorm:"index;not null"`
	Position  int   `gorm:"default:0"`

	ColorName string `gorm:"size:100"`
	Stock     int    `gorm:"default:0"`

	// --- 变体专属图 (色卡) ---
	ColorImageURL      string `gorm:"size:512"`
	ColorImagePublicID string `gorm:"size:255"`

	Photos []VariantPhoto `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
}

func (ColorVariant) TableName() string {
	return "product_color_variants"
}

// VariantPhoto 变体图库中的一张图
type VariantPhoto struct {
	BaseModel

	VariantID int64  `gorm:"index;not null"`
	PublicID  string `gorm:"size:255;index;not null"` // 存储侧唯一标识
	URL       string `gorm:"size:512"`
	Rank      int    `gorm:"default:0"`
}

func (VariantPhoto) TableName() string {
	return "product_variant_photos"
}
