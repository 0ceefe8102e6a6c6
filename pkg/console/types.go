package console

import (
	"fmt"
	"strconv"
	"time"

	"storefront_202610/pkg/formstate"
)

// ==================== 商品 ====================

type ImageRef struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type Color struct {
	ID         int64      `json:"id"`
	ColorName  string     `json:"colorName"`
	Stock      int        `json:"stock"`
	ColorImage *ImageRef  `json:"colorImage"`
	Photos     []ImageRef `json:"photos"`
}

type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	PriceAmount   int64     `json:"price_amount"`
	Description   string    `json:"description"`
	CategoryID    int64     `json:"category_id"`
	SubcategoryID int64     `json:"subcategory_id"`
	TotalStock    int       `json:"total_stock"`
	Colors        []Color   `json:"colors"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FormProduct 转为表单初始化数据
func (p *Product) FormProduct() *formstate.Product {
	out := &formstate.Product{
		ID:            strconv.FormatInt(p.ID, 10),
		Name:          p.Name,
		Price:         formatMinor(p.PriceAmount),
		Description:   p.Description,
		CategoryID:    optionalID(p.CategoryID),
		SubcategoryID: optionalID(p.SubcategoryID),
		Colors:        make([]formstate.ProductColor, 0, len(p.Colors)),
	}
	for _, c := range p.Colors {
		pc := formstate.ProductColor{
			ColorName: c.ColorName,
			Stock:     c.Stock,
			Photos:    make([]formstate.PersistedImage, 0, len(c.Photos)),
		}
		if c.ColorImage != nil {
			pc.ColorImageURL = c.ColorImage.URL
		}
		for _, ph := range c.Photos {
			pc.Photos = append(pc.Photos, formstate.PersistedImage{PublicID: ph.PublicID, URL: ph.URL})
		}
		out.Colors = append(out.Colors, pc)
	}
	return out
}

// formatMinor 2599 -> "25.99"
func formatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

func optionalID(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// ==================== 分类 / 轮播图 ====================

type Subcategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Category struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	Subcategories []Subcategory `json:"subcategories"`
}

type BannerPhoto struct {
	ID       int64  `json:"id"`
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type Banner struct {
	ID     int64         `json:"id"`
	Title  string        `json:"title"`
	Photos []BannerPhoto `json:"photos"`
}

// ==================== 仪表盘 ====================

type StatsCount struct {
	Revenue float64 `json:"revenue"`
	User    int64   `json:"user"`
	Order   int64   `json:"order"`
	Product int64   `json:"product"`
}

// DashboardStats changePercent 为服务端原值，展示前经 Badge 截断
type DashboardStats struct {
	Count         StatsCount         `json:"count"`
	ChangePercent map[string]float64 `json:"changePercent"`
}

type PieCharts struct {
	CategoryCount map[string]float64 `json:"categoryCount"`
}

type BarCharts struct {
	Months  []string  `json:"months"`
	Revenue []float64 `json:"revenue"`
	Orders  []int64   `json:"orders"`
}

type LineCharts struct {
	Months []string `json:"months"`
	Users  []int64  `json:"users"`
}

type ActivityEntry struct {
	User   string    `json:"user"`
	Action string    `json:"action"`
	Item   string    `json:"item"`
	At     time.Time `json:"at"`
}

type RecentUser struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// ==================== 登录 ====================

type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
}
