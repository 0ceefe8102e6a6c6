package model

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order 订单 (仪表盘营收/交易数的数据源)
type Order struct {
	BaseModel
	UserID      int64       `gorm:"index;not null"`
	TotalAmount int64       `gorm:"default:0"` // 最小货币单位
	Status      OrderStatus `gorm:"size:20;index;default:'pending'"`
}

func (Order) TableName() string {
	return "orders"
}
