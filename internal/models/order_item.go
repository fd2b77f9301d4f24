package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表
// 下单时从购物车冻结的快照，后续商品改价不回溯
type OrderItem struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID      uint           `gorm:"index;not null" json:"order_id"`                           // 订单ID
	ProductID    uint           `gorm:"index;not null" json:"product_id"`                         // 商品ID（下单时引用）
	ProductName  string         `gorm:"not null" json:"product_name"`                             // 商品名称快照
	ProductImage string         `gorm:"type:varchar(500)" json:"product_image"`                   // 商品图片快照
	Variant      string         `gorm:"type:varchar(60);not null;default:''" json:"variant"`      // 规格快照
	Quantity     int            `gorm:"not null" json:"quantity"`                                 // 数量
	UnitPrice    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // 单价快照
	TotalPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // 小计（= 单价 * 数量，冗余存储供审计）
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
