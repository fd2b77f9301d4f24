package models

import (
	"time"

	"gorm.io/gorm"
)

// CartItem 用户购物车项
// 合并键为 (user_id, product_id, variant)，同键数量累加
type CartItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                               // 主键
	UserID      uint           `gorm:"not null;uniqueIndex:idx_cart_user_product_variant" json:"user_id"`  // 用户ID
	ProductID   uint           `gorm:"not null;uniqueIndex:idx_cart_user_product_variant" json:"product_id"` // 商品ID
	Variant     string         `gorm:"type:varchar(60);not null;default:'';uniqueIndex:idx_cart_user_product_variant" json:"variant"` // 规格（尺码等，可为空串）
	DisplayName string         `gorm:"not null" json:"display_name"`                                       // 展示名称（加入时快照）
	UnitPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`            // 单价（加入时快照）
	ImageRef    string         `gorm:"type:varchar(500)" json:"image_ref"`                                 // 商品图片引用
	Quantity    int            `gorm:"not null" json:"quantity"`                                           // 数量（恒 >= 1）
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                            // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                            // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                     // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}

// LineTotal 当前行小计
func (i CartItem) LineTotal() Money {
	return NewMoneyFromDecimal(i.UnitPrice.Mul(decimalFromInt(i.Quantity)))
}
