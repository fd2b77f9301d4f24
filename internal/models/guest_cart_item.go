package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// GuestCartItem 游客购物车项
// 以设备令牌（guest_token）区分会话，合并键为 (guest_token, product_id, variant)
type GuestCartItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                                                             // 主键
	GuestToken  string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_guest_cart_token_product_variant" json:"guest_token"`    // 设备令牌
	ProductID   uint           `gorm:"not null;uniqueIndex:idx_guest_cart_token_product_variant" json:"product_id"`                      // 商品ID
	Variant     string         `gorm:"type:varchar(60);not null;default:'';uniqueIndex:idx_guest_cart_token_product_variant" json:"variant"` // 规格
	DisplayName string         `gorm:"not null" json:"display_name"`                                                                     // 展示名称（加入时快照）
	UnitPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`                                          // 单价（加入时快照）
	ImageRef    string         `gorm:"type:varchar(500)" json:"image_ref"`                                                               // 商品图片引用
	Quantity    int            `gorm:"not null" json:"quantity"`                                                                         // 数量（恒 >= 1）
	MergedAt    *time.Time     `gorm:"index" json:"merged_at,omitempty"`                                                                 // 已并入用户购物车的时间（一次性合并防重入标记）
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                                                          // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                                                          // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                                                   // 软删除时间
}

// TableName 指定表名
func (GuestCartItem) TableName() string {
	return "guest_cart_items"
}
