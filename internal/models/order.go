package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
// 创建后订单项不可变；取消/退款通过状态表达，订单不做物理删除
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                          // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                          // 订单编号（对外公开，用于追踪查询）
	UserID         uint           `gorm:"index;not null" json:"user_id"`                                 // 用户ID
	CustomerName   string         `gorm:"not null" json:"customer_name"`                                 // 下单时客户姓名快照
	CustomerEmail  string         `gorm:"index;not null" json:"customer_email"`                          // 下单时客户邮箱快照
	CustomerPhone  string         `gorm:"type:varchar(40)" json:"customer_phone"`                        // 下单时客户电话快照
	ShippingJSON   JSON           `gorm:"type:json;not null" json:"shipping_address"`                    // 收货地址快照
	BillingJSON    JSON           `gorm:"type:json" json:"billing_address,omitempty"`                    // 账单地址快照（为空表示同收货地址）
	Subtotal       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`         // 商品小计
	TaxAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`       // 税费
	ShippingAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_amount"`  // 运费
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`  // 优惠金额
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`     // 实付金额（= 小计+税+运费-优惠）
	Currency       string         `gorm:"not null" json:"currency"`                                      // 币种
	Status         string         `gorm:"index;not null" json:"status"`                                  // 订单状态
	PaymentStatus  string         `gorm:"index;not null" json:"payment_status"`                          // 支付状态（独立于订单状态）
	PaymentMethod  string         `gorm:"type:varchar(40)" json:"payment_method,omitempty"`              // 支付方式（仅记录）
	PaymentRef     string         `gorm:"type:varchar(120)" json:"payment_reference,omitempty"`          // 支付凭证号
	Carrier        string         `gorm:"type:varchar(60)" json:"carrier,omitempty"`                     // 承运方/配送方式
	TrackingNumber string         `gorm:"type:varchar(120);index" json:"tracking_number,omitempty"`      // 物流单号
	EstimatedAt    *time.Time     `json:"estimated_delivery,omitempty"`                                  // 预计送达时间
	ShippedAt      *time.Time     `gorm:"index" json:"shipped_at,omitempty"`                             // 发货时间
	DeliveredAt    *time.Time     `gorm:"index" json:"delivered_at,omitempty"`                           // 签收时间
	Notes          string         `gorm:"type:text" json:"notes,omitempty"`                              // 客户可见备注
	InternalNotes  string         `gorm:"type:text" json:"-"`                                            // 仅运营可见备注
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	Items   []OrderItem          `gorm:"foreignKey:OrderID" json:"items,omitempty"`   // 订单项（创建后不可变）
	History []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"history,omitempty"` // 状态流转记录（只追加）
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
