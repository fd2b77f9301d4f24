package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatusHistory 订单状态流转记录表
// 只追加，不更新不删除
type OrderStatusHistory struct {
	ID        uint           `gorm:"primarykey" json:"id"`                 // 主键
	OrderID   uint           `gorm:"index;not null" json:"order_id"`       // 订单ID
	Status    string         `gorm:"not null" json:"status"`               // 流转后的状态
	Notes     string         `gorm:"type:text" json:"notes,omitempty"`     // 备注
	CreatedBy string         `gorm:"type:varchar(120)" json:"created_by"`  // 操作者（运营账号，可为空）
	CreatedAt time.Time      `gorm:"index" json:"created_at"`              // 创建时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                       // 软删除时间（仅结构对齐，业务上不删除）
}

// TableName 指定表名
func (OrderStatusHistory) TableName() string {
	return "order_status_histories"
}
