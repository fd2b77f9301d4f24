package service

import (
	"strings"
	"time"

	"github.com/lumen-store/internal/models"
	"github.com/lumen-store/internal/repository"
)

// GetOrderByUser 获取用户订单详情
func (s *OrderService) GetOrderByUser(orderID uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByUserOrderNo 按订单号获取用户订单详情
func (s *OrderService) GetOrderByUserOrderNo(orderNo string, userID uint) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNoAndUser(orderNo, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersByUser 用户订单列表
func (s *OrderService) ListOrdersByUser(userID uint, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if userID == 0 {
		return nil, 0, ErrOrderNotFound
	}
	filter.UserID = userID
	return s.orderRepo.ListByUser(filter)
}

// GetOrderAdmin 运营侧获取订单详情
func (s *OrderService) GetOrderAdmin(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersAdmin 运营侧订单列表
func (s *OrderService) ListOrdersAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// ListOrderHistory 获取订单状态流转记录
func (s *OrderService) ListOrderHistory(orderID uint) ([]models.OrderStatusHistory, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.orderRepo.ListStatusHistory(orderID)
}

// TrackingEvent 公开追踪时间线节点
type TrackingEvent struct {
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TrackingItem 公开追踪的订单行（不含金额）
type TrackingItem struct {
	ProductName string `json:"product_name"`
	Variant     string `json:"variant,omitempty"`
	Quantity    int    `json:"quantity"`
}

// TrackingView 公开追踪视图
// 仅暴露物流相关字段与行快照，不含客户与金额信息
type TrackingView struct {
	OrderNo        string          `json:"order_no"`
	Status         string          `json:"status"`
	Carrier        string          `json:"carrier,omitempty"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	EstimatedAt    *time.Time      `json:"estimated_delivery,omitempty"`
	ShippedAt      *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
	Items          []TrackingItem  `json:"items"`
	Events         []TrackingEvent `json:"events"`
}

// TrackByOrderNo 按订单号公开追踪（需邮箱佐证，防止遍历）
func (s *OrderService) TrackByOrderNo(orderNo, email string) (*TrackingView, error) {
	orderNo = strings.TrimSpace(orderNo)
	email = strings.ToLower(strings.TrimSpace(email))
	if orderNo == "" || email == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil || !strings.EqualFold(order.CustomerEmail, email) {
		return nil, ErrOrderNotFound
	}

	items := make([]TrackingItem, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, TrackingItem{
			ProductName: line.ProductName,
			Variant:     line.Variant,
			Quantity:    line.Quantity,
		})
	}
	events := make([]TrackingEvent, 0, len(order.History))
	for _, entry := range order.History {
		events = append(events, TrackingEvent{
			Status:    entry.Status,
			Notes:     entry.Notes,
			CreatedAt: entry.CreatedAt,
		})
	}
	return &TrackingView{
		OrderNo:        order.OrderNo,
		Status:         order.Status,
		Carrier:        order.Carrier,
		TrackingNumber: order.TrackingNumber,
		EstimatedAt:    order.EstimatedAt,
		ShippedAt:      order.ShippedAt,
		DeliveredAt:    order.DeliveredAt,
		Items:          items,
		Events:         events,
	}, nil
}
