package service

import (
	"strings"
	"time"

	"github.com/lumen-store/internal/constants"
	"github.com/lumen-store/internal/logger"
	"github.com/lumen-store/internal/models"

	"gorm.io/gorm"
)

// allowedTransitions 订单状态流转表
// delivered / cancelled / refunded 为终态，不再流出
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed: true,
		constants.OrderStatusCancelled: true,
		constants.OrderStatusRefunded:  true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCancelled:  true,
		constants.OrderStatusRefunded:   true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped:   true,
		constants.OrderStatusCancelled: true,
		constants.OrderStatusRefunded:  true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusCancelled: true,
		constants.OrderStatusRefunded:  true,
	},
}

// CanTransition 判断状态流转是否合法
func CanTransition(from, to string) bool {
	nexts, ok := allowedTransitions[strings.TrimSpace(from)]
	if !ok {
		return false
	}
	return nexts[strings.TrimSpace(to)]
}

// SetStatusInput 状态流转输入
type SetStatusInput struct {
	OrderID        uint
	Target         string
	Notes          string
	Actor          string     // 操作者账号，系统任务为 system
	Carrier        string     // shipped 时生效
	TrackingNumber string     // shipped 时生效
	EstimatedAt    *time.Time // shipped 时生效
}

// SetStatus 执行一次状态流转
// 状态更新与流转记录写入在同一事务内
func (s *OrderService) SetStatus(input SetStatusInput) (*models.Order, error) {
	target := strings.TrimSpace(input.Target)
	if !constants.IsValidOrderStatus(target) {
		return nil, ErrStatusInvalid
	}
	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if constants.IsTerminalOrderStatus(order.Status) {
		return nil, ErrOrderTerminal
	}
	if !CanTransition(order.Status, target) {
		return nil, ErrTransitionNotAllowed
	}

	now := time.Now()
	updates := map[string]interface{}{
		"updated_at": now,
	}
	switch target {
	case constants.OrderStatusShipped:
		updates["shipped_at"] = now
		if carrier := strings.TrimSpace(input.Carrier); carrier != "" {
			updates["carrier"] = carrier
		}
		if tracking := strings.TrimSpace(input.TrackingNumber); tracking != "" {
			updates["tracking_number"] = tracking
		}
		if input.EstimatedAt != nil {
			updates["estimated_at"] = *input.EstimatedAt
		}
	case constants.OrderStatusDelivered:
		updates["delivered_at"] = now
	case constants.OrderStatusRefunded:
		updates["payment_status"] = constants.PaymentStatusRefunded
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		if err := repo.UpdateStatus(order.ID, target, updates); err != nil {
			return err
		}
		return repo.AppendStatusHistory(&models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    target,
			Notes:     strings.TrimSpace(input.Notes),
			CreatedBy: strings.TrimSpace(input.Actor),
			CreatedAt: now,
		})
	})
	if err != nil {
		logger.Errorw("order_status_update_failed",
			"order_id", order.ID,
			"from", order.Status,
			"to", target,
			"error", err,
		)
		return nil, ErrOrderUpdateFailed
	}

	logger.Infow("order_status_changed",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"from", order.Status,
		"to", target,
		"actor", input.Actor,
	)
	s.notifyStatus(order.ID, target)

	return s.orderRepo.GetByID(order.ID)
}

// MarkShipped 发货（附带承运方与运单号）
func (s *OrderService) MarkShipped(orderID uint, carrier, trackingNumber string, estimatedAt *time.Time, actor string) (*models.Order, error) {
	return s.SetStatus(SetStatusInput{
		OrderID:        orderID,
		Target:         constants.OrderStatusShipped,
		Actor:          actor,
		Carrier:        carrier,
		TrackingNumber: trackingNumber,
		EstimatedAt:    estimatedAt,
	})
}

// CancelOrder 取消订单
func (s *OrderService) CancelOrder(orderID uint, notes, actor string) (*models.Order, error) {
	return s.SetStatus(SetStatusInput{
		OrderID: orderID,
		Target:  constants.OrderStatusCancelled,
		Notes:   notes,
		Actor:   actor,
	})
}

// UpdatePaymentStatus 更新支付状态（与订单状态独立推进）
func (s *OrderService) UpdatePaymentStatus(orderID uint, status, method, reference, actor string) (*models.Order, error) {
	status = strings.TrimSpace(status)
	if !constants.IsValidPaymentStatus(status) {
		return nil, ErrPaymentStatusInvalid
	}
	method = strings.TrimSpace(method)
	if method != "" && method != constants.PaymentMethodBankTransfer && method != constants.PaymentMethodCashOnDelivery {
		return nil, ErrPaymentMethodInvalid
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	updates := map[string]interface{}{
		"payment_status": status,
		"updated_at":     time.Now(),
	}
	if method != "" {
		updates["payment_method"] = method
	}
	if reference = strings.TrimSpace(reference); reference != "" {
		updates["payment_ref"] = reference
	}
	if err := s.orderRepo.UpdateFields(order.ID, updates); err != nil {
		return nil, ErrOrderUpdateFailed
	}

	logger.Infow("order_payment_status_changed",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"from", order.PaymentStatus,
		"to", status,
		"actor", actor,
	)
	return s.orderRepo.GetByID(order.ID)
}

// UpdateInternalNotes 更新运营备注
func (s *OrderService) UpdateInternalNotes(orderID uint, notes string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return ErrOrderFetchFailed
	}
	if order == nil {
		return ErrOrderNotFound
	}
	return s.orderRepo.UpdateFields(order.ID, map[string]interface{}{
		"internal_notes": notes,
		"updated_at":     time.Now(),
	})
}

// CancelStaleOrders 取消超过时限仍未支付的待处理订单，返回取消数量
func (s *OrderService) CancelStaleOrders(now time.Time) (int, error) {
	if s.staleCancelMinutes <= 0 {
		return 0, nil
	}
	cutoff := now.Add(-time.Duration(s.staleCancelMinutes) * time.Minute)
	orders, err := s.orderRepo.ListStalePending(cutoff)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for i := range orders {
		if _, err := s.CancelOrder(orders[i].ID, "auto cancelled: unpaid past deadline", "system"); err != nil {
			logger.Warnw("order_stale_cancel_failed", "order_id", orders[i].ID, "error", err)
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// CancelStaleOrderByID 针对单个订单执行超时取消（队列任务入口）
// 订单已支付或已流转出 pending 则跳过
func (s *OrderService) CancelStaleOrderByID(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	if order.Status != constants.OrderStatusPending || order.PaymentStatus != constants.PaymentStatusPending {
		return nil
	}
	_, err = s.CancelOrder(order.ID, "auto cancelled: unpaid past deadline", "system")
	return err
}
