package public

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lumen-store/internal/constants"
	handlershared "github.com/lumen-store/internal/http/handlers/shared"
	"github.com/lumen-store/internal/http/response"
	"github.com/lumen-store/internal/models"
	"github.com/lumen-store/internal/repository"
	"github.com/lumen-store/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结算下单请求
type CheckoutRequest struct {
	CustomerName  string        `json:"customer_name" binding:"required"`
	CustomerEmail string        `json:"customer_email" binding:"required"`
	CustomerPhone string        `json:"customer_phone"`
	Shipping      models.JSON   `json:"shipping" binding:"required"`
	Billing       models.JSON   `json:"billing"`
	PaymentMethod string        `json:"payment_method" binding:"required"`
	Notes         string        `json:"notes"`
	ClaimedTotal  *models.Money `json:"claimed_total"`
}

// CheckoutPreview 结算金额预览（不落单）
func (h *Handler) CheckoutPreview(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	preview, err := h.CheckoutService.Preview(userID)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	response.Success(c, preview)
}

// Checkout 基于当前购物车下单
func (h *Handler) Checkout(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	order, err := h.CheckoutService.Checkout(service.CheckoutInput{
		UserID:        userID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Shipping:      req.Shipping,
		Billing:       req.Billing,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		ClaimedTotal:  req.ClaimedTotal,
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	requestLog(c).Infow("order_checkout",
		"user_id", userID,
		"order_id", order.ID,
		"order_no", order.OrderNo,
	)

	response.Success(c, gin.H{"order": order})
}

// ListMyOrders 当前用户订单列表
func (h *Handler) ListMyOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)

	orders, total, err := h.OrderService.ListOrdersByUser(userID, repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"orders": orders}, response.NewPagination(page, pageSize, total))
}

// GetMyOrder 当前用户订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, response.CodeBadRequest, "order id invalid", nil)
		return
	}

	order, err := h.OrderService.GetOrderByUser(uint(orderID), userID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}

	response.Success(c, gin.H{"order": order})
}

// GetMyOrderByNo 当前用户按订单号查询
func (h *Handler) GetMyOrderByNo(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	order, err := h.OrderService.GetOrderByUserOrderNo(c.Param("order_no"), userID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}

	response.Success(c, gin.H{"order": order})
}

// CancelMyOrder 用户取消待处理订单
func (h *Handler) CancelMyOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, response.CodeBadRequest, "order id invalid", nil)
		return
	}

	order, err := h.OrderService.GetOrderByUser(uint(orderID), userID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}

	// 用户侧仅允许取消尚未确认的订单
	if order.Status != constants.OrderStatusPending {
		respondError(c, response.CodeBadRequest, "order can no longer be cancelled", nil)
		return
	}

	updated, err := h.OrderService.CancelOrder(order.ID, "cancelled by customer", fmt.Sprintf("user:%d", userID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderTerminal), errors.Is(err, service.ErrTransitionNotAllowed):
			respondError(c, response.CodeBadRequest, "order can no longer be cancelled", nil)
		default:
			respondError(c, response.CodeInternal, "order cancel failed", err)
		}
		return
	}

	response.Success(c, gin.H{"order": updated})
}
