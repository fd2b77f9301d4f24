package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lumen-store/internal/http/response"
	"github.com/lumen-store/internal/repository"
	"github.com/lumen-store/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_from invalid", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_to invalid", err)
		return
	}

	var userID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 32); err == nil {
			userID = uint(parsed)
		}
	}

	orders, total, err := h.OrderService.ListOrdersAdmin(repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		UserID:        userID,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
		Search:        strings.TrimSpace(c.Query("search")),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"orders": orders}, response.NewPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.OrderService.GetOrderAdmin(orderID)
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

// AdminGetOrderHistory 管理端订单流转记录
func (h *Handler) AdminGetOrderHistory(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	history, err := h.OrderService.ListOrderHistory(orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order history fetch failed", err)
		return
	}

	response.Success(c, gin.H{"history": history})
}

// OrderStatusRequest 状态流转请求
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

func respondOrderStatusError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(c, response.CodeNotFound, "order not found", nil)
	case errors.Is(err, service.ErrStatusInvalid):
		respondError(c, response.CodeBadRequest, "status invalid", nil)
	case errors.Is(err, service.ErrOrderTerminal):
		respondError(c, response.CodeConflict, "order is in a terminal status", nil)
	case errors.Is(err, service.ErrTransitionNotAllowed):
		respondError(c, response.CodeConflict, "status transition not allowed", nil)
	case errors.Is(err, service.ErrPaymentStatusInvalid):
		respondError(c, response.CodeBadRequest, "payment status invalid", nil)
	case errors.Is(err, service.ErrPaymentMethodInvalid):
		respondError(c, response.CodeBadRequest, "payment method invalid", nil)
	default:
		respondError(c, response.CodeInternal, "order update failed", err)
	}
}

// AdminSetOrderStatus 管理端执行状态流转
func (h *Handler) AdminSetOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	order, err := h.OrderService.SetStatus(service.SetStatusInput{
		OrderID: orderID,
		Target:  req.Status,
		Notes:   req.Notes,
		Actor:   actorName(c),
	})
	if err != nil {
		respondOrderStatusError(c, err)
		return
	}

	response.Success(c, gin.H{"order": order})
}

// OrderShippingRequest 发货请求
type OrderShippingRequest struct {
	Carrier        string `json:"carrier" binding:"required"`
	TrackingNumber string `json:"tracking_number" binding:"required"`
	EstimatedAt    string `json:"estimated_delivery"`
}

// AdminMarkShipped 管理端发货
func (h *Handler) AdminMarkShipped(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req OrderShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	estimatedAt, err := parseTimeNullable(strings.TrimSpace(req.EstimatedAt))
	if err != nil {
		respondError(c, response.CodeBadRequest, "estimated_delivery invalid", err)
		return
	}

	order, err := h.OrderService.MarkShipped(orderID, req.Carrier, req.TrackingNumber, estimatedAt, actorName(c))
	if err != nil {
		respondOrderStatusError(c, err)
		return
	}

	response.Success(c, gin.H{"order": order})
}

// OrderPaymentRequest 收款状态更新请求
type OrderPaymentRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
	PaymentMethod string `json:"payment_method"`
	PaymentRef    string `json:"payment_ref"`
}

// AdminUpdateOrderPayment 管理端更新收款状态
func (h *Handler) AdminUpdateOrderPayment(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req OrderPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	order, err := h.OrderService.UpdatePaymentStatus(orderID, req.PaymentStatus, req.PaymentMethod, req.PaymentRef, actorName(c))
	if err != nil {
		respondOrderStatusError(c, err)
		return
	}

	response.Success(c, gin.H{"order": order})
}

// OrderNotesRequest 内部备注更新请求
type OrderNotesRequest struct {
	Notes string `json:"notes"`
}

// AdminUpdateOrderNotes 管理端更新内部备注
func (h *Handler) AdminUpdateOrderNotes(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req OrderNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.OrderService.UpdateInternalNotes(orderID, req.Notes); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order update failed", err)
		return
	}

	response.Success(c, gin.H{"updated": true})
}
