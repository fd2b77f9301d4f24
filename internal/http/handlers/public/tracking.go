package public

import (
	"errors"

	"github.com/lumen-store/internal/http/response"
	"github.com/lumen-store/internal/service"

	"github.com/gin-gonic/gin"
)

// TrackOrder 公开订单追踪（订单号 + 下单邮箱佐证）
func (h *Handler) TrackOrder(c *gin.Context) {
	orderNo := c.Param("order_no")
	email := c.Query("email")
	if email == "" {
		respondError(c, response.CodeBadRequest, "email required", nil)
		return
	}

	view, err := h.OrderService.TrackByOrderNo(orderNo, email)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order tracking failed", err)
		return
	}

	response.Success(c, view)
}
