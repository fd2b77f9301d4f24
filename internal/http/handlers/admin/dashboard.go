package admin

import (
	"strconv"

	"github.com/lumen-store/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AdminDashboard 经营概览
func (h *Handler) AdminDashboard(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	topLimit, _ := strconv.Atoi(c.DefaultQuery("top_limit", "10"))

	data, err := h.DashboardService.GetDashboard(days, topLimit)
	if err != nil {
		respondError(c, response.CodeInternal, "dashboard fetch failed", err)
		return
	}

	response.Success(c, data)
}
