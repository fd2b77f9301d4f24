package service

import (
	"time"

	"github.com/lumen-store/internal/models"
	"github.com/lumen-store/internal/repository"

	"github.com/shopspring/decimal"
)

// DashboardService 运营仪表盘服务
type DashboardService struct {
	dashboardRepo repository.DashboardRepository
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(dashboardRepo repository.DashboardRepository) *DashboardService {
	return &DashboardService{dashboardRepo: dashboardRepo}
}

// DashboardOverview 总览响应
type DashboardOverview struct {
	OrdersTotal      int64        `json:"orders_total"`
	PendingOrders    int64        `json:"pending_orders"`
	ShippedOrders    int64        `json:"shipped_orders"`
	DeliveredOrders  int64        `json:"delivered_orders"`
	CancelledOrders  int64        `json:"cancelled_orders"`
	RevenueDelivered models.Money `json:"revenue_delivered"`
	RevenuePaid      models.Money `json:"revenue_paid"`
	NewUsers         int64        `json:"new_users"`
	ActiveProducts   int64        `json:"active_products"`
	Currency         string       `json:"currency"`
}

// DashboardTrendPoint 趋势节点
type DashboardTrendPoint struct {
	Day             string `json:"day"`
	OrdersTotal     int64  `json:"orders_total"`
	OrdersDelivered int64  `json:"orders_delivered"`
}

// DashboardStatusCount 状态分布节点
type DashboardStatusCount struct {
	Status string `json:"status"`
	Total  int64  `json:"total"`
}

// DashboardTopProduct 商品排行节点
type DashboardTopProduct struct {
	ProductID  uint         `json:"product_id"`
	Name       string       `json:"name"`
	Orders     int64        `json:"orders"`
	Quantity   int64        `json:"quantity"`
	PaidAmount models.Money `json:"paid_amount"`
}

// DashboardData 仪表盘聚合响应
type DashboardData struct {
	Overview    DashboardOverview      `json:"overview"`
	Trends      []DashboardTrendPoint  `json:"trends"`
	StatusStats []DashboardStatusCount `json:"status_stats"`
	TopProducts []DashboardTopProduct  `json:"top_products"`
}

func resolveRange(days int) (time.Time, time.Time) {
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}
	now := time.Now()
	endAt := now.Add(time.Minute)
	startAt := now.AddDate(0, 0, -days)
	return startAt, endAt
}

// GetDashboard 获取仪表盘聚合数据
func (s *DashboardService) GetDashboard(days, topLimit int) (*DashboardData, error) {
	startAt, endAt := resolveRange(days)

	overviewRow, err := s.dashboardRepo.GetOverview(startAt, endAt)
	if err != nil {
		return nil, err
	}
	trendRows, err := s.dashboardRepo.GetOrderTrends(startAt, endAt)
	if err != nil {
		return nil, err
	}
	statusRows, err := s.dashboardRepo.GetStatusBreakdown(startAt, endAt)
	if err != nil {
		return nil, err
	}
	topRows, err := s.dashboardRepo.GetTopProducts(startAt, endAt, topLimit)
	if err != nil {
		return nil, err
	}

	data := &DashboardData{
		Overview: DashboardOverview{
			OrdersTotal:      overviewRow.OrdersTotal,
			PendingOrders:    overviewRow.PendingOrders,
			ShippedOrders:    overviewRow.ShippedOrders,
			DeliveredOrders:  overviewRow.DeliveredOrders,
			CancelledOrders:  overviewRow.CancelledOrders,
			RevenueDelivered: models.NewMoneyFromDecimal(decimal.NewFromFloat(overviewRow.RevenueDelivered)),
			RevenuePaid:      models.NewMoneyFromDecimal(decimal.NewFromFloat(overviewRow.RevenuePaid)),
			NewUsers:         overviewRow.NewUsers,
			ActiveProducts:   overviewRow.ActiveProducts,
			Currency:         overviewRow.Currency,
		},
		Trends:      make([]DashboardTrendPoint, 0, len(trendRows)),
		StatusStats: make([]DashboardStatusCount, 0, len(statusRows)),
		TopProducts: make([]DashboardTopProduct, 0, len(topRows)),
	}
	for _, row := range trendRows {
		data.Trends = append(data.Trends, DashboardTrendPoint{
			Day:             row.Day,
			OrdersTotal:     row.OrdersTotal,
			OrdersDelivered: row.OrdersDelivered,
		})
	}
	for _, row := range statusRows {
		data.StatusStats = append(data.StatusStats, DashboardStatusCount{Status: row.Status, Total: row.Total})
	}
	for _, row := range topRows {
		data.TopProducts = append(data.TopProducts, DashboardTopProduct{
			ProductID:  row.ProductID,
			Name:       row.Name,
			Orders:     row.Orders,
			Quantity:   row.Quantity,
			PaidAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(row.PaidAmount)),
		})
	}
	return data, nil
}
