package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lumen-store/internal/constants"
	"github.com/lumen-store/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupDashboardRepositoryTest(t *testing.T) (*GormDashboardRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate dashboard models failed: %v", err)
	}
	return NewDashboardRepository(db), db
}

func dashboardOrder(orderNo, status, paymentStatus string, total string, createdAt time.Time) *models.Order {
	return &models.Order{
		OrderNo:       orderNo,
		UserID:        1,
		CustomerName:  "Alice",
		CustomerEmail: "alice@example.com",
		ShippingJSON:  models.JSON{},
		Status:        status,
		PaymentStatus: paymentStatus,
		Currency:      "USD",
		TotalAmount:   models.NewMoneyFromDecimal(decimal.RequireFromString(total)),
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestGetOverviewCountsWindow(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now()

	orders := []*models.Order{
		dashboardOrder("LS5001", constants.OrderStatusPending, constants.PaymentStatusPending, "10.00", now),
		dashboardOrder("LS5002", constants.OrderStatusDelivered, constants.PaymentStatusPaid, "30.00", now),
		dashboardOrder("LS5003", constants.OrderStatusCancelled, constants.PaymentStatusPending, "20.00", now),
		// 窗口之外的订单不计入
		dashboardOrder("LS5004", constants.OrderStatusDelivered, constants.PaymentStatusPaid, "99.00", now.Add(-72*time.Hour)),
	}
	for _, order := range orders {
		if err := db.Create(order).Error; err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}
	if err := db.Create(&models.Product{Slug: "tee", Name: "Tee", IsActive: true, CreatedAt: now, UpdatedAt: now}).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if err := db.Create(&models.User{Email: "alice@example.com", PasswordHash: "x", Status: "active", CreatedAt: now, UpdatedAt: now}).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	overview, err := repo.GetOverview(now.Add(-24*time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetOverview error: %v", err)
	}
	if overview.OrdersTotal != 3 {
		t.Fatalf("orders total want 3 got %d", overview.OrdersTotal)
	}
	if overview.PendingOrders != 1 || overview.DeliveredOrders != 1 || overview.CancelledOrders != 1 {
		t.Fatalf("unexpected status counts: %+v", overview)
	}
	if overview.RevenueDelivered != 30 {
		t.Fatalf("delivered revenue want 30 got %v", overview.RevenueDelivered)
	}
	if overview.RevenuePaid != 30 {
		t.Fatalf("paid revenue want 30 got %v", overview.RevenuePaid)
	}
	if overview.NewUsers != 1 || overview.ActiveProducts != 1 {
		t.Fatalf("unexpected user/product counts: %+v", overview)
	}
	if overview.Currency != "USD" {
		t.Fatalf("currency want USD got %s", overview.Currency)
	}
}

func TestGetStatusBreakdown(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now()

	for i, status := range []string{
		constants.OrderStatusPending,
		constants.OrderStatusPending,
		constants.OrderStatusShipped,
	} {
		order := dashboardOrder(fmt.Sprintf("LS51%02d", i), status, constants.PaymentStatusPending, "10.00", now)
		if err := db.Create(order).Error; err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	rows, err := repo.GetStatusBreakdown(now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetStatusBreakdown error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 status rows, got %d", len(rows))
	}
	if rows[0].Status != constants.OrderStatusPending || rows[0].Total != 2 {
		t.Fatalf("expected pending first with total 2, got %+v", rows[0])
	}
}

func TestGetTopProductsRankedByPaidAmount(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now()

	paid := dashboardOrder("LS5201", constants.OrderStatusConfirmed, constants.PaymentStatusPaid, "50.00", now)
	if err := db.Create(paid).Error; err != nil {
		t.Fatalf("create paid order failed: %v", err)
	}
	unpaid := dashboardOrder("LS5202", constants.OrderStatusPending, constants.PaymentStatusPending, "99.00", now)
	if err := db.Create(unpaid).Error; err != nil {
		t.Fatalf("create unpaid order failed: %v", err)
	}

	items := []models.OrderItem{
		{OrderID: paid.ID, ProductID: 1, ProductName: "Tee", Quantity: 2, TotalPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("40.00"))},
		{OrderID: paid.ID, ProductID: 2, ProductName: "Mug", Quantity: 1, TotalPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("10.00"))},
		// 未支付订单的明细不参与排行
		{OrderID: unpaid.ID, ProductID: 3, ProductName: "Poster", Quantity: 5, TotalPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("99.00"))},
	}
	if err := db.Create(&items).Error; err != nil {
		t.Fatalf("create order items failed: %v", err)
	}

	rows, err := repo.GetTopProducts(now.Add(-time.Hour), now.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("GetTopProducts error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 ranked products, got %d", len(rows))
	}
	if rows[0].Name != "Tee" || rows[0].Quantity != 2 || rows[0].PaidAmount != 40 {
		t.Fatalf("unexpected top product: %+v", rows[0])
	}
	if rows[1].Name != "Mug" {
		t.Fatalf("expected Mug second, got %+v", rows[1])
	}
}
