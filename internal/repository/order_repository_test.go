package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/lumen-store/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderRepoTest(t *testing.T, name string) (*gorm.DB, *GormOrderRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.OrderStatusHistory{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db, NewOrderRepository(db)
}

func sampleOrder(orderNo string, userID uint) *models.Order {
	now := time.Now()
	return &models.Order{
		OrderNo:       orderNo,
		UserID:        userID,
		CustomerName:  "Alice",
		CustomerEmail: "alice@example.com",
		ShippingJSON:  models.JSON{},
		Subtotal:      models.NewMoneyFromDecimal(decimal.RequireFromString("20.00")),
		TotalAmount:   models.NewMoneyFromDecimal(decimal.RequireFromString("27.00")),
		Currency:      "USD",
		Status:        "pending",
		PaymentStatus: "pending",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestOrderCreateLinksItems(t *testing.T) {
	_, repo := setupOrderRepoTest(t, "order_repo_create")

	order := sampleOrder("LS1001", 1)
	items := []models.OrderItem{
		{ProductID: 1, ProductName: "Tee", Quantity: 2, UnitPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("10.00"))},
	}
	if err := repo.Create(order, items); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if order.ID == 0 {
		t.Fatalf("expected order id assigned")
	}

	got, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got == nil || len(got.Items) != 1 {
		t.Fatalf("expected order with 1 item, got %+v", got)
	}
	if got.Items[0].OrderID != order.ID {
		t.Fatalf("expected item linked to order %d, got %d", order.ID, got.Items[0].OrderID)
	}
}

func TestOrderCreateCompensatesOnItemFailure(t *testing.T) {
	// 仅迁移订单头表，订单项写入必然失败
	dsn := fmt.Sprintf("file:order_repo_compensate_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	repo := NewOrderRepository(db)

	order := sampleOrder("LS1999", 1)
	items := []models.OrderItem{
		{ProductID: 1, ProductName: "Tee", Quantity: 1, UnitPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("10.00"))},
	}
	if err := repo.Create(order, items); err == nil {
		t.Fatalf("expected item persistence to fail")
	}

	var count int64
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected order header removed by compensation, got %d", count)
	}
}

func TestOrderGetByIDMissing(t *testing.T) {
	_, repo := setupOrderRepoTest(t, "order_repo_missing")

	got, err := repo.GetByID(42)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing order, got %+v", got)
	}
}

func TestOrderHistoryOrdered(t *testing.T) {
	_, repo := setupOrderRepoTest(t, "order_repo_history")

	order := sampleOrder("LS1002", 1)
	if err := repo.Create(order, nil); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	for _, status := range []string{"pending", "confirmed", "processing"} {
		if err := repo.AppendStatusHistory(&models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    status,
			CreatedAt: time.Now(),
		}); err != nil {
			t.Fatalf("append history error: %v", err)
		}
	}

	got, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if len(got.History) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(got.History))
	}
	if got.History[0].Status != "pending" || got.History[2].Status != "processing" {
		t.Fatalf("expected history in append order, got %+v", got.History)
	}
}

func TestOrderListByUserScoped(t *testing.T) {
	_, repo := setupOrderRepoTest(t, "order_repo_list_user")

	for i, userID := range []uint{1, 1, 2} {
		if err := repo.Create(sampleOrder(fmt.Sprintf("LS20%02d", i), userID), nil); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	orders, total, err := repo.ListByUser(OrderListFilter{UserID: 1, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if total != 2 || len(orders) != 2 {
		t.Fatalf("expected 2 orders for user 1, got total=%d len=%d", total, len(orders))
	}
	for _, order := range orders {
		if order.UserID != 1 {
			t.Fatalf("expected only user 1 orders, got user %d", order.UserID)
		}
	}

	missing, err := repo.GetByIDAndUser(orders[0].ID, 2)
	if err != nil {
		t.Fatalf("GetByIDAndUser error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected cross-user lookup to miss, got %+v", missing)
	}
}

func TestOrderListAdminFilters(t *testing.T) {
	db, repo := setupOrderRepoTest(t, "order_repo_list_admin")

	shipped := sampleOrder("LS3001", 1)
	if err := repo.Create(shipped, nil); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := db.Model(&models.Order{}).Where("id = ?", shipped.ID).Update("status", "shipped").Error; err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	other := sampleOrder("LS3002", 2)
	other.CustomerName = "Bob"
	other.CustomerEmail = "bob@example.com"
	if err := repo.Create(other, nil); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	byStatus, total, err := repo.ListAdmin(OrderListFilter{Status: "shipped", Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("ListAdmin by status error: %v", err)
	}
	if total != 1 || byStatus[0].OrderNo != "LS3001" {
		t.Fatalf("unexpected status filter result: total=%d", total)
	}

	bySearch, total, err := repo.ListAdmin(OrderListFilter{Search: "bob@", Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("ListAdmin by search error: %v", err)
	}
	if total != 1 || bySearch[0].OrderNo != "LS3002" {
		t.Fatalf("unexpected search filter result: total=%d", total)
	}

	byNo, total, err := repo.ListAdmin(OrderListFilter{OrderNo: "LS3001", Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("ListAdmin by order no error: %v", err)
	}
	if total != 1 || byNo[0].OrderNo != "LS3001" {
		t.Fatalf("unexpected order no filter result: total=%d", total)
	}
}

func TestOrderListStalePending(t *testing.T) {
	db, repo := setupOrderRepoTest(t, "order_repo_stale")

	stale := sampleOrder("LS4001", 1)
	if err := repo.Create(stale, nil); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	fresh := sampleOrder("LS4002", 1)
	if err := repo.Create(fresh, nil); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := db.Model(&models.Order{}).Where("id = ?", stale.ID).Update("created_at", time.Now().Add(-2*time.Hour)).Error; err != nil {
		t.Fatalf("backdate order failed: %v", err)
	}

	orders, err := repo.ListStalePending(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListStalePending error: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != stale.ID {
		t.Fatalf("unexpected stale orders: %+v", orders)
	}
}
