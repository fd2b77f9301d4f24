package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lumen-store/internal/constants"
	"github.com/lumen-store/internal/models"
	"github.com/lumen-store/internal/queue"
	"github.com/lumen-store/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}, &models.OrderStatusHistory{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	prev := models.DB
	models.DB = db
	t.Cleanup(func() { models.DB = prev })
	return db
}

func newOrderTestService(t *testing.T, db *gorm.DB, staleMinutes int) *OrderService {
	t.Helper()
	qc, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	return NewOrderService(repository.NewOrderRepository(db), repository.NewProductRepository(db), qc, staleMinutes)
}

func createOrderTestProduct(t *testing.T, db *gorm.DB, slug, price string, active bool) models.Product {
	t.Helper()
	product := models.Product{
		Slug:        slug,
		Name:        "Product " + slug,
		PriceAmount: models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
		Currency:    "USD",
		InStock:     true,
		IsActive:    active,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func money(t *testing.T, raw string) models.Money {
	t.Helper()
	return models.NewMoneyFromDecimal(decimal.RequireFromString(raw))
}

func baseOrderInput(product models.Product) CreateOrderInput {
	return CreateOrderInput{
		UserID:        1,
		CustomerName:  "Alice",
		CustomerEmail: "alice@example.com",
		Shipping:      models.JSON{"address": "1 Main St", "city": "Springfield"},
		PaymentMethod: constants.PaymentMethodBankTransfer,
		Items: []CreateOrderItemInput{
			{ProductID: product.ID, Quantity: 2},
		},
	}
}

func TestCreateOrderComputesTotals(t *testing.T) {
	db := setupOrderTestDB(t, "order_create_totals")
	svc := newOrderTestService(t, db, 0)
	product := createOrderTestProduct(t, db, "tee", "10.00", true)

	input := baseOrderInput(product)
	input.TaxAmount = money(t, "2.00")
	input.ShippingAmount = money(t, "5.00")
	claimed := money(t, "27.00")
	input.ClaimedTotal = &claimed

	order, err := svc.CreateOrder(input)
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order.OrderNo == "" {
		t.Fatalf("expected order no to be generated")
	}
	if !order.Subtotal.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected subtotal 20.00, got %s", order.Subtotal.String())
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("27.00")) {
		t.Fatalf("expected total 27.00, got %s", order.TotalAmount.String())
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected status pending, got %s", order.Status)
	}
	if order.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("expected payment status pending, got %s", order.PaymentStatus)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}

	var history []models.OrderStatusHistory
	if err := db.Where("order_id = ?", order.ID).Find(&history).Error; err != nil {
		t.Fatalf("load history failed: %v", err)
	}
	if len(history) != 1 || history[0].Status != constants.OrderStatusPending || history[0].Notes != "order created" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestCreateOrderClaimedTotalMismatch(t *testing.T) {
	db := setupOrderTestDB(t, "order_create_mismatch")
	svc := newOrderTestService(t, db, 0)
	product := createOrderTestProduct(t, db, "tee", "10.00", true)

	input := baseOrderInput(product)
	claimed := money(t, "19.99")
	input.ClaimedTotal = &claimed

	if _, err := svc.CreateOrder(input); !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}

	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no order persisted, got %d", count)
	}
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	db := setupOrderTestDB(t, "order_create_merge_lines")
	svc := newOrderTestService(t, db, 0)
	product := createOrderTestProduct(t, db, "tee", "10.00", true)

	input := baseOrderInput(product)
	input.Items = []CreateOrderItemInput{
		{ProductID: product.ID, Quantity: 1},
		{ProductID: product.ID, Quantity: 2},
	}

	order, err := svc.CreateOrder(input)
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected duplicate lines merged, got %d", len(order.Items))
	}
	if order.Items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", order.Items[0].Quantity)
	}
	if !order.Subtotal.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("expected subtotal 30.00, got %s", order.Subtotal.String())
	}
}

func TestCreateOrderSnapshotImmutable(t *testing.T) {
	db := setupOrderTestDB(t, "order_snapshot_immutable")
	svc := newOrderTestService(t, db, 0)
	product := createOrderTestProduct(t, db, "tee", "10.00", true)

	order, err := svc.CreateOrder(baseOrderInput(product))
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	// 下单后调价不影响已生成的订单快照
	newPrice := models.NewMoneyFromDecimal(decimal.RequireFromString("99.00"))
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("price_amount", newPrice).Error; err != nil {
		t.Fatalf("reprice product failed: %v", err)
	}

	got, err := svc.GetOrderAdmin(order.ID)
	if err != nil {
		t.Fatalf("fetch order failed: %v", err)
	}
	if !got.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected snapshot unit price 10.00, got %s", got.Items[0].UnitPrice.String())
	}
	if !got.Subtotal.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected snapshot subtotal 20.00, got %s", got.Subtotal.String())
	}
}

func TestCreateOrderValidation(t *testing.T) {
	db := setupOrderTestDB(t, "order_create_validation")
	svc := newOrderTestService(t, db, 0)
	product := createOrderTestProduct(t, db, "tee", "10.00", true)
	inactive := createOrderTestProduct(t, db, "retired", "5.00", false)

	empty := baseOrderInput(product)
	empty.Items = nil
	if _, err := svc.CreateOrder(empty); !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}

	badEmail := baseOrderInput(product)
	badEmail.CustomerEmail = "not-an-email"
	if _, err := svc.CreateOrder(badEmail); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	noName := baseOrderInput(product)
	noName.CustomerName = "  "
	if _, err := svc.CreateOrder(noName); !errors.Is(err, ErrCustomerInfoRequired) {
		t.Fatalf("expected ErrCustomerInfoRequired, got %v", err)
	}

	noShipping := baseOrderInput(product)
	noShipping.Shipping = nil
	if _, err := svc.CreateOrder(noShipping); !errors.Is(err, ErrShippingRequired) {
		t.Fatalf("expected ErrShippingRequired, got %v", err)
	}

	badMethod := baseOrderInput(product)
	badMethod.PaymentMethod = "crypto"
	if _, err := svc.CreateOrder(badMethod); !errors.Is(err, ErrPaymentMethodInvalid) {
		t.Fatalf("expected ErrPaymentMethodInvalid, got %v", err)
	}

	offShelf := baseOrderInput(product)
	offShelf.Items = []CreateOrderItemInput{{ProductID: inactive.ID, Quantity: 1}}
	if _, err := svc.CreateOrder(offShelf); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected ErrProductNotAvailable, got %v", err)
	}
}

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusConfirmed, true},
		{constants.OrderStatusPending, constants.OrderStatusShipped, false},
		{constants.OrderStatusPending, constants.OrderStatusCancelled, true},
		{constants.OrderStatusConfirmed, constants.OrderStatusProcessing, true},
		{constants.OrderStatusConfirmed, constants.OrderStatusShipped, false},
		{constants.OrderStatusProcessing, constants.OrderStatusShipped, true},
		{constants.OrderStatusShipped, constants.OrderStatusDelivered, true},
		{constants.OrderStatusShipped, constants.OrderStatusRefunded, true},
		{constants.OrderStatusDelivered, constants.OrderStatusRefunded, false},
		{constants.OrderStatusCancelled, constants.OrderStatusPending, false},
		{constants.OrderStatusRefunded, constants.OrderStatusCancelled, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestSetStatusFlow(t *testing.T) {
	db := setupOrderTestDB(t, "order_set_status")
	svc := newOrderTestService(t, db, 0)
	product := createOrderTestProduct(t, db, "tee", "10.00", true)

	order, err := svc.CreateOrder(baseOrderInput(product))
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	confirmed, err := svc.SetStatus(SetStatusInput{OrderID: order.ID, Target: constants.OrderStatusConfirmed, Actor: "admin"})
	if err != nil {
		t.Fatalf("confirm error: %v", err)
	}
	if confirmed.Status != constants.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}

	// confirmed 不能直接跳到 shipped
	if _, err := svc.SetStatus(SetStatusInput{OrderID: order.ID, Target: constants.OrderStatusShipped, Actor: "admin"}); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}

	if _, err := svc.SetStatus(SetStatusInput{OrderID: order.ID, Target: constants.OrderStatusProcessing, Actor: "admin"}); err != nil {
		t.Fatalf("processing error: %v", err)
	}

	estimated := time.Now().Add(72 * time.Hour)
	shipped, err := svc.SetStatus(SetStatusInput{
		OrderID:        order.ID,
		Target:         constants.OrderStatusShipped,
		Notes:          "left warehouse",
		Actor:          "admin",
		Carrier:        "UPS",
		TrackingNumber: "1Z999",
		EstimatedAt:    &estimated,
	})
	if err != nil {
		t.Fatalf("ship error: %v", err)
	}
	if shipped.Carrier != "UPS" || shipped.TrackingNumber != "1Z999" {
		t.Fatalf("expected shipping fields set, got %+v", shipped)
	}
	if shipped.ShippedAt == nil {
		t.Fatalf("expected shipped_at set")
	}

	delivered, err := svc.SetStatus(SetStatusInput{OrderID: order.ID, Target: constants.OrderStatusDelivered, Actor: "admin"})
	if err != nil {
		t.Fatalf("deliver error: %v", err)
	}
	if delivered.DeliveredAt == nil {
		t.Fatalf("expected delivered_at set")
	}

	// delivered 为终态
	if _, err := svc.SetStatus(SetStatusInput{OrderID: order.ID, Target: constants.OrderStatusRefunded, Actor: "admin"}); !errors.Is(err, ErrOrderTerminal) {
		t.Fatalf("expected ErrOrderTerminal, got %v", err)
	}

	var history []models.OrderStatusHistory
	if err := db.Where("order_id = ?", order.ID).Order("id asc").Find(&history).Error; err != nil {
		t.Fatalf("load history failed: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("expected 5 history entries, got %d", len(history))
	}
	if history[3].Status != constants.OrderStatusShipped || history[3].Notes != "left warehouse" {
		t.Fatalf("expected shipped history with notes, got %+v", history[3])
	}
	if history[len(history)-1].CreatedBy != "admin" {
		t.Fatalf("expected actor recorded, got %q", history[len(history)-1].CreatedBy)
	}
}

func TestSetStatusRefundedUpdatesPayment(t *testing.T) {
	db := setupOrderTestDB(t, "order_refund_payment")
	svc := newOrderTestService(t, db, 0)
	product := createOrderTestProduct(t, db, "tee", "10.00", true)

	order, err := svc.CreateOrder(baseOrderInput(product))
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	refunded, err := svc.SetStatus(SetStatusInput{OrderID: order.ID, Target: constants.OrderStatusRefunded, Actor: "admin"})
	if err != nil {
		t.Fatalf("refund error: %v", err)
	}
	if refunded.PaymentStatus != constants.PaymentStatusRefunded {
		t.Fatalf("expected payment status refunded, got %s", refunded.PaymentStatus)
	}
}

func TestSetStatusInvalidInput(t *testing.T) {
	db := setupOrderTestDB(t, "order_status_invalid")
	svc := newOrderTestService(t, db, 0)

	if _, err := svc.SetStatus(SetStatusInput{OrderID: 1, Target: "teleported"}); !errors.Is(err, ErrStatusInvalid) {
		t.Fatalf("expected ErrStatusInvalid, got %v", err)
	}
	if _, err := svc.SetStatus(SetStatusInput{OrderID: 999, Target: constants.OrderStatusConfirmed}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestCancelStaleOrders(t *testing.T) {
	db := setupOrderTestDB(t, "order_stale_cancel")
	svc := newOrderTestService(t, db, 60)
	product := createOrderTestProduct(t, db, "tee", "10.00", true)

	stale, err := svc.CreateOrder(baseOrderInput(product))
	if err != nil {
		t.Fatalf("create stale order error: %v", err)
	}
	fresh, err := svc.CreateOrder(baseOrderInput(product))
	if err != nil {
		t.Fatalf("create fresh order error: %v", err)
	}
	paid, err := svc.CreateOrder(baseOrderInput(product))
	if err != nil {
		t.Fatalf("create paid order error: %v", err)
	}

	past := time.Now().Add(-2 * time.Hour)
	if err := db.Model(&models.Order{}).Where("id IN ?", []uint{stale.ID, paid.ID}).Update("created_at", past).Error; err != nil {
		t.Fatalf("backdate orders failed: %v", err)
	}
	if err := db.Model(&models.Order{}).Where("id = ?", paid.ID).Update("payment_status", constants.PaymentStatusPaid).Error; err != nil {
		t.Fatalf("mark order paid failed: %v", err)
	}

	cancelled, err := svc.CancelStaleOrders(time.Now())
	if err != nil {
		t.Fatalf("CancelStaleOrders error: %v", err)
	}
	if cancelled != 1 {
		t.Fatalf("expected 1 cancelled order, got %d", cancelled)
	}

	check := func(id uint, want string) {
		got, err := svc.GetOrderAdmin(id)
		if err != nil {
			t.Fatalf("fetch order %d failed: %v", id, err)
		}
		if got.Status != want {
			t.Fatalf("order %d: expected status %s, got %s", id, want, got.Status)
		}
	}
	check(stale.ID, constants.OrderStatusCancelled)
	check(fresh.ID, constants.OrderStatusPending)
	check(paid.ID, constants.OrderStatusPending)
}

func TestCancelStaleOrderByIDSkipsNonPending(t *testing.T) {
	db := setupOrderTestDB(t, "order_stale_cancel_by_id")
	svc := newOrderTestService(t, db, 60)
	product := createOrderTestProduct(t, db, "tee", "10.00", true)

	order, err := svc.CreateOrder(baseOrderInput(product))
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if _, err := svc.SetStatus(SetStatusInput{OrderID: order.ID, Target: constants.OrderStatusConfirmed, Actor: "admin"}); err != nil {
		t.Fatalf("confirm error: %v", err)
	}

	if err := svc.CancelStaleOrderByID(order.ID); err != nil {
		t.Fatalf("CancelStaleOrderByID error: %v", err)
	}
	got, err := svc.GetOrderAdmin(order.ID)
	if err != nil {
		t.Fatalf("fetch order failed: %v", err)
	}
	if got.Status != constants.OrderStatusConfirmed {
		t.Fatalf("expected confirmed order untouched, got %s", got.Status)
	}
}

func TestTrackByOrderNoRequiresMatchingEmail(t *testing.T) {
	db := setupOrderTestDB(t, "order_tracking")
	svc := newOrderTestService(t, db, 0)
	product := createOrderTestProduct(t, db, "tee", "10.00", true)

	order, err := svc.CreateOrder(baseOrderInput(product))
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	view, err := svc.TrackByOrderNo(order.OrderNo, "Alice@Example.com")
	if err != nil {
		t.Fatalf("TrackByOrderNo error: %v", err)
	}
	if view.OrderNo != order.OrderNo || view.Status != constants.OrderStatusPending {
		t.Fatalf("unexpected tracking view: %+v", view)
	}
	if len(view.Events) != 1 {
		t.Fatalf("expected 1 tracking event, got %d", len(view.Events))
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected 1 tracking item, got %d", len(view.Items))
	}
	if view.Items[0].ProductName != product.Name || view.Items[0].Quantity != 2 {
		t.Fatalf("unexpected tracking item: %+v", view.Items[0])
	}

	if _, err := svc.TrackByOrderNo(order.OrderNo, "mallory@example.com"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for wrong email, got %v", err)
	}
	if _, err := svc.TrackByOrderNo("LS000", "alice@example.com"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for unknown order, got %v", err)
	}
}
