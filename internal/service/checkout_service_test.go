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

func setupCheckoutTest(t *testing.T, name string) (*gorm.DB, *CartService, *CheckoutService) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{},
		&models.CartItem{},
		&models.GuestCartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	prev := models.DB
	models.DB = db
	t.Cleanup(func() { models.DB = prev })

	cartSvc := NewCartService(
		repository.NewCartRepository(db),
		repository.NewGuestCartRepository(db),
		repository.NewProductRepository(db),
	)
	qc, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	orderSvc := NewOrderService(repository.NewOrderRepository(db), repository.NewProductRepository(db), qc, 0)
	checkoutSvc := NewCheckoutService(cartSvc, orderSvc, 0.1, 5.0, 50.0)
	return db, cartSvc, checkoutSvc
}

func baseCheckoutInput(userID uint) CheckoutInput {
	return CheckoutInput{
		UserID:        userID,
		CustomerName:  "Alice",
		CustomerEmail: "alice@example.com",
		Shipping:      models.JSON{"address": "1 Main St", "city": "Springfield"},
		PaymentMethod: constants.PaymentMethodBankTransfer,
	}
}

func TestPreviewComputesTaxAndShipping(t *testing.T) {
	db, cartSvc, checkoutSvc := setupCheckoutTest(t, "checkout_preview")
	product := createCartTestProduct(t, db, "tee", "10.00", nil, true)

	if err := cartSvc.AddItem(AddCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}

	preview, err := checkoutSvc.Preview(1)
	if err != nil {
		t.Fatalf("Preview error: %v", err)
	}
	if !preview.Subtotal.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected subtotal 20.00, got %s", preview.Subtotal.String())
	}
	if !preview.TaxAmount.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("expected tax 2.00, got %s", preview.TaxAmount.String())
	}
	if !preview.ShippingAmount.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("expected shipping 5.00, got %s", preview.ShippingAmount.String())
	}
	if !preview.TotalAmount.Equal(decimal.RequireFromString("27.00")) {
		t.Fatalf("expected total 27.00, got %s", preview.TotalAmount.String())
	}
}

func TestPreviewFreeShippingThreshold(t *testing.T) {
	db, cartSvc, checkoutSvc := setupCheckoutTest(t, "checkout_free_shipping")
	product := createCartTestProduct(t, db, "kit", "25.00", nil, true)

	if err := cartSvc.AddItem(AddCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}

	preview, err := checkoutSvc.Preview(1)
	if err != nil {
		t.Fatalf("Preview error: %v", err)
	}
	if !preview.ShippingAmount.IsZero() {
		t.Fatalf("expected free shipping at threshold, got %s", preview.ShippingAmount.String())
	}
	if !preview.TotalAmount.Equal(decimal.RequireFromString("55.00")) {
		t.Fatalf("expected total 55.00, got %s", preview.TotalAmount.String())
	}
}

func TestPreviewEmptyCart(t *testing.T) {
	_, _, checkoutSvc := setupCheckoutTest(t, "checkout_empty")

	if _, err := checkoutSvc.Preview(1); !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}
}

func TestCheckoutCreatesOrderAndClearsCart(t *testing.T) {
	db, cartSvc, checkoutSvc := setupCheckoutTest(t, "checkout_submit")
	product := createCartTestProduct(t, db, "tee", "10.00", []string{"M"}, true)

	if err := cartSvc.AddItem(AddCartItemInput{UserID: 1, ProductID: product.ID, Variant: "M", Quantity: 2}); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}

	order, err := checkoutSvc.Checkout(baseCheckoutInput(1))
	if err != nil {
		t.Fatalf("Checkout error: %v", err)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("27.00")) {
		t.Fatalf("expected total 27.00, got %s", order.TotalAmount.String())
	}
	if len(order.Items) != 1 || order.Items[0].Variant != "M" {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}

	cart, err := cartSvc.GetCart(1)
	if err != nil {
		t.Fatalf("GetCart error: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected cart cleared after checkout, got %d lines", len(cart.Items))
	}
}

func TestCheckoutClaimedTotalMismatch(t *testing.T) {
	db, cartSvc, checkoutSvc := setupCheckoutTest(t, "checkout_claimed_mismatch")
	product := createCartTestProduct(t, db, "tee", "10.00", nil, true)

	if err := cartSvc.AddItem(AddCartItemInput{UserID: 1, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}

	input := baseCheckoutInput(1)
	claimed := models.NewMoneyFromDecimal(decimal.RequireFromString("10.00"))
	input.ClaimedTotal = &claimed
	if _, err := checkoutSvc.Checkout(input); !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}

	// 拒单后购物车保持不变
	cart, err := cartSvc.GetCart(1)
	if err != nil {
		t.Fatalf("GetCart error: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected cart untouched after rejected checkout, got %d lines", len(cart.Items))
	}
}
