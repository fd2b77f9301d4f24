package service

import (
	"github.com/lumen-store/internal/logger"
	"github.com/lumen-store/internal/models"

	"github.com/shopspring/decimal"
)

// CheckoutService 结算服务
// 把用户购物车快照冻结为订单，金额在服务端重算
type CheckoutService struct {
	cartService      *CartService
	orderService     *OrderService
	taxRate          decimal.Decimal
	shippingFlat     decimal.Decimal
	freeShippingOver decimal.Decimal
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(cartService *CartService, orderService *OrderService, taxRate, shippingFlat, freeShippingOver float64) *CheckoutService {
	return &CheckoutService{
		cartService:      cartService,
		orderService:     orderService,
		taxRate:          decimal.NewFromFloat(taxRate),
		shippingFlat:     decimal.NewFromFloat(shippingFlat),
		freeShippingOver: decimal.NewFromFloat(freeShippingOver),
	}
}

// CheckoutInput 结算输入
type CheckoutInput struct {
	UserID        uint
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Shipping      models.JSON
	Billing       models.JSON
	PaymentMethod string
	Notes         string
	ClaimedTotal  *models.Money // 客户端展示金额，不一致则拒单
}

// CheckoutPreview 结算金额预览
type CheckoutPreview struct {
	Items          []CartLine   `json:"items"`
	Subtotal       models.Money `json:"subtotal"`
	TaxAmount      models.Money `json:"tax_amount"`
	ShippingAmount models.Money `json:"shipping_amount"`
	DiscountAmount models.Money `json:"discount_amount"`
	TotalAmount    models.Money `json:"total_amount"`
	Currency       string       `json:"currency"`
}

// Preview 重算结算金额（不落单）
func (s *CheckoutService) Preview(userID uint) (*CheckoutPreview, error) {
	cart, err := s.cartService.GetCart(userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	subtotal := cart.Subtotal.Decimal
	tax := subtotal.Mul(s.taxRate).Round(2)
	shipping := s.resolveShipping(subtotal)
	total := subtotal.Add(tax).Add(shipping)
	return &CheckoutPreview{
		Items:          cart.Items,
		Subtotal:       models.NewMoneyFromDecimal(subtotal),
		TaxAmount:      models.NewMoneyFromDecimal(tax),
		ShippingAmount: models.NewMoneyFromDecimal(shipping),
		DiscountAmount: models.NewMoneyFromDecimal(decimal.Zero),
		TotalAmount:    models.NewMoneyFromDecimal(total),
		Currency:       cart.Currency,
	}, nil
}

// Checkout 提交结算，成功后尽力清空购物车
func (s *CheckoutService) Checkout(input CheckoutInput) (*models.Order, error) {
	preview, err := s.Preview(input.UserID)
	if err != nil {
		return nil, err
	}

	items := make([]CreateOrderItemInput, 0, len(preview.Items))
	for _, line := range preview.Items {
		items = append(items, CreateOrderItemInput{
			ProductID:    line.ProductID,
			Variant:      line.Variant,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			ProductName:  line.DisplayName,
			ProductImage: line.ImageRef,
		})
	}

	order, err := s.orderService.CreateOrder(CreateOrderInput{
		UserID:         input.UserID,
		CustomerName:   input.CustomerName,
		CustomerEmail:  input.CustomerEmail,
		CustomerPhone:  input.CustomerPhone,
		Shipping:       input.Shipping,
		Billing:        input.Billing,
		Items:          items,
		TaxAmount:      preview.TaxAmount,
		ShippingAmount: preview.ShippingAmount,
		DiscountAmount: preview.DiscountAmount,
		ClaimedTotal:   input.ClaimedTotal,
		PaymentMethod:  input.PaymentMethod,
		Notes:          input.Notes,
	})
	if err != nil {
		return nil, err
	}

	// 清购物车失败不回滚订单
	if err := s.cartService.Clear(input.UserID); err != nil {
		logger.Warnw("checkout_cart_clear_failed", "user_id", input.UserID, "order_id", order.ID, "error", err)
	}
	return order, nil
}

func (s *CheckoutService) resolveShipping(subtotal decimal.Decimal) decimal.Decimal {
	if s.freeShippingOver.IsPositive() && subtotal.GreaterThanOrEqual(s.freeShippingOver) {
		return decimal.Zero
	}
	if s.shippingFlat.IsNegative() {
		return decimal.Zero
	}
	return s.shippingFlat.Round(2)
}
