package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/lumen-store/internal/constants"
	"github.com/lumen-store/internal/logger"
	"github.com/lumen-store/internal/models"
	"github.com/lumen-store/internal/queue"
	"github.com/lumen-store/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo          repository.OrderRepository
	productRepo        repository.ProductRepository
	queueClient        *queue.Client
	staleCancelMinutes int
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, queueClient *queue.Client, staleCancelMinutes int) *OrderService {
	return &OrderService{
		orderRepo:          orderRepo,
		productRepo:        productRepo,
		queueClient:        queueClient,
		staleCancelMinutes: staleCancelMinutes,
	}
}

// CreateOrderItemInput 创建订单项输入（下单时冻结的快照）
type CreateOrderItemInput struct {
	ProductID    uint
	Variant      string
	Quantity     int
	UnitPrice    models.Money
	ProductName  string
	ProductImage string
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID         uint
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
	Shipping       models.JSON
	Billing        models.JSON
	Items          []CreateOrderItemInput
	TaxAmount      models.Money
	ShippingAmount models.Money
	DiscountAmount models.Money
	ClaimedTotal   *models.Money // 客户端展示金额，与服务端重算不一致则拒单
	PaymentMethod  string
	Notes          string
}

// CreateOrder 创建订单
// 金额以服务端重算为准；订单头与订单项在同一事务内落库
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidOrderItem
	}
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	name := strings.TrimSpace(input.CustomerName)
	email := strings.ToLower(strings.TrimSpace(input.CustomerEmail))
	if name == "" || email == "" {
		return nil, ErrCustomerInfoRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(input.Shipping) == 0 {
		return nil, ErrShippingRequired
	}
	method := strings.TrimSpace(input.PaymentMethod)
	if method != "" && method != constants.PaymentMethodBankTransfer && method != constants.PaymentMethodCashOnDelivery {
		return nil, ErrPaymentMethodInvalid
	}

	merged, err := mergeCreateOrderItems(input.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	currency := constants.SiteCurrencyDefault
	orderItems := make([]models.OrderItem, 0, len(merged))
	subtotal := decimal.Zero
	for _, item := range merged {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, ErrProductNotAvailable
		}
		if product.Currency != "" {
			currency = product.Currency
		}
		unitPrice := item.UnitPrice
		if unitPrice.IsZero() && !product.PriceAmount.IsZero() {
			unitPrice = product.PriceAmount
		}
		productName := strings.TrimSpace(item.ProductName)
		if productName == "" {
			productName = product.Name
		}
		productImage := strings.TrimSpace(item.ProductImage)
		if productImage == "" {
			productImage = product.PrimaryImage()
		}
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		orderItems = append(orderItems, models.OrderItem{
			ProductID:    item.ProductID,
			ProductName:  productName,
			ProductImage: productImage,
			Variant:      strings.TrimSpace(item.Variant),
			Quantity:     item.Quantity,
			UnitPrice:    models.NewMoneyFromDecimal(unitPrice.Decimal),
			TotalPrice:   models.NewMoneyFromDecimal(lineTotal),
			CreatedAt:    now,
		})
	}

	total := subtotal.
		Add(input.TaxAmount.Decimal).
		Add(input.ShippingAmount.Decimal).
		Sub(input.DiscountAmount.Decimal)
	if total.IsNegative() {
		return nil, ErrAmountMismatch
	}
	if input.ClaimedTotal != nil && !input.ClaimedTotal.Round(2).Equal(total.Round(2)) {
		return nil, ErrAmountMismatch
	}

	order := &models.Order{
		OrderNo:        generateOrderNo(),
		UserID:         input.UserID,
		CustomerName:   name,
		CustomerEmail:  email,
		CustomerPhone:  strings.TrimSpace(input.CustomerPhone),
		ShippingJSON:   input.Shipping,
		BillingJSON:    input.Billing,
		Subtotal:       models.NewMoneyFromDecimal(subtotal),
		TaxAmount:      input.TaxAmount,
		ShippingAmount: input.ShippingAmount,
		DiscountAmount: input.DiscountAmount,
		TotalAmount:    models.NewMoneyFromDecimal(total),
		Currency:       currency,
		Status:         constants.OrderStatusPending,
		PaymentStatus:  constants.PaymentStatusPending,
		PaymentMethod:  method,
		Notes:          strings.TrimSpace(input.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		if err := repo.Create(order, orderItems); err != nil {
			return err
		}
		return repo.AppendStatusHistory(&models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    constants.OrderStatusPending,
			Notes:     "order created",
			CreatedAt: now,
		})
	})
	if err != nil {
		logger.Errorw("order_create_failed", "user_id", input.UserID, "error", err)
		return nil, ErrOrderCreateFailed
	}
	order.Items = orderItems

	s.notifyStatus(order.ID, constants.OrderStatusPending)
	if s.queueClient.Enabled() && s.staleCancelMinutes > 0 {
		delay := time.Duration(s.staleCancelMinutes) * time.Minute
		if err := s.queueClient.EnqueueOrderStaleCancel(queue.OrderStaleCancelPayload{OrderID: order.ID}, delay); err != nil {
			logger.Warnw("order_enqueue_stale_cancel_failed", "order_id", order.ID, "error", err)
		}
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", order.UserID,
		"total_amount", order.TotalAmount.String(),
	)
	return order, nil
}

// notifyStatus 推送状态通知任务，失败仅记录
func (s *OrderService) notifyStatus(orderID uint, status string) {
	if !s.queueClient.Enabled() {
		return
	}
	if err := s.queueClient.EnqueueOrderStatusNotify(queue.OrderStatusNotifyPayload{OrderID: orderID, Status: status}); err != nil {
		logger.Warnw("order_enqueue_status_notify_failed", "order_id", orderID, "status", status, "error", err)
	}
}

// mergeCreateOrderItems 合并重复 (product_id, variant) 的下单项
func mergeCreateOrderItems(items []CreateOrderItemInput) ([]CreateOrderItemInput, error) {
	merged := make([]CreateOrderItemInput, 0, len(items))
	indexMap := make(map[string]int)
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return nil, ErrInvalidOrderItem
		}
		key := fmt.Sprintf("%d|%s", item.ProductID, strings.TrimSpace(item.Variant))
		if idx, ok := indexMap[key]; ok {
			merged[idx].Quantity += item.Quantity
			continue
		}
		indexMap[key] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("LS%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
