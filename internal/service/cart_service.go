package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lumen-store/internal/cache"
	"github.com/lumen-store/internal/constants"
	"github.com/lumen-store/internal/logger"
	"github.com/lumen-store/internal/models"
	"github.com/lumen-store/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLine 购物车行（用于响应）
type CartLine struct {
	ProductID   uint         `json:"product_id"`
	Variant     string       `json:"variant"`
	DisplayName string       `json:"display_name"`
	UnitPrice   models.Money `json:"unit_price"`
	ImageRef    string       `json:"image_ref"`
	Quantity    int          `json:"quantity"`
	LineTotal   models.Money `json:"line_total"`
}

// CartView 购物车响应视图
type CartView struct {
	Items     []CartLine   `json:"items"`
	ItemCount int          `json:"item_count"` // 各行数量之和
	Subtotal  models.Money `json:"subtotal"`
	Currency  string       `json:"currency"`
}

// AddCartItemInput 加入购物车输入
type AddCartItemInput struct {
	UserID     uint
	GuestToken string
	ProductID  uint
	Variant    string
	Quantity   int
}

// MergeResult 游客购物车合并结果
type MergeResult struct {
	MergedLines  int  `json:"merged_lines"`
	SkippedLines int  `json:"skipped_lines"`
	AlreadyDone  bool `json:"already_done"`
}

// CartService 购物车服务
// 同一 (product_id, variant) 视为同一行，重复加入数量累加
type CartService struct {
	cartRepo      repository.CartRepository
	guestCartRepo repository.GuestCartRepository
	productRepo   repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, guestCartRepo repository.GuestCartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:      cartRepo,
		guestCartRepo: guestCartRepo,
		productRepo:   productRepo,
	}
}

// resolveProduct 校验商品与规格，返回可下单的商品
func (s *CartService) resolveProduct(productID uint, variant string) (*models.Product, error) {
	if productID == 0 {
		return nil, ErrInvalidCartItem
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive || !product.InStock {
		return nil, ErrProductNotAvailable
	}
	variant = strings.TrimSpace(variant)
	if len(product.Variants) == 0 {
		if variant != "" {
			return nil, ErrVariantInvalid
		}
		return product, nil
	}
	for _, v := range product.Variants {
		if v == variant {
			return product, nil
		}
	}
	return nil, ErrVariantInvalid
}

// AddItem 加入用户购物车（同键数量累加）
func (s *CartService) AddItem(input AddCartItemInput) error {
	if input.UserID == 0 || input.Quantity <= 0 {
		return ErrInvalidCartItem
	}
	product, err := s.resolveProduct(input.ProductID, input.Variant)
	if err != nil {
		return err
	}
	now := time.Now()
	return s.cartRepo.AddQuantity(&models.CartItem{
		UserID:      input.UserID,
		ProductID:   product.ID,
		Variant:     strings.TrimSpace(input.Variant),
		DisplayName: product.Name,
		UnitPrice:   product.PriceAmount,
		ImageRef:    product.PrimaryImage(),
		Quantity:    input.Quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// AddGuestItem 加入游客购物车（同键数量累加）
func (s *CartService) AddGuestItem(input AddCartItemInput) error {
	token := strings.TrimSpace(input.GuestToken)
	if token == "" {
		return ErrGuestTokenRequired
	}
	if input.Quantity <= 0 {
		return ErrInvalidCartItem
	}
	product, err := s.resolveProduct(input.ProductID, input.Variant)
	if err != nil {
		return err
	}
	now := time.Now()
	return s.guestCartRepo.AddQuantity(&models.GuestCartItem{
		GuestToken:  token,
		ProductID:   product.ID,
		Variant:     strings.TrimSpace(input.Variant),
		DisplayName: product.Name,
		UnitPrice:   product.PriceAmount,
		ImageRef:    product.PrimaryImage(),
		Quantity:    input.Quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// UpdateQuantity 设置行数量，数量归零等同删除该行
func (s *CartService) UpdateQuantity(userID, productID uint, variant string, quantity int) error {
	if userID == 0 || productID == 0 {
		return ErrInvalidCartItem
	}
	variant = strings.TrimSpace(variant)
	if quantity <= 0 {
		return s.cartRepo.DeleteByKey(userID, productID, variant)
	}
	existing, err := s.cartRepo.GetByKey(userID, productID, variant)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrCartItemNotFound
	}
	return s.cartRepo.SetQuantity(userID, productID, variant, quantity)
}

// UpdateGuestQuantity 设置游客购物车行数量
func (s *CartService) UpdateGuestQuantity(token string, productID uint, variant string, quantity int) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrGuestTokenRequired
	}
	if productID == 0 {
		return ErrInvalidCartItem
	}
	variant = strings.TrimSpace(variant)
	if quantity <= 0 {
		return s.guestCartRepo.DeleteByKey(token, productID, variant)
	}
	existing, err := s.guestCartRepo.GetByKey(token, productID, variant)
	if err != nil {
		return err
	}
	// 已合并的行对游客不可见，视同不存在
	if existing == nil || existing.MergedAt != nil {
		return ErrCartItemNotFound
	}
	return s.guestCartRepo.SetQuantity(token, productID, variant, quantity)
}

// RemoveItem 删除用户购物车行
func (s *CartService) RemoveItem(userID, productID uint, variant string) error {
	if userID == 0 || productID == 0 {
		return ErrInvalidCartItem
	}
	return s.cartRepo.DeleteByKey(userID, productID, strings.TrimSpace(variant))
}

// RemoveGuestItem 删除游客购物车行
func (s *CartService) RemoveGuestItem(token string, productID uint, variant string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrGuestTokenRequired
	}
	if productID == 0 {
		return ErrInvalidCartItem
	}
	return s.guestCartRepo.DeleteByKey(token, productID, strings.TrimSpace(variant))
}

// Clear 清空用户购物车
func (s *CartService) Clear(userID uint) error {
	if userID == 0 {
		return ErrInvalidCartItem
	}
	return s.cartRepo.ClearByUser(userID)
}

// ClearGuest 清空游客购物车
func (s *CartService) ClearGuest(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrGuestTokenRequired
	}
	return s.guestCartRepo.ClearByToken(token)
}

// GetCart 获取用户购物车视图
func (s *CartService) GetCart(userID uint) (*CartView, error) {
	if userID == 0 {
		return nil, ErrInvalidCartItem
	}
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	view := &CartView{Items: make([]CartLine, 0, len(items)), Currency: ""}
	subtotal := decimal.Zero
	for _, item := range items {
		line := CartLine{
			ProductID:   item.ProductID,
			Variant:     item.Variant,
			DisplayName: item.DisplayName,
			UnitPrice:   item.UnitPrice,
			ImageRef:    item.ImageRef,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal(),
		}
		view.Items = append(view.Items, line)
		view.ItemCount += item.Quantity
		subtotal = subtotal.Add(line.LineTotal.Decimal)
		if view.Currency == "" && item.Product != nil {
			view.Currency = item.Product.Currency
		}
	}
	if view.Currency == "" {
		view.Currency = constants.SiteCurrencyDefault
	}
	view.Subtotal = models.NewMoneyFromDecimal(subtotal)
	return view, nil
}

// GetGuestCart 获取游客购物车视图（不含已合并行）
func (s *CartService) GetGuestCart(token string) (*CartView, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrGuestTokenRequired
	}
	items, err := s.guestCartRepo.ListUnmergedByToken(token)
	if err != nil {
		return nil, err
	}
	view := &CartView{Items: make([]CartLine, 0, len(items)), Currency: constants.SiteCurrencyDefault}
	subtotal := decimal.Zero
	for _, item := range items {
		lineTotal := models.NewMoneyFromDecimal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		view.Items = append(view.Items, CartLine{
			ProductID:   item.ProductID,
			Variant:     item.Variant,
			DisplayName: item.DisplayName,
			UnitPrice:   item.UnitPrice,
			ImageRef:    item.ImageRef,
			Quantity:    item.Quantity,
			LineTotal:   lineTotal,
		})
		view.ItemCount += item.Quantity
		subtotal = subtotal.Add(lineTotal.Decimal)
	}
	view.Subtotal = models.NewMoneyFromDecimal(subtotal)
	return view, nil
}

const mergeGuardTTL = 30 * time.Second

// MergeGuestCart 登录后把游客购物车并入用户购物车
// 合并是累加语义；guest 行打 merged_at 标记保证同一令牌只并入一次，
// 重复调用与并发重放都不会重复累加数量。
func (s *CartService) MergeGuestCart(ctx context.Context, userID uint, guestToken string) (*MergeResult, error) {
	if userID == 0 {
		return nil, ErrInvalidCartItem
	}
	token := strings.TrimSpace(guestToken)
	if token == "" {
		return nil, ErrGuestTokenRequired
	}

	// 进程间防抖，数据库标记才是正确性保证
	guardKey := fmt.Sprintf("cart:merge:%s", token)
	if acquired, err := cache.SetNX(ctx, guardKey, fmt.Sprintf("%d", userID), mergeGuardTTL); err != nil {
		logger.Warnw("cart_merge_guard_failed", "guest_token", token, "error", err)
	} else if !acquired {
		return &MergeResult{AlreadyDone: true}, nil
	}

	result := &MergeResult{}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		guestRepo := s.guestCartRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		rows, err := guestRepo.ListUnmergedByToken(token)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			result.AlreadyDone = true
			return nil
		}

		now := time.Now()
		ids := make([]uint, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		claimed, err := guestRepo.MarkMerged(ids, now)
		if err != nil {
			return err
		}
		if claimed == 0 {
			result.AlreadyDone = true
			return nil
		}

		for _, row := range rows {
			product, err := s.productRepo.GetByID(row.ProductID)
			if err != nil {
				return err
			}
			if product == nil || !product.IsActive {
				result.SkippedLines++
				continue
			}
			if err := cartRepo.AddQuantity(&models.CartItem{
				UserID:      userID,
				ProductID:   row.ProductID,
				Variant:     row.Variant,
				DisplayName: row.DisplayName,
				UnitPrice:   row.UnitPrice,
				ImageRef:    row.ImageRef,
				Quantity:    row.Quantity,
				CreatedAt:   now,
				UpdatedAt:   now,
			}); err != nil {
				return err
			}
			result.MergedLines++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("guest_cart_merged",
		"user_id", userID,
		"merged_lines", result.MergedLines,
		"skipped_lines", result.SkippedLines,
		"already_done", result.AlreadyDone,
	)
	return result, nil
}
