package public

import (
	"errors"
	"strconv"

	"github.com/lumen-store/internal/http/response"
	"github.com/lumen-store/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 购物车条目请求
type CartItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// CartUpdateRequest 购物车数量更新请求
type CartUpdateRequest struct {
	Variant  string `json:"variant"`
	Quantity int    `json:"quantity"`
}

// GetCart 获取当前用户购物车
func (h *Handler) GetCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	cart, err := h.CartService.GetCart(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "cart fetch failed", err)
		return
	}

	response.Success(c, cart)
}

// AddCartItem 加入购物车（同一条目数量累加）
func (h *Handler) AddCartItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.CartService.AddItem(service.AddCartItemInput{
		UserID:    userID,
		ProductID: req.ProductID,
		Variant:   req.Variant,
		Quantity:  req.Quantity,
	}); err != nil {
		respondCartError(c, err)
		return
	}

	cart, err := h.CartService.GetCart(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "cart fetch failed", err)
		return
	}
	response.Success(c, cart)
}

// UpdateCartItem 更新购物车条目数量（数量 <= 0 视为移除）
func (h *Handler) UpdateCartItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return
	}

	var req CartUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.CartService.UpdateQuantity(userID, uint(productID), req.Variant, req.Quantity); err != nil {
		respondCartError(c, err)
		return
	}

	cart, err := h.CartService.GetCart(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "cart fetch failed", err)
		return
	}
	response.Success(c, cart)
}

// RemoveCartItem 移除购物车条目
func (h *Handler) RemoveCartItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return
	}

	if err := h.CartService.RemoveItem(userID, uint(productID), c.Query("variant")); err != nil {
		respondCartError(c, err)
		return
	}

	response.Success(c, gin.H{"removed": true})
}

// ClearCart 清空当前用户购物车
func (h *Handler) ClearCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	if err := h.CartService.Clear(userID); err != nil {
		respondError(c, response.CodeInternal, "cart clear failed", err)
		return
	}

	response.Success(c, gin.H{"cleared": true})
}

// MergeCart 将游客购物车合入当前用户购物车（同一令牌只合并一次）
func (h *Handler) MergeCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	token, ok := getGuestToken(c)
	if !ok {
		return
	}

	result, err := h.CartService.MergeGuestCart(c.Request.Context(), userID, token)
	if err != nil {
		if errors.Is(err, service.ErrGuestTokenRequired) {
			respondError(c, response.CodeBadRequest, "guest token required", nil)
			return
		}
		respondError(c, response.CodeInternal, "cart merge failed", err)
		return
	}

	cart, err := h.CartService.GetCart(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "cart fetch failed", err)
		return
	}
	response.Success(c, gin.H{
		"merge": result,
		"cart":  cart,
	})
}

// GetGuestCart 获取游客购物车
func (h *Handler) GetGuestCart(c *gin.Context) {
	token, ok := getGuestToken(c)
	if !ok {
		return
	}

	cart, err := h.CartService.GetGuestCart(token)
	if err != nil {
		respondError(c, response.CodeInternal, "cart fetch failed", err)
		return
	}

	response.Success(c, cart)
}

// AddGuestCartItem 游客加入购物车
func (h *Handler) AddGuestCartItem(c *gin.Context) {
	token, ok := getGuestToken(c)
	if !ok {
		return
	}

	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.CartService.AddGuestItem(service.AddCartItemInput{
		GuestToken: token,
		ProductID:  req.ProductID,
		Variant:    req.Variant,
		Quantity:   req.Quantity,
	}); err != nil {
		respondCartError(c, err)
		return
	}

	cart, err := h.CartService.GetGuestCart(token)
	if err != nil {
		respondError(c, response.CodeInternal, "cart fetch failed", err)
		return
	}
	response.Success(c, cart)
}

// UpdateGuestCartItem 游客更新购物车条目数量
func (h *Handler) UpdateGuestCartItem(c *gin.Context) {
	token, ok := getGuestToken(c)
	if !ok {
		return
	}

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return
	}

	var req CartUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.CartService.UpdateGuestQuantity(token, uint(productID), req.Variant, req.Quantity); err != nil {
		respondCartError(c, err)
		return
	}

	cart, err := h.CartService.GetGuestCart(token)
	if err != nil {
		respondError(c, response.CodeInternal, "cart fetch failed", err)
		return
	}
	response.Success(c, cart)
}

// RemoveGuestCartItem 游客移除购物车条目
func (h *Handler) RemoveGuestCartItem(c *gin.Context) {
	token, ok := getGuestToken(c)
	if !ok {
		return
	}

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return
	}

	if err := h.CartService.RemoveGuestItem(token, uint(productID), c.Query("variant")); err != nil {
		respondCartError(c, err)
		return
	}

	response.Success(c, gin.H{"removed": true})
}

// ClearGuestCart 清空游客购物车
func (h *Handler) ClearGuestCart(c *gin.Context) {
	token, ok := getGuestToken(c)
	if !ok {
		return
	}

	if err := h.CartService.ClearGuest(token); err != nil {
		respondError(c, response.CodeInternal, "cart clear failed", err)
		return
	}

	response.Success(c, gin.H{"cleared": true})
}
