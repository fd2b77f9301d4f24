package service

import "errors"

// 服务层统一错误定义，路由层按错误映射响应码
var (
	ErrInvalidCartItem     = errors.New("invalid cart item")
	ErrProductNotAvailable = errors.New("product not available")
	ErrVariantInvalid      = errors.New("variant invalid")
	ErrCartItemNotFound    = errors.New("cart item not found")
	ErrGuestTokenRequired  = errors.New("guest token required")

	ErrEmptyOrder           = errors.New("order has no items")
	ErrInvalidOrderItem     = errors.New("invalid order item")
	ErrAmountMismatch       = errors.New("order amount mismatch")
	ErrShippingRequired     = errors.New("shipping address required")
	ErrCustomerInfoRequired = errors.New("customer info required")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderCreateFailed    = errors.New("order create failed")
	ErrOrderFetchFailed     = errors.New("order fetch failed")
	ErrOrderUpdateFailed    = errors.New("order update failed")
	ErrStatusInvalid        = errors.New("order status invalid")
	ErrTransitionNotAllowed = errors.New("order status transition not allowed")
	ErrOrderTerminal        = errors.New("order already in terminal status")
	ErrPaymentStatusInvalid = errors.New("payment status invalid")
	ErrPaymentMethodInvalid = errors.New("payment method invalid")

	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrWeakPassword       = errors.New("password does not meet policy")

	ErrProductNotFound  = errors.New("product not found")
	ErrProductInvalid   = errors.New("product fields invalid")
	ErrProductSlugTaken = errors.New("product slug already exists")
)
