package public

import (
	"errors"

	"github.com/lumen-store/internal/http/response"
	"github.com/lumen-store/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCartItem, code: response.CodeBadRequest, msg: "cart item invalid"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrVariantInvalid, code: response.CodeBadRequest, msg: "variant invalid"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, msg: "cart item not found"},
	{target: service.ErrGuestTokenRequired, code: response.CodeBadRequest, msg: "guest token required"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrEmptyOrder, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, msg: "order item invalid"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrAmountMismatch, code: response.CodeBadRequest, msg: "order amount mismatch"},
	{target: service.ErrShippingRequired, code: response.CodeBadRequest, msg: "shipping address required"},
	{target: service.ErrCustomerInfoRequired, code: response.CodeBadRequest, msg: "customer info required"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "email invalid"},
	{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, msg: "payment method invalid"},
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "cart operation failed")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "order create failed")
}
