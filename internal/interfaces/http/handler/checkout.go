package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CheckoutService turns a session's cart into an order
type CheckoutService interface {
	PlaceOrder(ctx context.Context, sessionToken string, req checkoutapp.PlaceOrderRequest) (*checkoutapp.PlaceOrderResult, error)
}

// OrderLookup finds a guest order by number and email
type OrderLookup interface {
	Lookup(ctx context.Context, req orderapp.LookupOrderRequest) (*orderapp.OrderResponse, error)
}

// CheckoutHandler handles guest checkout and order lookup
type CheckoutHandler struct {
	BaseHandler
	checkout CheckoutService
	orders   OrderLookup
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkout CheckoutService, orders OrderLookup) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, orders: orders}
}

// PlaceOrder handles POST /checkout.
// Card orders answer with the hosted payment page in redirect_url.
//
// @Summary      Place an order from the cart
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        request body checkoutapp.PlaceOrderRequest true "Request body"
// @Param        currency query string false "Display currency"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /checkout [post]
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	var req checkoutapp.PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Currency == "" {
		req.Currency = middleware.GetDisplayCurrency(c)
	}

	result, err := h.checkout.PlaceOrder(c.Request.Context(), middleware.GetCartSession(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Lookup handles POST /orders/lookup
//
// @Summary      Look up an order by number and email
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        request body orderapp.LookupOrderRequest true "Request body"
// @Param        currency query string false "Display currency"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/lookup [post]
func (h *CheckoutHandler) Lookup(c *gin.Context) {
	var req orderapp.LookupOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Lookup(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
