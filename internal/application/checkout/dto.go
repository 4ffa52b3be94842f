package checkout

import (
	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// PlaceOrderRequest is the checkout form
type PlaceOrderRequest struct {
	Email           string              `json:"email" binding:"required,email,max=254"`
	ShippingAddress valueobject.Address `json:"shipping_address" binding:"required"`
	PaymentMethod   string              `json:"payment_method" binding:"required,oneof=CARD CASH_ON_DELIVERY"`
	Currency        string              `json:"currency" binding:"omitempty,currency"`
	Notes           string              `json:"notes" binding:"omitempty,max=1000"`
}

// PlaceOrderResult is the placed order and, for card payments, where to send the shopper
type PlaceOrderResult struct {
	Order       *apporder.OrderResponse `json:"order"`
	RedirectURL string                  `json:"redirect_url,omitempty"`
}
