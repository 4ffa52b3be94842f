package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ListOrdersRequest filters the admin order list
type ListOrdersRequest struct {
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search        string     `form:"search" binding:"omitempty,max=100"`
	Status        string     `form:"status" binding:"omitempty,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED"`
	PaymentStatus string     `form:"payment_status" binding:"omitempty,oneof=UNPAID PAID FAILED REFUNDED"`
	PaymentMethod string     `form:"payment_method" binding:"omitempty,oneof=CARD CASH_ON_DELIVERY"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
}

// ShipOrderRequest ships an order
type ShipOrderRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"omitempty,max=100"`
}

// CancelOrderRequest cancels an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// RefundOrderRequest refunds a paid card order
type RefundOrderRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=255"`
}

// LookupOrderRequest lets a guest find their order
type LookupOrderRequest struct {
	OrderNumber string `json:"order_number" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
}

// OrderItemResponse is one order line
type OrderItemResponse struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	ProductSlug string    `json:"product_slug"`
	ImageKey    string    `json:"image_key,omitempty"`
	UnitPrice   string    `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	LineTotal   string    `json:"line_total"`
}

// PaymentResponse summarises the latest payment attempt of an order
type PaymentResponse struct {
	ID                uuid.UUID  `json:"id"`
	Method            string     `json:"method"`
	Provider          string     `json:"provider"`
	Status            string     `json:"status"`
	Amount            string     `json:"amount"`
	Currency          string     `json:"currency"`
	ProviderSessionID string     `json:"provider_session_id,omitempty"`
	ProviderPaymentID string     `json:"provider_payment_id,omitempty"`
	FailureReason     string     `json:"failure_reason,omitempty"`
	SucceededAt       *time.Time `json:"succeeded_at,omitempty"`
	RefundedAt        *time.Time `json:"refunded_at,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
}

// OrderResponse is the full view of an order
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Email           string              `json:"email"`
	ShippingAddress valueobject.Address `json:"shipping_address"`
	Items           []OrderItemResponse `json:"items"`
	Currency        string              `json:"currency"`
	ExchangeRate    string              `json:"exchange_rate"`
	Subtotal        string              `json:"subtotal"`
	ShippingFee     string              `json:"shipping_fee"`
	Total           string              `json:"total"`
	PaymentMethod   string              `json:"payment_method"`
	PaymentStatus   string              `json:"payment_status"`
	Status          string              `json:"status"`
	Notes           string              `json:"notes,omitempty"`
	TrackingNumber  string              `json:"tracking_number,omitempty"`
	CancelReason    string              `json:"cancel_reason,omitempty"`
	RefundRequired  bool                `json:"refund_required,omitempty"`
	Payment         *PaymentResponse    `json:"payment,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	PaidAt          *time.Time          `json:"paid_at,omitempty"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	RefundedAt      *time.Time          `json:"refunded_at,omitempty"`
}

// OrderListItem is an order row of the admin list
type OrderListItem struct {
	ID            uuid.UUID `json:"id"`
	OrderNumber   string    `json:"order_number"`
	Email         string    `json:"email"`
	Currency      string    `json:"currency"`
	Total         string    `json:"total"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToOrderResponse converts an order and its optional payment to a response
func ToOrderResponse(o *order.Order, p *payment.Payment) *OrderResponse {
	exp := o.Currency.MinorUnitExponent()
	resp := &OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Email:           o.Email,
		ShippingAddress: o.ShippingAddress,
		Items:           make([]OrderItemResponse, 0, len(o.Items)),
		Currency:        o.Currency.String(),
		ExchangeRate:    o.ExchangeRate.String(),
		Subtotal:        o.Subtotal.StringFixed(exp),
		ShippingFee:     o.ShippingFee.StringFixed(exp),
		Total:           o.Total.StringFixed(exp),
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		Status:          string(o.Status),
		Notes:           o.Notes,
		TrackingNumber:  o.TrackingNumber,
		CancelReason:    o.CancelReason,
		RefundRequired:  o.RefundRequired,
		CreatedAt:       o.CreatedAt,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		RefundedAt:      o.RefundedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductSlug: it.ProductSlug,
			ImageKey:    it.ImageKey,
			UnitPrice:   it.UnitPrice.StringFixed(exp),
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal.StringFixed(exp),
		})
	}
	if p != nil {
		resp.Payment = &PaymentResponse{
			ID:                p.ID,
			Method:            string(p.Method),
			Provider:          p.Provider,
			Status:            string(p.Status),
			Amount:            p.Amount.StringFixed(p.Currency.MinorUnitExponent()),
			Currency:          p.Currency.String(),
			ProviderSessionID: p.ProviderSessionID,
			ProviderPaymentID: p.ProviderPaymentID,
			FailureReason:     p.FailureReason,
			SucceededAt:       p.SucceededAt,
			RefundedAt:        p.RefundedAt,
			ExpiresAt:         p.ExpiresAt,
		}
	}
	return resp
}

// ToOrderListItem converts an order to a list row
func ToOrderListItem(o *order.Order) OrderListItem {
	return OrderListItem{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Email:         o.Email,
		Currency:      o.Currency.String(),
		Total:         o.Total.StringFixed(o.Currency.MinorUnitExponent()),
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
	}
}
