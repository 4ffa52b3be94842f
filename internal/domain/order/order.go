package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderItem is a snapshot of a purchased product, priced in the order currency
type OrderItem struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	ProductSlug string
	ImageKey    string
	UnitPrice   decimal.Decimal
	Quantity    int
	LineTotal   decimal.Decimal
}

// NewOrderItem creates a line snapshot; the line total is unit price times quantity
func NewOrderItem(productID uuid.UUID, name, slug, imageKey string, unitPrice valueobject.Money, quantity int) (OrderItem, error) {
	if productID == uuid.Nil {
		return OrderItem{}, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if name == "" {
		return OrderItem{}, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return OrderItem{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !unitPrice.IsPositive() {
		return OrderItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
	}
	return OrderItem{
		ID:          uuid.New(),
		ProductID:   productID,
		ProductName: name,
		ProductSlug: slug,
		ImageKey:    imageKey,
		UnitPrice:   unitPrice.Amount(),
		Quantity:    quantity,
		LineTotal:   unitPrice.MultiplyByInt(int64(quantity)).Amount(),
	}, nil
}

// Order is a placed storefront order
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string
	Email           string
	ShippingAddress valueobject.Address
	Items           []OrderItem
	Currency        valueobject.Currency
	ExchangeRate    decimal.Decimal // units of Currency per one base unit at placement
	Subtotal        decimal.Decimal
	ShippingFee     decimal.Decimal
	Total           decimal.Decimal
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	Status          OrderStatus
	CartID          *uuid.UUID
	Notes           string
	TrackingNumber  string
	CancelReason    string
	RefundRequired  bool
	PaidAt          *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	RefundedAt      *time.Time
}

// PlaceOrderParams carries everything needed to create an order
type PlaceOrderParams struct {
	OrderNumber     string
	Email           string
	ShippingAddress valueobject.Address
	Items           []OrderItem
	Currency        valueobject.Currency
	ExchangeRate    decimal.Decimal
	ShippingFee     valueobject.Money
	PaymentMethod   PaymentMethod
	CartID          *uuid.UUID
	Notes           string
}

// NewOrder creates a PENDING, UNPAID order and computes its totals
func NewOrder(p PlaceOrderParams) (*Order, error) {
	if p.OrderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	email, err := valueobject.NormalizeEmail(p.Email)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_EMAIL", err.Error())
	}
	if err := p.ShippingAddress.Validate(); err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}
	if !p.PaymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unsupported payment method %q", p.PaymentMethod))
	}
	if !p.Currency.IsSupported() {
		return nil, shared.ErrUnsupportedCurrency
	}
	if len(p.Items) == 0 {
		return nil, shared.ErrEmptyCart
	}
	if !p.ExchangeRate.IsPositive() {
		return nil, shared.NewDomainError("INVALID_RATE", "Exchange rate must be positive")
	}
	if p.ShippingFee.Currency() != p.Currency || p.ShippingFee.IsNegative() {
		return nil, shared.NewDomainError("INVALID_SHIPPING_FEE", "Shipping fee must be non-negative and in the order currency")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       p.OrderNumber,
		Email:             email,
		ShippingAddress:   p.ShippingAddress,
		Items:             p.Items,
		Currency:          p.Currency,
		ExchangeRate:      p.ExchangeRate,
		ShippingFee:       p.ShippingFee.Amount(),
		PaymentMethod:     p.PaymentMethod,
		PaymentStatus:     PaymentStatusUnpaid,
		Status:            OrderStatusPending,
		CartID:            p.CartID,
		Notes:             strings.TrimSpace(p.Notes),
	}
	o.recalculateTotals()
	if !o.Total.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Order total must be positive")
	}
	return o, nil
}

// ConfirmCashOnDelivery moves a COD order straight to PROCESSING
func (o *Order) ConfirmCashOnDelivery() error {
	if o.PaymentMethod != PaymentMethodCashOnDelivery {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", "Only cash on delivery orders can be confirmed without payment")
	}
	if !o.Status.CanTransitionTo(OrderStatusProcessing) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm order in %s status", o.Status))
	}
	o.Status = OrderStatusProcessing
	o.touch()
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return nil
}

// MarkPaid records a successful payment.
// A PENDING order moves to PROCESSING. A cancelled order stays cancelled and is flagged for refund.
// Returns false when the order was already paid.
func (o *Order) MarkPaid(at time.Time) (bool, error) {
	if o.PaymentStatus == PaymentStatusPaid {
		return false, nil
	}
	if !o.PaymentStatus.CanTransitionTo(PaymentStatusPaid) {
		return false, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark order paid from %s", o.PaymentStatus))
	}

	o.PaymentStatus = PaymentStatusPaid
	o.PaidAt = &at
	switch o.Status {
	case OrderStatusPending:
		o.Status = OrderStatusProcessing
	case OrderStatusCancelled:
		o.RefundRequired = o.PaymentMethod == PaymentMethodCard
	}
	o.touch()
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return true, nil
}

// MarkPaymentFailed records a failed payment attempt
func (o *Order) MarkPaymentFailed() error {
	if o.PaymentStatus == PaymentStatusFailed {
		return nil
	}
	if !o.PaymentStatus.CanTransitionTo(PaymentStatusFailed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark payment failed from %s", o.PaymentStatus))
	}
	o.PaymentStatus = PaymentStatusFailed
	o.touch()
	return nil
}

// Ship marks the order as shipped with an optional tracking number
func (o *Order) Ship(trackingNumber string) error {
	if !o.Status.CanTransitionTo(OrderStatusShipped) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot ship order in %s status", o.Status))
	}
	if o.PaymentMethod == PaymentMethodCard && o.PaymentStatus != PaymentStatusPaid {
		return shared.NewDomainError("NOT_PAID", "Card orders must be paid before shipping")
	}

	now := time.Now()
	o.Status = OrderStatusShipped
	o.TrackingNumber = strings.TrimSpace(trackingNumber)
	o.ShippedAt = &now
	o.touch()
	o.AddDomainEvent(NewOrderShippedEvent(o))
	return nil
}

// Deliver marks the order as delivered
func (o *Order) Deliver() error {
	if !o.Status.CanTransitionTo(OrderStatusDelivered) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot deliver order in %s status", o.Status))
	}

	now := time.Now()
	o.Status = OrderStatusDelivered
	o.DeliveredAt = &now
	o.touch()
	o.AddDomainEvent(NewOrderDeliveredEvent(o))
	return nil
}

// Cancel cancels an order that has not shipped yet
func (o *Order) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancelReason = reason
	o.CancelledAt = &now
	o.touch()
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// MarkRefunded records a refund of a paid order. Returns false when already refunded.
func (o *Order) MarkRefunded() (bool, error) {
	if o.PaymentStatus == PaymentStatusRefunded {
		return false, nil
	}
	if !o.PaymentStatus.CanTransitionTo(PaymentStatusRefunded) {
		return false, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot refund order with payment status %s", o.PaymentStatus))
	}

	now := time.Now()
	o.PaymentStatus = PaymentStatusRefunded
	o.RefundedAt = &now
	o.RefundRequired = false
	o.touch()
	o.AddDomainEvent(NewOrderRefundedEvent(o))
	return true, nil
}

// CanRefund reports whether a refund may be issued
func (o *Order) CanRefund() bool {
	return o.PaymentMethod == PaymentMethodCard && o.PaymentStatus == PaymentStatusPaid
}

// HasShipped returns true once the parcel left the warehouse
func (o *Order) HasShipped() bool {
	return o.Status == OrderStatusShipped || o.Status == OrderStatusDelivered
}

// TotalMoney returns the order total as Money
func (o *Order) TotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(o.Total, o.Currency)
	return m
}

// SubtotalMoney returns the items subtotal as Money
func (o *Order) SubtotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(o.Subtotal, o.Currency)
	return m
}

// ShippingFeeMoney returns the shipping fee as Money
func (o *Order) ShippingFeeMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(o.ShippingFee, o.Currency)
	return m
}

// ItemCount returns the total number of units ordered
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// MatchesEmail compares the customer email case-insensitively
func (o *Order) MatchesEmail(email string) bool {
	return strings.EqualFold(strings.TrimSpace(email), o.Email)
}

func (o *Order) recalculateTotals() {
	subtotal := decimal.Zero
	for _, it := range o.Items {
		subtotal = subtotal.Add(it.LineTotal)
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Add(o.ShippingFee)
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now()
}
