package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderPlaced    = "OrderPlaced"
	EventTypeOrderPaid      = "OrderPaid"
	EventTypeOrderShipped   = "OrderShipped"
	EventTypeOrderDelivered = "OrderDelivered"
	EventTypeOrderCancelled = "OrderCancelled"
	EventTypeOrderRefunded  = "OrderRefunded"
)

// AllEventTypes lists every order event type
var AllEventTypes = []string{
	EventTypeOrderPlaced,
	EventTypeOrderPaid,
	EventTypeOrderShipped,
	EventTypeOrderDelivered,
	EventTypeOrderCancelled,
	EventTypeOrderRefunded,
}

// Snapshot is the order state carried by every order event
type Snapshot struct {
	OrderID        uuid.UUID            `json:"order_id"`
	OrderNumber    string               `json:"order_number"`
	Email          string               `json:"email"`
	Status         OrderStatus          `json:"status"`
	PaymentStatus  PaymentStatus        `json:"payment_status"`
	PaymentMethod  PaymentMethod        `json:"payment_method"`
	Total          decimal.Decimal      `json:"total"`
	Currency       valueobject.Currency `json:"currency"`
	TrackingNumber string               `json:"tracking_number,omitempty"`
	CancelReason   string               `json:"cancel_reason,omitempty"`
}

// Event is implemented by all order events
type Event interface {
	shared.DomainEvent
	OrderSnapshot() Snapshot
}

func snapshotOf(o *Order) Snapshot {
	return Snapshot{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		Email:          o.Email,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		PaymentMethod:  o.PaymentMethod,
		Total:          o.Total,
		Currency:       o.Currency,
		TrackingNumber: o.TrackingNumber,
		CancelReason:   o.CancelReason,
	}
}

type orderEvent struct {
	shared.BaseDomainEvent
	Snapshot
}

// OrderSnapshot returns the order state at the time of the event
func (e *orderEvent) OrderSnapshot() Snapshot {
	return e.Snapshot
}

func newOrderEvent(eventType string, o *Order) orderEvent {
	return orderEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeOrder, o.ID),
		Snapshot:        snapshotOf(o),
	}
}

// OrderPlacedEvent is raised when a cash on delivery order is accepted
type OrderPlacedEvent struct{ orderEvent }

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{newOrderEvent(EventTypeOrderPlaced, o)}
}

// OrderPaidEvent is raised when payment for an order succeeds
type OrderPaidEvent struct{ orderEvent }

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{newOrderEvent(EventTypeOrderPaid, o)}
}

// OrderShippedEvent is raised when an order ships
type OrderShippedEvent struct{ orderEvent }

// NewOrderShippedEvent creates a new OrderShippedEvent
func NewOrderShippedEvent(o *Order) *OrderShippedEvent {
	return &OrderShippedEvent{newOrderEvent(EventTypeOrderShipped, o)}
}

// OrderDeliveredEvent is raised when an order is delivered
type OrderDeliveredEvent struct{ orderEvent }

// NewOrderDeliveredEvent creates a new OrderDeliveredEvent
func NewOrderDeliveredEvent(o *Order) *OrderDeliveredEvent {
	return &OrderDeliveredEvent{newOrderEvent(EventTypeOrderDelivered, o)}
}

// OrderCancelledEvent is raised when an order is cancelled
type OrderCancelledEvent struct{ orderEvent }

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{newOrderEvent(EventTypeOrderCancelled, o)}
}

// OrderRefundedEvent is raised when a paid order is refunded
type OrderRefundedEvent struct{ orderEvent }

// NewOrderRefundedEvent creates a new OrderRefundedEvent
func NewOrderRefundedEvent(o *Order) *OrderRefundedEvent {
	return &OrderRefundedEvent{newOrderEvent(EventTypeOrderRefunded, o)}
}
