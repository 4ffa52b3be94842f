package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// ShopMetrics counts order lifecycle events. It subscribes to the event
// bus, so every transition that publishes an event is counted once.
type ShopMetrics struct {
	orderEvents *Counter
	orderValue  *Histogram
}

// NewShopMetrics creates the storefront instruments on meter.
func NewShopMetrics(meter metric.Meter) (*ShopMetrics, error) {
	orderEvents, err := NewCounter(meter,
		"storefront_order_events_total", "Order lifecycle events by type and payment method", "{event}")
	if err != nil {
		return nil, err
	}
	orderValue, err := NewHistogram(meter, HistogramOpts{
		Name:        "storefront_order_value",
		Description: "Order totals at placement in the order currency",
		Unit:        "{currency_unit}",
		Boundaries:  []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})
	if err != nil {
		return nil, err
	}
	return &ShopMetrics{orderEvents: orderEvents, orderValue: orderValue}, nil
}

// EventTypes subscribes to every order event.
func (m *ShopMetrics) EventTypes() []string {
	return order.AllEventTypes
}

// Handle records one order event.
func (m *ShopMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	oe, ok := event.(order.Event)
	if !ok {
		return nil
	}
	snap := oe.OrderSnapshot()

	m.orderEvents.Inc(ctx,
		AttrEventType.String(event.EventType()),
		AttrPaymentMethod.String(string(snap.PaymentMethod)),
	)

	// placement is counted once per order: OrderPlaced for COD, OrderPaid for card
	placed := event.EventType() == order.EventTypeOrderPlaced ||
		(event.EventType() == order.EventTypeOrderPaid && snap.PaymentMethod == order.PaymentMethodCard)
	if placed {
		m.orderValue.Record(ctx, snap.Total.InexactFloat64(),
			AttrCurrency.String(snap.Currency.String()),
			AttrPaymentMethod.String(string(snap.PaymentMethod)),
		)
	}
	return nil
}

var _ shared.EventHandler = (*ShopMetrics)(nil)
