package notification

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// MoneyFormatter renders an amount for customers
type MoneyFormatter func(m valueobject.Money) string

// OrderEmailConfig contains configuration for OrderEmailHandler
type OrderEmailConfig struct {
	Orders     order.OrderRepository
	Mailer     Mailer
	Format     MoneyFormatter
	StoreName  string
	SupportURL string
	// PublicURL is the storefront origin used to build order status links
	PublicURL string
	Logger    *zap.Logger
}

// OrderEmailHandler sends confirmation and shipping emails.
// Delivery failures are logged and never returned, so they cannot fail the
// operation that raised the event.
type OrderEmailHandler struct {
	orders     order.OrderRepository
	mailer     Mailer
	format     MoneyFormatter
	storeName  string
	supportURL string
	publicURL  string
	logger     *zap.Logger
}

// NewOrderEmailHandler creates a new OrderEmailHandler
func NewOrderEmailHandler(cfg OrderEmailConfig) *OrderEmailHandler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Format == nil {
		cfg.Format = func(m valueobject.Money) string { return m.String() }
	}
	if cfg.StoreName == "" {
		cfg.StoreName = "Storefront"
	}
	return &OrderEmailHandler{
		orders:     cfg.Orders,
		mailer:     cfg.Mailer,
		format:     cfg.Format,
		storeName:  cfg.StoreName,
		supportURL: cfg.SupportURL,
		publicURL:  strings.TrimRight(cfg.PublicURL, "/"),
		logger:     cfg.Logger,
	}
}

// EventTypes returns the order events that trigger an email
func (h *OrderEmailHandler) EventTypes() []string {
	return []string{
		order.EventTypeOrderPlaced,
		order.EventTypeOrderPaid,
		order.EventTypeOrderShipped,
	}
}

// Handle renders and sends the email for one order event
func (h *OrderEmailHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	oe, ok := event.(order.Event)
	if !ok {
		return nil
	}
	snap := oe.OrderSnapshot()
	log := h.logger.With(
		zap.String("event_type", event.EventType()),
		zap.String("order_number", snap.OrderNumber),
	)

	o, err := h.orders.FindByID(ctx, snap.OrderID)
	if err != nil {
		log.Error("Failed to load order for email", zap.Error(err))
		return nil
	}

	msg, send, err := h.compose(event.EventType(), o)
	if err != nil {
		log.Error("Failed to render order email", zap.Error(err))
		return nil
	}
	if !send {
		log.Info("Skipping order email", zap.String("status", string(o.Status)))
		return nil
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		log.Error("Failed to send order email", zap.Error(err))
		return nil
	}
	log.Info("Order email sent", zap.String("tag", msg.Tag))
	return nil
}

func (h *OrderEmailHandler) compose(eventType string, o *order.Order) (Message, bool, error) {
	view := h.view(o)

	switch eventType {
	case order.EventTypeOrderPlaced:
		if o.PaymentMethod != order.PaymentMethodCashOnDelivery {
			return Message{}, false, nil
		}
		return h.render(confirmationTemplate, view, o, "order_confirmation",
			fmt.Sprintf("Order %s confirmed", o.OrderNumber))

	case order.EventTypeOrderPaid:
		// A payment can settle after the order was cancelled; the customer is refunded, not confirmed.
		if o.PaymentMethod != order.PaymentMethodCard || o.Status == order.OrderStatusCancelled {
			return Message{}, false, nil
		}
		return h.render(confirmationTemplate, view, o, "order_confirmation",
			fmt.Sprintf("Order %s confirmed", o.OrderNumber))

	case order.EventTypeOrderShipped:
		return h.render(shippedTemplate, view, o, "order_shipped",
			fmt.Sprintf("Order %s has shipped", o.OrderNumber))
	}
	return Message{}, false, nil
}

func (h *OrderEmailHandler) render(t emailTemplate, view emailView, o *order.Order, tag, subject string) (Message, bool, error) {
	html, text, err := t.render(view)
	if err != nil {
		return Message{}, false, err
	}
	return Message{
		To:      o.Email,
		Subject: h.storeName + ": " + subject,
		HTML:    html,
		Text:    text,
		Tag:     tag,
	}, true, nil
}

func (h *OrderEmailHandler) view(o *order.Order) emailView {
	view := emailView{
		StoreName:      h.storeName,
		SupportURL:     h.supportURL,
		OrderNumber:    o.OrderNumber,
		CustomerName:   o.ShippingAddress.Name,
		Subtotal:       h.format(o.SubtotalMoney()),
		Shipping:       h.format(o.ShippingFeeMoney()),
		Total:          h.format(o.TotalMoney()),
		PaymentMethod:  paymentLabel(o.PaymentMethod),
		TrackingNumber: o.TrackingNumber,
		Address:        addressLines(o.ShippingAddress),
	}
	if h.publicURL != "" {
		q := url.Values{"number": {o.OrderNumber}, "email": {o.Email}}
		view.LookupURL = h.publicURL + "/orders/lookup?" + q.Encode()
	}
	for _, it := range o.Items {
		view.Items = append(view.Items, emailItem{
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: h.money(it.UnitPrice, o.Currency),
			LineTotal: h.money(it.LineTotal, o.Currency),
		})
	}
	return view
}

func (h *OrderEmailHandler) money(amount decimal.Decimal, c valueobject.Currency) string {
	m, err := valueobject.NewMoney(amount, c)
	if err != nil {
		return amount.StringFixed(c.MinorUnitExponent()) + " " + c.String()
	}
	return h.format(m)
}

func paymentLabel(m order.PaymentMethod) string {
	if m == order.PaymentMethodCashOnDelivery {
		return "Cash on delivery"
	}
	return "Card"
}

func addressLines(a valueobject.Address) []string {
	lines := []string{a.Name, a.Line1}
	if a.Line2 != "" {
		lines = append(lines, a.Line2)
	}
	city := strings.TrimSpace(strings.Join([]string{a.PostalCode, a.City}, " "))
	if a.State != "" {
		city += ", " + a.State
	}
	return append(lines, city, a.Country)
}

var _ shared.EventHandler = (*OrderEmailHandler)(nil)
