package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	apppayment "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InvoiceRenderer renders an order invoice document
type InvoiceRenderer interface {
	RenderInvoice(ctx context.Context, o *order.Order) ([]byte, error)
}

// Service handles admin order management and guest order lookup
type Service struct {
	orders     order.OrderRepository
	payments   payment.PaymentRepository
	settlement *apppayment.Settlement
	provider   payment.Provider
	invoices   InvoiceRenderer
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// ServiceConfig contains configuration for Service
type ServiceConfig struct {
	Orders     order.OrderRepository
	Payments   payment.PaymentRepository
	Settlement *apppayment.Settlement
	Provider   payment.Provider // nil disables refunds
	Invoices   InvoiceRenderer  // nil disables invoices
	Publisher  shared.EventPublisher
	Logger     *zap.Logger
}

// NewService creates a new order Service
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		orders:     cfg.Orders,
		payments:   cfg.Payments,
		settlement: cfg.Settlement,
		provider:   cfg.Provider,
		invoices:   cfg.Invoices,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger,
	}
}

// List returns one page of orders
func (s *Service) List(ctx context.Context, req ListOrdersRequest) (*shared.Paginated[OrderListItem], error) {
	filter := order.OrderFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			Search:   strings.TrimSpace(req.Search),
		}.Normalize(),
		Status:        order.OrderStatus(req.Status),
		PaymentStatus: order.PaymentStatus(req.PaymentStatus),
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		From:          req.From,
	}
	if req.To != nil {
		// The end date is inclusive.
		end := req.To.AddDate(0, 0, 1)
		filter.To = &end
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]OrderListItem, 0, len(orders))
	for i := range orders {
		items = append(items, ToOrderListItem(&orders[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns an order with its latest payment
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withPayment(ctx, o)
}

// Lookup returns a guest order when both the number and the email match.
// A wrong email is indistinguishable from an unknown order.
func (s *Service) Lookup(ctx context.Context, req LookupOrderRequest) (*OrderResponse, error) {
	number := strings.ToUpper(strings.TrimSpace(req.OrderNumber))
	if !order.IsValidOrderNumber(number) {
		return nil, shared.ErrNotFound
	}
	o, err := s.orders.FindByOrderNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if !o.MatchesEmail(req.Email) {
		return nil, shared.ErrNotFound
	}
	return s.withPayment(ctx, o)
}

// Ship marks a processing order as shipped
func (s *Service) Ship(ctx context.Context, id uuid.UUID, req ShipOrderRequest) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.Ship(req.TrackingNumber); err != nil {
		return nil, err
	}
	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("Order shipped",
		zap.String("order_number", o.OrderNumber),
		zap.String("tracking_number", o.TrackingNumber))
	s.publish(ctx, o)
	return s.withPayment(ctx, o)
}

// Deliver marks a shipped order delivered; cash on delivery orders are settled at the same time
func (s *Service) Deliver(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	res, err := s.settlement.SettleOnDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withPayment(ctx, res.Order)
}

// Cancel cancels an unshipped order
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	res, err := s.settlement.CancelOrder(ctx, id, req.Reason)
	if err != nil {
		return nil, err
	}
	return s.withPayment(ctx, res.Order)
}

// Refund returns the captured amount of a paid card order through the provider.
// An order that has not shipped is cancelled and restocked as well.
func (s *Service) Refund(ctx context.Context, id uuid.UUID, req RefundOrderRequest) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.CanRefund() {
		return nil, shared.NewDomainError("REFUND_NOT_ALLOWED", "Only paid card orders can be refunded")
	}
	p, err := s.payments.FindByOrderID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if p.Status != payment.StatusSucceeded || p.ProviderPaymentID == "" {
		return nil, shared.NewDomainError("REFUND_NOT_ALLOWED", "The payment has not been captured")
	}
	if s.provider == nil {
		return nil, shared.NewDomainError(shared.ErrPaymentProvider.Code, "Card payments are not configured")
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "refunded"
	}
	refund, err := s.provider.Refund(ctx, p.ProviderPaymentID, p.AmountMoney(), "refund:"+p.ID.String())
	if err != nil {
		s.logger.Error("Provider refund failed",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
		return nil, shared.NewDomainError(shared.ErrPaymentProvider.Code, "The refund could not be issued, try again later")
	}
	s.logger.Info("Refund issued",
		zap.String("order_number", o.OrderNumber),
		zap.String("refund_id", refund.ID),
		zap.String("refund_status", refund.Status))

	res, err := s.settlement.RecordRefund(ctx, p.ID, true, reason)
	if err != nil {
		return nil, fmt.Errorf("record refund: %w", err)
	}
	return s.withPayment(ctx, res.Order)
}

// Invoice renders the invoice PDF of an order
func (s *Service) Invoice(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	if s.invoices == nil {
		return nil, "", shared.NewDomainError("INVOICES_DISABLED", "Invoice rendering is not configured")
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := s.invoices.RenderInvoice(ctx, o)
	if err != nil {
		return nil, "", err
	}
	return pdf, "invoice-" + o.OrderNumber + ".pdf", nil
}

// Recent returns the latest orders
func (s *Service) Recent(ctx context.Context, limit int) ([]OrderListItem, error) {
	orders, err := s.orders.FindRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]OrderListItem, 0, len(orders))
	for i := range orders {
		items = append(items, ToOrderListItem(&orders[i]))
	}
	return items, nil
}

func (s *Service) withPayment(ctx context.Context, o *order.Order) (*OrderResponse, error) {
	p, err := s.payments.FindByOrderID(ctx, o.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return ToOrderResponse(o, p), nil
}

func (s *Service) publish(ctx context.Context, o *order.Order) {
	events := o.GetDomainEvents()
	o.ClearDomainEvents()
	if len(events) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish order events",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
	}
}
