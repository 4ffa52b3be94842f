package checkout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	appcart "github.com/storefront/backend/internal/application/cart"
	apporder "github.com/storefront/backend/internal/application/order"
	apppayment "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	orderNumberAttempts = 5
	orderNumberToken    = "{ORDER_NUMBER}"
)

// Options holds the checkout rules
type Options struct {
	CODEnabled   bool
	CODCountries []string // empty allows every country
	SessionTTL   time.Duration
	// SuccessURL and CancelURL may contain {ORDER_NUMBER}
	SuccessURL string
	CancelURL  string
}

// Service turns a cart into an order and starts its payment
type Service struct {
	scope      apppayment.TransactionScope
	carts      cart.CartRepository
	orders     order.OrderRepository
	payments   payment.PaymentRepository
	pricing    *appcart.Service
	provider   payment.Provider
	settlement *apppayment.Settlement
	publisher  shared.EventPublisher
	opts       Options
	logger     *zap.Logger
	now        func() time.Time
	numbers    func(time.Time) (string, error)
}

// ServiceConfig contains configuration for Service
type ServiceConfig struct {
	Scope      apppayment.TransactionScope
	Carts      cart.CartRepository
	Orders     order.OrderRepository
	Payments   payment.PaymentRepository
	Pricing    *appcart.Service
	Provider   payment.Provider // nil disables card payments
	Settlement *apppayment.Settlement
	Publisher  shared.EventPublisher
	Options    Options
	Logger     *zap.Logger
	// OrderNumbers generates candidate order numbers, defaults to order.GenerateOrderNumber
	OrderNumbers func(time.Time) (string, error)
}

// NewService creates a new checkout Service
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.OrderNumbers == nil {
		cfg.OrderNumbers = order.GenerateOrderNumber
	}
	return &Service{
		scope:      cfg.Scope,
		carts:      cfg.Carts,
		orders:     cfg.Orders,
		payments:   cfg.Payments,
		pricing:    cfg.Pricing,
		provider:   cfg.Provider,
		settlement: cfg.Settlement,
		publisher:  cfg.Publisher,
		opts:       cfg.Options,
		logger:     cfg.Logger,
		now:        time.Now,
		numbers:    cfg.OrderNumbers,
	}
}

// PlaceOrder converts the session's cart into an order priced in the display currency.
// Stock is reserved together with the order and payment rows. Card orders then get a hosted
// checkout session; cash on delivery orders are accepted right away and the cart is cleared.
func (s *Service) PlaceOrder(ctx context.Context, sessionToken string, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "checkout", "place_order",
		attribute.String(telemetry.SpanAttrPaymentMethod, req.PaymentMethod),
		attribute.String(telemetry.SpanAttrCurrency, req.Currency))
	defer span.End()

	var (
		result *PlaceOrderResult
		err    error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("place_order"), func(c context.Context) {
		result, err = s.placeOrder(c, sessionToken, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String(telemetry.SpanAttrOrderID, result.Order.ID.String()),
		attribute.String(telemetry.SpanAttrOrderNumber, result.Order.OrderNumber))
	return result, nil
}

func (s *Service) placeOrder(ctx context.Context, sessionToken string, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	method := order.PaymentMethod(req.PaymentMethod)
	address, err := valueobject.NewAddress(req.ShippingAddress)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}
	if err := s.checkMethod(method, address); err != nil {
		return nil, err
	}

	c, err := s.loadCart(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	quote, err := s.pricing.Quote(ctx, c, req.Currency)
	if err != nil {
		return nil, err
	}
	items, err := orderItems(quote)
	if err != nil {
		return nil, err
	}

	var (
		o *order.Order
		p *payment.Payment
	)
	for attempt := 1; ; attempt++ {
		o, p, err = s.newOrder(ctx, c, quote, items, address, method, req)
		if err != nil {
			return nil, err
		}
		err = s.reserve(ctx, c, o, p)
		if !errors.Is(err, errOrderNumberTaken) {
			break
		}
		if attempt == orderNumberAttempts {
			return nil, errors.New("could not allocate a unique order number")
		}
		s.logger.Warn("Order number taken while placing order, retrying",
			zap.String("order_number", o.OrderNumber),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_number", o.OrderNumber),
		zap.String("payment_method", string(method)),
		zap.String("currency", o.Currency.String()),
		zap.String("total", o.Total.String()))

	if method == order.PaymentMethodCashOnDelivery {
		s.publish(ctx, o)
		return &PlaceOrderResult{Order: apporder.ToOrderResponse(o, p)}, nil
	}
	return s.startCardPayment(ctx, o, p)
}

// errOrderNumberTaken reports a concurrent checkout inserting the same order number
// between the existence check and the insert
var errOrderNumberTaken = errors.New("order number taken")

func (s *Service) newOrder(ctx context.Context, c *cart.Cart, quote *appcart.Quote, items []order.OrderItem,
	address valueobject.Address, method order.PaymentMethod, req PlaceOrderRequest) (*order.Order, *payment.Payment, error) {
	number, err := s.nextOrderNumber(ctx)
	if err != nil {
		return nil, nil, err
	}
	o, err := order.NewOrder(order.PlaceOrderParams{
		OrderNumber:     number,
		Email:           req.Email,
		ShippingAddress: address,
		Items:           slices.Clone(items),
		Currency:        quote.Currency,
		ExchangeRate:    quote.Rate,
		ShippingFee:     quote.ShippingFee,
		PaymentMethod:   method,
		CartID:          &c.ID,
		Notes:           req.Notes,
	})
	if err != nil {
		return nil, nil, err
	}

	var p *payment.Payment
	if method == order.PaymentMethodCashOnDelivery {
		if err := o.ConfirmCashOnDelivery(); err != nil {
			return nil, nil, err
		}
		p, err = payment.NewCashOnDeliveryPayment(o.ID, o.TotalMoney())
	} else {
		p, err = payment.NewCardPayment(o.ID, o.TotalMoney(), s.sessionExpiry())
	}
	if err != nil {
		return nil, nil, err
	}
	return o, p, nil
}

// reserve takes the stock and writes the order and payment in one transaction
func (s *Service) reserve(ctx context.Context, c *cart.Cart, o *order.Order, p *payment.Payment) error {
	return s.scope.Execute(ctx, func(repos apppayment.TransactionalRepositories) error {
		for _, it := range o.Items {
			if err := repos.Products().DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, shared.ErrInsufficientStock) {
					return shared.NewDomainError(shared.ErrInsufficientStock.Code,
						fmt.Sprintf("%s no longer has %d in stock", it.ProductName, it.Quantity))
				}
				return err
			}
		}
		if err := repos.Orders().Create(ctx, o); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return errOrderNumberTaken
			}
			return err
		}
		if err := repos.Payments().Create(ctx, p); err != nil {
			return err
		}
		if o.PaymentMethod == order.PaymentMethodCashOnDelivery {
			c.Clear()
			return repos.Carts().Save(ctx, c)
		}
		return nil
	})
}

func (s *Service) startCardPayment(ctx context.Context, o *order.Order, p *payment.Payment) (*PlaceOrderResult, error) {
	lines := make([]payment.SessionLine, 0, len(o.Items)+1)
	for _, it := range o.Items {
		unit, err := valueobject.NewMoney(it.UnitPrice, o.Currency)
		if err != nil {
			return nil, err
		}
		lines = append(lines, payment.SessionLine{Name: it.ProductName, UnitPrice: unit, Quantity: int64(it.Quantity)})
	}
	if o.ShippingFee.IsPositive() {
		lines = append(lines, payment.SessionLine{Name: "Shipping", UnitPrice: o.ShippingFeeMoney(), Quantity: 1})
	}

	session, err := s.provider.CreateCheckoutSession(ctx, &payment.CheckoutSessionRequest{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		Email:          o.Email,
		Lines:          lines,
		Amount:         o.TotalMoney(),
		SuccessURL:     fillOrderNumber(s.opts.SuccessURL, o.OrderNumber),
		CancelURL:      fillOrderNumber(s.opts.CancelURL, o.OrderNumber),
		ExpiresAt:      *p.ExpiresAt,
		IdempotencyKey: "checkout:" + o.ID.String(),
	})
	if err != nil {
		s.logger.Error("Failed to create checkout session",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
		s.abort(ctx, o, "payment session could not be created")
		return nil, shared.NewDomainError(shared.ErrPaymentProvider.Code, "Card payment is temporarily unavailable, please try again")
	}

	if err := p.AttachSession(session.ID); err != nil {
		return nil, err
	}
	if err := s.payments.SaveWithLock(ctx, p); err != nil {
		s.logger.Error("Failed to store checkout session",
			zap.String("order_number", o.OrderNumber),
			zap.String("session_id", session.ID),
			zap.Error(err))
		if expErr := s.provider.ExpireCheckoutSession(ctx, session.ID); expErr != nil {
			s.logger.Error("Failed to expire orphaned checkout session", zap.String("session_id", session.ID), zap.Error(expErr))
		}
		s.abort(ctx, o, "payment session could not be stored")
		return nil, err
	}

	return &PlaceOrderResult{
		Order:       apporder.ToOrderResponse(o, p),
		RedirectURL: session.URL,
	}, nil
}

// abort cancels an order whose payment could not start, returning its stock
func (s *Service) abort(ctx context.Context, o *order.Order, reason string) {
	if _, err := s.settlement.CancelOrder(ctx, o.ID, reason); err != nil {
		s.logger.Error("Failed to cancel order after payment setup failure",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
	}
}

func (s *Service) checkMethod(method order.PaymentMethod, address valueobject.Address) error {
	switch method {
	case order.PaymentMethodCard:
		if s.provider == nil {
			return shared.NewDomainError("PAYMENT_METHOD_UNAVAILABLE", "Card payments are not available")
		}
	case order.PaymentMethodCashOnDelivery:
		if !s.opts.CODEnabled {
			return shared.NewDomainError("PAYMENT_METHOD_UNAVAILABLE", "Cash on delivery is not available")
		}
		if len(s.opts.CODCountries) > 0 && !slices.ContainsFunc(s.opts.CODCountries, func(c string) bool {
			return strings.EqualFold(c, address.Country)
		}) {
			return shared.NewDomainError("PAYMENT_METHOD_UNAVAILABLE",
				fmt.Sprintf("Cash on delivery is not available in %s", address.Country))
		}
	default:
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unsupported payment method %q", method))
	}
	return nil
}

func (s *Service) loadCart(ctx context.Context, token string) (*cart.Cart, error) {
	if !cart.IsValidSessionToken(token) {
		return nil, shared.ErrEmptyCart
	}
	c, err := s.carts.FindBySessionToken(ctx, token)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, shared.ErrEmptyCart
	}
	return c, nil
}

func (s *Service) nextOrderNumber(ctx context.Context) (string, error) {
	for range orderNumberAttempts {
		number, err := s.numbers(s.now())
		if err != nil {
			return "", err
		}
		exists, err := s.orders.ExistsByOrderNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", errors.New("could not allocate a unique order number")
}

func (s *Service) sessionExpiry() time.Time {
	ttl := s.opts.SessionTTL
	if ttl < payment.MinimumCheckoutSessionLifetime {
		ttl = payment.MinimumCheckoutSessionLifetime
	}
	if ttl > payment.MaximumCheckoutSessionLifetime {
		ttl = payment.MaximumCheckoutSessionLifetime
	}
	return s.now().Add(ttl)
}

func (s *Service) publish(ctx context.Context, o *order.Order) {
	events := o.GetDomainEvents()
	o.ClearDomainEvents()
	if len(events) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish order events", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
}

// orderItems snapshots the quoted lines; any line that cannot be bought fails checkout
func orderItems(q *appcart.Quote) ([]order.OrderItem, error) {
	items := make([]order.OrderItem, 0, len(q.Lines))
	for _, l := range q.Lines {
		if !l.Available {
			return nil, unavailableError(l)
		}
		item, err := order.NewOrderItem(l.ProductID, l.Product.Name, l.Product.Slug, l.Product.PrimaryImage(), l.UnitPrice, l.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, shared.ErrEmptyCart
	}
	return items, nil
}

func unavailableError(l appcart.QuoteLine) error {
	name := "A product in your cart"
	if l.Product != nil {
		name = l.Product.Name
	}
	if l.Unavailable == appcart.UnavailableOutOfStock {
		return shared.NewDomainError(shared.ErrInsufficientStock.Code,
			fmt.Sprintf("%s has only %d left in stock", name, l.Product.Stock))
	}
	return shared.NewDomainError(cart.ErrNotPurchasable.Code, fmt.Sprintf("%s is no longer available", name))
}

func fillOrderNumber(tmpl, number string) string {
	return strings.ReplaceAll(tmpl, orderNumberToken, number)
}
