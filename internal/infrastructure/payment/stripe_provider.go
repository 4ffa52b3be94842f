// Package payment contains the card provider adapters behind domain payment.Provider.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// ProviderName is stored on payments taken through Stripe
const ProviderName = "stripe"

// StripeProvider implements payment.Provider on Stripe Checkout
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

// StripeOption customizes a StripeProvider
type StripeOption func(*stripeOptions)

type stripeOptions struct {
	backends *stripe.Backends
}

// WithBackends points the provider at custom API backends (used by tests and stripe-mock)
func WithBackends(backends *stripe.Backends) StripeOption {
	return func(o *stripeOptions) {
		o.backends = backends
	}
}

// NewStripeProvider creates a provider from configuration
func NewStripeProvider(cfg config.StripeConfig, logger *zap.Logger, opts ...StripeOption) (*StripeProvider, error) {
	if !cfg.Enabled() {
		return nil, payment.ErrProviderNotConfigured
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret is required", payment.ErrProviderNotConfigured)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	options := &stripeOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if cfg.IsTestMode() {
		logger.Info("Stripe provider running in test mode")
	}

	return &StripeProvider{
		api:           client.New(cfg.SecretKey, options.backends),
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}, nil
}

// Name returns the provider identifier
func (p *StripeProvider) Name() string {
	return ProviderName
}

// CreateCheckoutSession opens a hosted payment page for an order
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req *payment.CheckoutSessionRequest) (*payment.CheckoutSession, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("stripe: checkout session requires at least one line")
	}

	currency := req.Amount.Currency()
	var lineSum int64
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.UnitPrice.Currency() != currency {
			return nil, fmt.Errorf("stripe: line %q is priced in %s, session in %s", line.Name, line.UnitPrice.Currency(), currency)
		}
		unit := line.UnitPrice.MinorUnits()
		lineSum += unit * line.Quantity
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency.Lower()),
				UnitAmount: stripe.Int64(unit),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}
	if lineSum != req.Amount.MinorUnits() {
		return nil, fmt.Errorf("stripe: line items total %d does not match amount %d", lineSum, req.Amount.MinorUnits())
	}

	orderID := req.OrderID.String()
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderNumber),
		LineItems:         items,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				payment.MetadataOrderID:     orderID,
				payment.MetadataOrderNumber: req.OrderNumber,
			},
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(req.ExpiresAt.Unix())
	}
	params.AddMetadata(payment.MetadataOrderID, orderID)
	params.AddMetadata(payment.MetadataOrderNumber, req.OrderNumber)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	p.logger.Debug("Creating Stripe checkout session",
		zap.String("order_number", req.OrderNumber),
		zap.Int64("amount", lineSum),
		zap.String("currency", string(currency)))

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		p.logger.Error("Failed to create Stripe checkout session",
			zap.String("order_number", req.OrderNumber),
			zap.Error(err))
		return nil, wrapStripeError("create checkout session", err)
	}

	p.logger.Info("Stripe checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("order_number", req.OrderNumber))

	return toCheckoutSession(sess), nil
}

// GetCheckoutSession fetches the current state of a session
func (p *StripeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*payment.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	sess, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, wrapStripeError("get checkout session", err)
	}
	return toCheckoutSession(sess), nil
}

// ExpireCheckoutSession closes an open session
func (p *StripeProvider) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	if _, err := p.api.CheckoutSessions.Expire(sessionID, params); err != nil {
		return wrapStripeError("expire checkout session", err)
	}
	p.logger.Info("Stripe checkout session expired", zap.String("session_id", sessionID))
	return nil
}

// Refund returns funds for a captured payment intent
func (p *StripeProvider) Refund(ctx context.Context, paymentIntentID string, amount valueobject.Money, idempotencyKey string) (*payment.RefundResult, error) {
	if paymentIntentID == "" {
		return nil, fmt.Errorf("stripe: refund requires a payment intent")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(amount.MinorUnits()),
	}
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	params.Context = ctx

	r, err := p.api.Refunds.New(params)
	if err != nil {
		p.logger.Error("Failed to create Stripe refund",
			zap.String("payment_intent", paymentIntentID),
			zap.Error(err))
		return nil, wrapStripeError("create refund", err)
	}

	p.logger.Info("Stripe refund created",
		zap.String("refund_id", r.ID),
		zap.String("payment_intent", paymentIntentID),
		zap.Int64("amount", r.Amount))

	return &payment.RefundResult{
		ID:     r.ID,
		Status: string(r.Status),
		Amount: r.Amount,
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidWebhookPayload, err)
	}

	out := &payment.WebhookEvent{
		ID:       event.ID,
		Type:     string(event.Type),
		Livemode: event.Livemode,
	}

	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case payment.EventCheckoutCompleted,
		payment.EventCheckoutAsyncSucceeded,
		payment.EventCheckoutAsyncFailed,
		payment.EventCheckoutExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", payment.ErrInvalidWebhookPayload, err)
		}
		cs := toCheckoutSession(&sess)
		out.SessionID = cs.ID
		out.PaymentIntentID = cs.PaymentIntentID
		out.OrderID = cs.OrderID
		out.AmountTotal = cs.AmountTotal
		out.Currency = cs.Currency
		out.PaymentStatus = cs.PaymentStatus

	case payment.EventChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("%w: charge: %v", payment.ErrInvalidWebhookPayload, err)
		}
		if charge.PaymentIntent != nil {
			out.PaymentIntentID = charge.PaymentIntent.ID
		}
		out.OrderID = orderIDFromMetadata(charge.Metadata)
		out.AmountTotal = charge.AmountRefunded
		out.Currency = strings.ToUpper(string(charge.Currency))
	}

	return out, nil
}

func toCheckoutSession(sess *stripe.CheckoutSession) *payment.CheckoutSession {
	cs := &payment.CheckoutSession{
		ID:            sess.ID,
		URL:           sess.URL,
		Status:        payment.SessionStatus(sess.Status),
		PaymentStatus: string(sess.PaymentStatus),
		AmountTotal:   sess.AmountTotal,
		Currency:      strings.ToUpper(string(sess.Currency)),
		OrderID:       orderIDFromMetadata(sess.Metadata),
	}
	if sess.PaymentIntent != nil {
		cs.PaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.ExpiresAt > 0 {
		cs.ExpiresAt = time.Unix(sess.ExpiresAt, 0).UTC()
	}
	return cs
}

func orderIDFromMetadata(metadata map[string]string) uuid.UUID {
	id, err := uuid.Parse(metadata[payment.MetadataOrderID])
	if err != nil {
		return uuid.Nil
	}
	return id
}

func wrapStripeError(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		if serr.HTTPStatusCode == 404 || serr.Code == stripe.ErrorCodeResourceMissing {
			return fmt.Errorf("stripe: %s: %w", op, payment.ErrSessionNotFound)
		}
		return fmt.Errorf("stripe: %s: %w: %s", op, payment.ErrProviderRequestFailed, serr.Msg)
	}
	return fmt.Errorf("stripe: %s: %w: %v", op, payment.ErrProviderRequestFailed, err)
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrTooOld)
}
