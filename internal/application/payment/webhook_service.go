package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultWebhookIdempotencyTTL is how long processed provider event IDs are remembered
const DefaultWebhookIdempotencyTTL = 72 * time.Hour

const webhookKeyPrefix = "stripe:"

// WebhookService reconciles payments from verified provider webhooks
type WebhookService struct {
	provider    payment.Provider
	payments    payment.PaymentRepository
	settlement  *Settlement
	idempotency shared.IdempotencyStore
	ttl         time.Duration
	logger      *zap.Logger
}

// WebhookServiceConfig contains configuration for WebhookService
type WebhookServiceConfig struct {
	Provider    payment.Provider
	Payments    payment.PaymentRepository
	Settlement  *Settlement
	Idempotency shared.IdempotencyStore
	TTL         time.Duration
	Logger      *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(cfg WebhookServiceConfig) *WebhookService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultWebhookIdempotencyTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{
		provider:    cfg.Provider,
		payments:    cfg.Payments,
		settlement:  cfg.Settlement,
		idempotency: cfg.Idempotency,
		ttl:         ttl,
		logger:      logger,
	}
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Handle verifies and applies a provider webhook.
// It returns payment.ErrInvalidSignature when the payload cannot be trusted; no state changes then.
// Events already processed are acknowledged without side effects. When processing fails the
// event is forgotten again so the provider's retry can succeed.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if s.provider == nil {
		return nil, payment.ErrProviderNotConfigured
	}
	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Rejected webhook", zap.Error(err))
		return nil, err
	}

	result := &WebhookResult{EventID: event.ID, EventType: event.Type}
	key := webhookKeyPrefix + event.ID

	fresh, err := s.idempotency.MarkProcessed(ctx, key, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("mark webhook event: %w", err)
	}
	if !fresh {
		s.logger.Debug("Duplicate webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type))
		result.Duplicate = true
		result.Message = "Event already processed"
		return result, nil
	}

	s.logger.Info("Processing webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Bool("livemode", event.Livemode))

	ctx, span := telemetry.StartSpan(ctx, "payment", "webhook",
		attribute.String(telemetry.SpanAttrStripeEvent, event.Type))
	handled, err := s.dispatch(ctx, event)
	telemetry.RecordError(span, err)
	span.End()
	if err != nil {
		if relErr := s.idempotency.Release(ctx, key); relErr != nil {
			s.logger.Error("Failed to release webhook event", zap.String("event_id", event.ID), zap.Error(relErr))
		}
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err))
		return nil, err
	}

	result.Processed = handled
	if !handled {
		result.Message = "Event type not handled"
	}
	return result, nil
}

func (s *WebhookService) dispatch(ctx context.Context, event *payment.WebhookEvent) (bool, error) {
	switch event.Type {
	case payment.EventCheckoutCompleted:
		if event.PaymentStatus == payment.SessionPaymentUnpaid {
			// Delayed payment methods report the outcome in a later async event.
			return true, nil
		}
		return true, s.handleSucceeded(ctx, event)
	case payment.EventCheckoutAsyncSucceeded:
		return true, s.handleSucceeded(ctx, event)
	case payment.EventCheckoutExpired:
		return true, s.handleAbandoned(ctx, event, payment.ReasonSessionExpired, false)
	case payment.EventCheckoutAsyncFailed:
		return true, s.handleAbandoned(ctx, event, payment.ReasonAsyncFailed, true)
	case payment.EventChargeRefunded:
		return true, s.handleRefunded(ctx, event)
	default:
		return false, nil
	}
}

func (s *WebhookService) handleSucceeded(ctx context.Context, event *payment.WebhookEvent) error {
	p, err := s.locate(ctx, event.SessionID, event.OrderID)
	if err != nil || p == nil {
		return err
	}

	if !p.MatchesAmount(event.AmountTotal, event.Currency) {
		s.logger.Error("Captured amount does not match payment",
			zap.String("payment_id", p.ID.String()),
			zap.String("expected", p.AmountMoney().String()),
			zap.Int64("reported_minor", event.AmountTotal),
			zap.String("reported_currency", event.Currency))
		_, err := s.settlement.RejectPayment(ctx, p.ID, payment.ReasonAmountMismatch)
		return err
	}

	_, err = s.settlement.ConfirmPayment(ctx, p.ID, event.PaymentIntentID)
	return err
}

func (s *WebhookService) handleAbandoned(ctx context.Context, event *payment.WebhookEvent, reason string, failed bool) error {
	p, err := s.locate(ctx, event.SessionID, event.OrderID)
	if err != nil || p == nil {
		return err
	}
	_, err = s.settlement.AbandonPayment(ctx, p.ID, reason, failed)
	return err
}

func (s *WebhookService) handleRefunded(ctx context.Context, event *payment.WebhookEvent) error {
	p, err := s.payments.FindByProviderPaymentID(ctx, event.PaymentIntentID)
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("Refund for unknown payment intent", zap.String("payment_intent", event.PaymentIntentID))
		return nil
	}
	if err != nil {
		return err
	}
	if p.Status != payment.StatusSucceeded && p.Status != payment.StatusRefunded {
		s.logger.Warn("Refund for a payment that was never captured, ignored",
			zap.String("payment_id", p.ID.String()),
			zap.String("payment_status", string(p.Status)))
		return nil
	}
	_, err = s.settlement.RecordRefund(ctx, p.ID, false, "")
	return err
}

// locate finds a payment by checkout session, falling back to the order in the session metadata.
// Unknown sessions return nil without error so the provider stops retrying.
func (s *WebhookService) locate(ctx context.Context, sessionID string, orderID uuid.UUID) (*payment.Payment, error) {
	p, err := s.payments.FindBySessionID(ctx, sessionID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if orderID != uuid.Nil {
		p, err = s.payments.FindByOrderID(ctx, orderID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	s.logger.Warn("Webhook for unknown checkout session",
		zap.String("session_id", sessionID),
		zap.String("order_id", orderID.String()))
	return nil, nil
}
