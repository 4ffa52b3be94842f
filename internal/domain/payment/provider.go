package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ---------------------------------------------------------------------------
// Provider Errors
// ---------------------------------------------------------------------------

var (
	ErrProviderNotConfigured = errors.New("payment: provider not configured")
	ErrProviderRequestFailed = errors.New("payment: provider request failed")
	ErrInvalidSignature      = errors.New("payment: invalid webhook signature")
	ErrInvalidWebhookPayload = errors.New("payment: invalid webhook payload")
	ErrSessionNotFound       = errors.New("payment: checkout session not found")
)

// SessionStatus mirrors the provider's checkout session status
type SessionStatus string

const (
	SessionStatusOpen     SessionStatus = "open"
	SessionStatusComplete SessionStatus = "complete"
	SessionStatusExpired  SessionStatus = "expired"
)

// Provider payment status values reported for a checkout session
const (
	SessionPaymentPaid              = "paid"
	SessionPaymentUnpaid            = "unpaid"
	SessionPaymentNoPaymentRequired = "no_payment_required"
)

// Webhook event types handled by the storefront
const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventCheckoutAsyncSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncFailed    = "checkout.session.async_payment_failed"
	EventCheckoutExpired        = "checkout.session.expired"
	EventChargeRefunded         = "charge.refunded"
)

// Metadata keys set on checkout sessions
const (
	MetadataOrderID     = "order_id"
	MetadataOrderNumber = "order_number"
)

// Provider limits on checkout session lifetime
const (
	MinimumCheckoutSessionLifetime = 30 * time.Minute
	MaximumCheckoutSessionLifetime = 24 * time.Hour
)

// ---------------------------------------------------------------------------
// Request/Response DTOs
// ---------------------------------------------------------------------------

// SessionLine is one line item shown on the hosted checkout page
type SessionLine struct {
	Name      string
	UnitPrice valueobject.Money
	Quantity  int64
}

// CheckoutSessionRequest represents a request to open a hosted checkout page
type CheckoutSessionRequest struct {
	// OrderID is stored in the session metadata for webhook correlation
	OrderID uuid.UUID
	// OrderNumber is passed as the client reference
	OrderNumber string
	// Email pre-fills the customer email
	Email string
	// Lines must add up exactly to Amount
	Lines []SessionLine
	// Amount is the expected session total
	Amount valueobject.Money
	// SuccessURL and CancelURL are where the customer returns to
	SuccessURL string
	CancelURL  string
	// ExpiresAt must be between 30 minutes and 24 hours from now
	ExpiresAt time.Time
	// IdempotencyKey prevents duplicate sessions on retries
	IdempotencyKey string
}

// CheckoutSession is the provider's view of a hosted checkout
type CheckoutSession struct {
	ID              string
	URL             string
	Status          SessionStatus
	PaymentStatus   string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	OrderID         uuid.UUID
	ExpiresAt       time.Time
}

// IsPaid returns true if the session captured funds
func (s *CheckoutSession) IsPaid() bool {
	return s.Status == SessionStatusComplete &&
		(s.PaymentStatus == SessionPaymentPaid || s.PaymentStatus == SessionPaymentNoPaymentRequired)
}

// WebhookEvent is a verified, provider-neutral webhook notification
type WebhookEvent struct {
	ID              string
	Type            string
	SessionID       string
	PaymentIntentID string
	OrderID         uuid.UUID
	AmountTotal     int64
	Currency        string
	PaymentStatus   string
	Livemode        bool
}

// RefundResult describes a refund created by the provider
type RefundResult struct {
	ID     string
	Status string
	Amount int64
}

// Provider is the port to a hosted card payment provider
type Provider interface {
	// Name returns the provider identifier stored on payments
	Name() string

	// CreateCheckoutSession opens a hosted payment page
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error)

	// GetCheckoutSession fetches the current state of a session
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// ExpireCheckoutSession closes an open session so it can no longer be paid
	ExpireCheckoutSession(ctx context.Context, sessionID string) error

	// Refund returns funds for a captured payment intent
	Refund(ctx context.Context, paymentIntentID string, amount valueobject.Money, idempotencyKey string) (*RefundResult, error)

	// ParseWebhook verifies the signature and decodes the event
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
