package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Status represents the lifecycle of a single payment attempt
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSucceeded, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status.
// FAILED and CANCELLED may still become SUCCEEDED when the provider reports a late capture.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusSucceeded || target == StatusFailed || target == StatusCancelled
	case StatusFailed, StatusCancelled:
		return target == StatusSucceeded
	case StatusSucceeded:
		return target == StatusRefunded
	}
	return false
}

// Provider names
const (
	ProviderStripe = "stripe"
	ProviderNone   = "none"
)

// Failure reasons recorded on payments
const (
	ReasonAmountMismatch = "amount_mismatch"
	ReasonSessionExpired = "checkout_session_expired"
	ReasonAsyncFailed    = "async_payment_failed"
	ReasonOrderCancelled = "order_cancelled"
)

// Payment is one attempt to settle an order
type Payment struct {
	shared.BaseAggregateRoot
	OrderID           uuid.UUID
	Method            order.PaymentMethod
	Provider          string
	ProviderSessionID string
	ProviderPaymentID string
	Amount            decimal.Decimal
	Currency          valueobject.Currency
	Status            Status
	FailureReason     string
	ExpiresAt         *time.Time
	SucceededAt       *time.Time
	FailedAt          *time.Time
	RefundedAt        *time.Time
}

// NewCardPayment creates a pending card payment that expires with its checkout session
func NewCardPayment(orderID uuid.UUID, amount valueobject.Money, expiresAt time.Time) (*Payment, error) {
	p, err := newPayment(orderID, order.PaymentMethodCard, ProviderStripe, amount)
	if err != nil {
		return nil, err
	}
	p.ExpiresAt = &expiresAt
	return p, nil
}

// NewCashOnDeliveryPayment creates a pending payment collected by the courier
func NewCashOnDeliveryPayment(orderID uuid.UUID, amount valueobject.Money) (*Payment, error) {
	return newPayment(orderID, order.PaymentMethodCashOnDelivery, ProviderNone, amount)
}

func newPayment(orderID uuid.UUID, method order.PaymentMethod, provider string, amount valueobject.Money) (*Payment, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		Method:            method,
		Provider:          provider,
		Amount:            amount.Amount(),
		Currency:          amount.Currency(),
		Status:            StatusPending,
	}, nil
}

// AttachSession records the provider checkout session
func (p *Payment) AttachSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return shared.NewDomainError("INVALID_SESSION", "Checkout session ID cannot be empty")
	}
	p.ProviderSessionID = sessionID
	p.touch()
	return nil
}

// Succeed marks the payment captured. Returns false when it already succeeded.
func (p *Payment) Succeed(providerPaymentID string, at time.Time) (bool, error) {
	if p.Status == StatusSucceeded {
		return false, nil
	}
	if !p.Status.CanTransitionTo(StatusSucceeded) {
		return false, p.invalidTransition(StatusSucceeded)
	}
	p.Status = StatusSucceeded
	if providerPaymentID != "" {
		p.ProviderPaymentID = providerPaymentID
	}
	p.FailureReason = ""
	p.SucceededAt = &at
	p.touch()
	return true, nil
}

// Fail marks the payment failed. Returns false when nothing changed.
func (p *Payment) Fail(reason string) (bool, error) {
	if p.Status == StatusFailed {
		return false, nil
	}
	if !p.Status.CanTransitionTo(StatusFailed) {
		return false, p.invalidTransition(StatusFailed)
	}
	now := time.Now()
	p.Status = StatusFailed
	p.FailureReason = reason
	p.FailedAt = &now
	p.touch()
	return true, nil
}

// Cancel marks the payment abandoned. Returns false when nothing changed.
func (p *Payment) Cancel(reason string) (bool, error) {
	if p.Status == StatusCancelled {
		return false, nil
	}
	if !p.Status.CanTransitionTo(StatusCancelled) {
		return false, p.invalidTransition(StatusCancelled)
	}
	now := time.Now()
	p.Status = StatusCancelled
	p.FailureReason = reason
	p.FailedAt = &now
	p.touch()
	return true, nil
}

// Refund marks a captured payment refunded. Returns false when already refunded.
func (p *Payment) Refund() (bool, error) {
	if p.Status == StatusRefunded {
		return false, nil
	}
	if !p.Status.CanTransitionTo(StatusRefunded) {
		return false, p.invalidTransition(StatusRefunded)
	}
	now := time.Now()
	p.Status = StatusRefunded
	p.RefundedAt = &now
	p.touch()
	return true, nil
}

// AmountMoney returns the charged amount as Money
func (p *Payment) AmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(p.Amount, p.Currency)
	return m
}

// MatchesAmount compares a provider-reported amount in minor units
func (p *Payment) MatchesAmount(minorUnits int64, currency string) bool {
	return strings.EqualFold(currency, string(p.Currency)) && p.AmountMoney().MinorUnits() == minorUnits
}

// IsExpired returns true if a pending card session is past its expiry
func (p *Payment) IsExpired(now time.Time) bool {
	return p.Status == StatusPending && p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// IsCard returns true for card payments
func (p *Payment) IsCard() bool {
	return p.Method == order.PaymentMethodCard
}

func (p *Payment) invalidTransition(target Status) error {
	return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move payment from %s to %s", p.Status, target))
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now()
}
