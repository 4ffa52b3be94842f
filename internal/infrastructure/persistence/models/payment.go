package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// PaymentModel is the persistence model for the Payment aggregate
type PaymentModel struct {
	AggregateModel
	OrderID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	Method            order.PaymentMethod `gorm:"type:varchar(20);not null"`
	Provider          string              `gorm:"type:varchar(20);not null"`
	ProviderSessionID *string             `gorm:"type:varchar(255);uniqueIndex"`
	ProviderPaymentID string              `gorm:"type:varchar(255);index"`
	Amount            decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Currency          string              `gorm:"type:varchar(3);not null"`
	Status            payment.Status      `gorm:"type:varchar(20);not null;index"`
	FailureReason     string              `gorm:"type:varchar(100)"`
	ExpiresAt         *time.Time
	SucceededAt       *time.Time
	FailedAt          *time.Time
	RefundedAt        *time.Time
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *payment.Payment {
	sessionID := ""
	if m.ProviderSessionID != nil {
		sessionID = *m.ProviderSessionID
	}
	return &payment.Payment{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderID:           m.OrderID,
		Method:            m.Method,
		Provider:          m.Provider,
		ProviderSessionID: sessionID,
		ProviderPaymentID: m.ProviderPaymentID,
		Amount:            m.Amount,
		Currency:          valueobject.Currency(m.Currency),
		Status:            m.Status,
		FailureReason:     m.FailureReason,
		ExpiresAt:         m.ExpiresAt,
		SucceededAt:       m.SucceededAt,
		FailedAt:          m.FailedAt,
		RefundedAt:        m.RefundedAt,
	}
}

// FromDomain populates the persistence model from a domain Payment.
// An empty session id is stored as NULL so the unique index ignores it.
func (m *PaymentModel) FromDomain(p *payment.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.OrderID = p.OrderID
	m.Method = p.Method
	m.Provider = p.Provider
	m.ProviderSessionID = nil
	if p.ProviderSessionID != "" {
		s := p.ProviderSessionID
		m.ProviderSessionID = &s
	}
	m.ProviderPaymentID = p.ProviderPaymentID
	m.Amount = p.Amount
	m.Currency = p.Currency.String()
	m.Status = p.Status
	m.FailureReason = p.FailureReason
	m.ExpiresAt = p.ExpiresAt
	m.SucceededAt = p.SucceededAt
	m.FailedAt = p.FailedAt
	m.RefundedAt = p.RefundedAt
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
