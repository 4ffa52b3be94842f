package testutil

import (
	"context"

	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/mock"
)

// MockPaymentProvider is a mock implementation of payment.Provider
type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) Name() string { return payment.ProviderStripe }

func (m *MockPaymentProvider) CreateCheckoutSession(ctx context.Context, req *payment.CheckoutSessionRequest) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockPaymentProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockPaymentProvider) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockPaymentProvider) Refund(ctx context.Context, paymentIntentID string, amount valueobject.Money, idempotencyKey string) (*payment.RefundResult, error) {
	args := m.Called(ctx, paymentIntentID, amount, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundResult), args.Error(1)
}

func (m *MockPaymentProvider) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}

var _ payment.Provider = (*MockPaymentProvider)(nil)
