package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByOrderID returns the latest payment of an order
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error)

	FindBySessionID(ctx context.Context, sessionID string) (*Payment, error)

	FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*Payment, error)

	// FindStalePending returns pending card payments created before the cutoff, oldest first
	FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]Payment, error)

	// CountPending counts pending card payments
	CountPending(ctx context.Context) (int64, error)

	Create(ctx context.Context, payment *Payment) error

	// SaveWithLock updates a payment using optimistic locking on Version
	SaveWithLock(ctx context.Context, payment *Payment) error
}
