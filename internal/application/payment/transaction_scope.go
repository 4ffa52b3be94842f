package payment

import (
	"context"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
)

// TransactionScope provides transactional access to the repositories touched by checkout and settlement.
// All repository operations inside fn are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories sharing one transaction.
//
// Aggregate boundary notes:
//   - Products: only stock counters are changed inside a transaction (DecrementStock/IncrementStock).
//   - Orders and Payments: saved with optimistic locking so concurrent webhooks and admin actions
//     cannot overwrite each other.
//   - Carts: cleared once an order is paid or placed as cash on delivery.
type TransactionalRepositories interface {
	Products() catalog.ProductRepository
	Orders() order.OrderRepository
	Payments() payment.PaymentRepository
	Carts() cart.CartRepository
}

// NoOpTransactionScope runs fn without a transaction. Used in tests.
type NoOpTransactionScope struct {
	products catalog.ProductRepository
	orders   order.OrderRepository
	payments payment.PaymentRepository
	carts    cart.CartRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	products catalog.ProductRepository,
	orders order.OrderRepository,
	payments payment.PaymentRepository,
	carts cart.CartRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		products: products,
		orders:   orders,
		payments: payments,
		carts:    carts,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Products() catalog.ProductRepository { return s.products }
func (s *NoOpTransactionScope) Orders() order.OrderRepository       { return s.orders }
func (s *NoOpTransactionScope) Payments() payment.PaymentRepository { return s.payments }
func (s *NoOpTransactionScope) Carts() cart.CartRepository          { return s.carts }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
