package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderFilter narrows admin order listings
type OrderFilter struct {
	shared.Filter
	Status        OrderStatus
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	From          *time.Time
	To            *time.Time
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its public number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// List returns one page of orders and the total match count
	List(ctx context.Context, filter OrderFilter) ([]Order, int64, error)

	// FindRecent returns the latest orders, newest first
	FindRecent(ctx context.Context, limit int) ([]Order, error)

	// Create inserts a new order with its items
	Create(ctx context.Context, order *Order) error

	// SaveWithLock updates an order using optimistic locking on Version
	SaveWithLock(ctx context.Context, order *Order) error

	// ExistsByOrderNumber checks for order number collisions
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// CountByStatus counts orders created in [from, to) grouped by status
	CountByStatus(ctx context.Context, from, to time.Time) (map[OrderStatus]int64, error)

	// RevenueByCurrency sums totals of paid orders created in [from, to) per currency
	RevenueByCurrency(ctx context.Context, from, to time.Time) ([]Revenue, error)
}

// Revenue is the paid total for one currency. BaseTotal converts each order
// back to the base currency with the rate snapshot taken at placement.
type Revenue struct {
	Currency  valueobject.Currency
	Total     decimal.Decimal
	BaseTotal decimal.Decimal
	Orders    int64
}
