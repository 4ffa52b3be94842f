package currency

import (
	"context"

	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// RateRepository defines the interface for exchange rate persistence
type RateRepository interface {
	FindAll(ctx context.Context) ([]ExchangeRate, error)
	FindByCurrency(ctx context.Context, c valueobject.Currency) (*ExchangeRate, error)
	// Save upserts the rate of a currency
	Save(ctx context.Context, rate ExchangeRate) error
}
