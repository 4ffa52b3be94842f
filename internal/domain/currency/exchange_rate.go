package currency

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// rateScale is the number of decimal places kept on stored rates
const rateScale = 8

// ExchangeRate is how many units of Currency buy one unit of the base currency
type ExchangeRate struct {
	Currency  valueobject.Currency
	Rate      decimal.Decimal
	UpdatedAt time.Time
}

// NewExchangeRate validates and creates a rate
func NewExchangeRate(c valueobject.Currency, rate decimal.Decimal) (ExchangeRate, error) {
	if !c.IsSupported() {
		return ExchangeRate{}, shared.ErrUnsupportedCurrency
	}
	if !rate.IsPositive() {
		return ExchangeRate{}, shared.NewDomainError("INVALID_RATE", "Exchange rate must be greater than zero")
	}
	return ExchangeRate{
		Currency:  c,
		Rate:      rate.Round(rateScale),
		UpdatedAt: time.Now(),
	}, nil
}
