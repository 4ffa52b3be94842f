package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/currency"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ExchangeRateModel stores one rate per currency against the base currency
type ExchangeRateModel struct {
	Currency  string          `gorm:"type:varchar(3);primaryKey"`
	Rate      decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExchangeRateModel) TableName() string {
	return "exchange_rates"
}

// ToDomain converts the persistence model to a domain ExchangeRate
func (m *ExchangeRateModel) ToDomain() currency.ExchangeRate {
	return currency.ExchangeRate{
		Currency:  valueobject.Currency(m.Currency),
		Rate:      m.Rate,
		UpdatedAt: m.UpdatedAt,
	}
}

// ExchangeRateModelFromDomain creates a persistence model from a domain ExchangeRate
func ExchangeRateModelFromDomain(r currency.ExchangeRate) *ExchangeRateModel {
	return &ExchangeRateModel{
		Currency:  r.Currency.String(),
		Rate:      r.Rate,
		UpdatedAt: r.UpdatedAt,
	}
}
