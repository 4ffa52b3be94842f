package currency

import (
	"time"

	"github.com/storefront/backend/internal/domain/currency"
)

// CurrencyResponse describes a supported display currency
type CurrencyResponse struct {
	Code      string `json:"code"`
	Symbol    string `json:"symbol"`
	Decimals  int32  `json:"decimals"`
	Rate      string `json:"rate,omitempty"`
	IsBase    bool   `json:"is_base"`
	Available bool   `json:"available"`
}

// RateResponse is a stored exchange rate
type RateResponse struct {
	Currency  string    `json:"currency"`
	Rate      string    `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetRateRequest sets the rate of one currency against the base currency
type SetRateRequest struct {
	Currency string `json:"currency" binding:"required,currency"`
	Rate     string `json:"rate" binding:"required"`
}

// ConvertRequest converts an amount between currencies
type ConvertRequest struct {
	Amount string `json:"amount" form:"amount" binding:"required"`
	From   string `json:"from" form:"from" binding:"required,currency"`
	To     string `json:"to" form:"to" binding:"required,currency"`
}

// ConvertResponse is a converted, rounded amount
type ConvertResponse struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

// ToRateResponse converts a domain rate to its response
func ToRateResponse(r currency.ExchangeRate) RateResponse {
	return RateResponse{
		Currency:  r.Currency.String(),
		Rate:      r.Rate.String(),
		UpdatedAt: r.UpdatedAt,
	}
}
