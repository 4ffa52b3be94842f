package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Converter converts money between the base currency and the supported currencies
// using a fixed set of rates. A Converter is immutable and safe for concurrent use.
type Converter struct {
	base  valueobject.Currency
	rates map[valueobject.Currency]decimal.Decimal
}

// NewConverter builds a converter. The base currency always converts at 1.
func NewConverter(base valueobject.Currency, rates []ExchangeRate) *Converter {
	m := make(map[valueobject.Currency]decimal.Decimal, len(rates)+1)
	for _, r := range rates {
		if r.Rate.IsPositive() {
			m[r.Currency] = r.Rate
		}
	}
	m[base] = decimal.NewFromInt(1)
	return &Converter{base: base, rates: m}
}

// Base returns the base currency
func (c *Converter) Base() valueobject.Currency {
	return c.base
}

// Rate returns units of target per one base unit
func (c *Converter) Rate(target valueobject.Currency) (decimal.Decimal, error) {
	r, ok := c.rates[target]
	if !ok {
		return decimal.Zero, shared.NewDomainError(shared.ErrUnsupportedCurrency.Code, fmt.Sprintf("No exchange rate for %s", target))
	}
	return r, nil
}

// Supports returns true if a rate for target is known
func (c *Converter) Supports(target valueobject.Currency) bool {
	_, ok := c.rates[target]
	return ok
}

// Convert converts m into target, rounded half away from zero to the target's minor unit.
// Cross conversions go through the base currency and are rounded once.
func (c *Converter) Convert(m valueobject.Money, target valueobject.Currency) (valueobject.Money, error) {
	if m.Currency() == target {
		return m.RoundToMinor(), nil
	}
	from, err := c.Rate(m.Currency())
	if err != nil {
		return valueobject.Money{}, err
	}
	to, err := c.Rate(target)
	if err != nil {
		return valueobject.Money{}, err
	}
	amount := m.Amount().Mul(to).DivRound(from, 16)
	out, err := valueobject.NewMoney(amount, target)
	if err != nil {
		return valueobject.Money{}, err
	}
	return out.RoundToMinor(), nil
}

// FromBase converts a base currency amount into target
func (c *Converter) FromBase(amount decimal.Decimal, target valueobject.Currency) (valueobject.Money, error) {
	m, err := valueobject.NewMoney(amount, c.base)
	if err != nil {
		return valueobject.Money{}, err
	}
	return c.Convert(m, target)
}

// ToBase converts m into the base currency
func (c *Converter) ToBase(m valueobject.Money) (valueobject.Money, error) {
	return c.Convert(m, c.base)
}
