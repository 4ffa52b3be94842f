package currency

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/currency"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Display prices base currency amounts in one request's display currency
type Display struct {
	conv   *currency.Converter
	target valueobject.Currency
	format func(valueobject.Money) string
}

// Price is a converted amount with its rendering
type Price struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

// Display resolves the display currency from the candidates, then the configured default, then the base currency
func (s *Service) Display(ctx context.Context, candidates ...string) (*Display, error) {
	conv, err := s.Converter(ctx)
	if err != nil {
		return nil, err
	}
	return &Display{
		conv:   conv,
		target: s.ResolveDisplay(conv, candidates...),
		format: func(m valueobject.Money) string { return s.Format(m, "") },
	}, nil
}

// Currency returns the resolved display currency
func (d *Display) Currency() valueobject.Currency {
	return d.target
}

// Price converts a base currency amount
func (d *Display) Price(amount decimal.Decimal) (Price, error) {
	m, err := d.conv.FromBase(amount, d.target)
	if err != nil {
		return Price{}, err
	}
	return Price{
		Amount:    m.Amount().StringFixed(d.target.MinorUnitExponent()),
		Currency:  d.target.String(),
		Formatted: d.format(m),
	}, nil
}
