package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRate(t *testing.T, c valueobject.Currency, rate string) ExchangeRate {
	t.Helper()
	r, err := NewExchangeRate(c, decimal.RequireFromString(rate))
	require.NoError(t, err)
	return r
}

func testConverter(t *testing.T) *Converter {
	return NewConverter(valueobject.USD, []ExchangeRate{
		mustRate(t, valueobject.EUR, "0.92"),
		mustRate(t, valueobject.JPY, "151.37"),
		mustRate(t, valueobject.NGN, "1550.5"),
	})
}

func TestNewExchangeRate(t *testing.T) {
	_, err := NewExchangeRate(valueobject.EUR, decimal.Zero)
	assert.Error(t, err)

	_, err = NewExchangeRate("XXX", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, shared.ErrUnsupportedCurrency)

	r := mustRate(t, valueobject.EUR, "0.123456789123")
	assert.Equal(t, "0.12345679", r.Rate.String())
}

func TestConverter_Convert(t *testing.T) {
	c := testConverter(t)

	tests := []struct {
		name   string
		amount string
		from   valueobject.Currency
		to     valueobject.Currency
		want   string
	}{
		{"base to eur", "19.99", valueobject.USD, valueobject.EUR, "18.39"},
		{"base to jpy rounds to whole yen", "19.99", valueobject.USD, valueobject.JPY, "3026"},
		{"eur to base", "18.39", valueobject.EUR, valueobject.USD, "19.99"},
		{"cross eur to jpy", "10", valueobject.EUR, valueobject.JPY, "1645"},
		{"same currency only rounds", "10.005", valueobject.USD, valueobject.USD, "10.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := valueobject.NewMoneyFromString(tt.amount, tt.from)
			require.NoError(t, err)
			got, err := c.Convert(m, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Currency())
			assert.Equal(t, tt.want, got.Amount().String())
		})
	}
}

func TestConverter_MissingRate(t *testing.T) {
	c := testConverter(t)
	m, _ := valueobject.NewMoneyFromInt(5, valueobject.USD)
	_, err := c.Convert(m, valueobject.GBP)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUnsupportedCurrency)
	assert.False(t, c.Supports(valueobject.GBP))
	assert.True(t, c.Supports(valueobject.USD))
}

func TestConverter_BaseHelpers(t *testing.T) {
	c := testConverter(t)
	m, err := c.FromBase(decimal.RequireFromString("2.50"), valueobject.NGN)
	require.NoError(t, err)
	assert.Equal(t, "3876.25", m.Amount().String())

	back, err := c.ToBase(m)
	require.NoError(t, err)
	assert.Equal(t, "2.5", back.Amount().String())
	assert.Equal(t, valueobject.USD, c.Base())
}
