package currency_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	appcurrency "github.com/storefront/backend/internal/application/currency"
	"github.com/storefront/backend/internal/domain/currency"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*appcurrency.Service, *persistence.GormRateRepository) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	repo := persistence.NewGormRateRepository(db)
	svc := appcurrency.NewService(appcurrency.ServiceConfig{
		Rates:         repo,
		Cache:         cache.NewInMemoryRateCache(time.Minute),
		Base:          valueobject.USD,
		DefaultLocale: "en-US",
	})
	return svc, repo
}

func TestService_SetRateAndConvert(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SetRate(ctx, appcurrency.SetRateRequest{Currency: "eur", Rate: "0.92"})
	require.NoError(t, err)

	got, err := svc.Convert(ctx, appcurrency.ConvertRequest{Amount: "19.99", From: "USD", To: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "18.39", got.Amount)
	assert.Equal(t, "EUR", got.Currency)
}

func TestService_SetRateInvalidatesCache(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SetRate(ctx, appcurrency.SetRateRequest{Currency: "GBP", Rate: "0.80"})
	require.NoError(t, err)
	first, err := svc.Convert(ctx, appcurrency.ConvertRequest{Amount: "10", From: "USD", To: "GBP"})
	require.NoError(t, err)
	assert.Equal(t, "8.00", first.Amount)

	_, err = svc.SetRate(ctx, appcurrency.SetRateRequest{Currency: "GBP", Rate: "0.75"})
	require.NoError(t, err)
	second, err := svc.Convert(ctx, appcurrency.ConvertRequest{Amount: "10", From: "USD", To: "GBP"})
	require.NoError(t, err)
	assert.Equal(t, "7.50", second.Amount)
}

func TestService_SetRateValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  appcurrency.SetRateRequest
		code string
	}{
		{"base currency", appcurrency.SetRateRequest{Currency: "USD", Rate: "1.1"}, "BASE_CURRENCY_RATE"},
		{"unknown currency", appcurrency.SetRateRequest{Currency: "XYZ", Rate: "1"}, shared.ErrUnsupportedCurrency.Code},
		{"zero rate", appcurrency.SetRateRequest{Currency: "EUR", Rate: "0"}, "INVALID_RATE"},
		{"not a number", appcurrency.SetRateRequest{Currency: "EUR", Rate: "abc"}, "INVALID_RATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetRate(ctx, tt.req)
			de, ok := shared.AsDomainError(err)
			require.True(t, ok, "expected domain error, got %v", err)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestService_ListCurrencies(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	rate, err := currency.NewExchangeRate(valueobject.JPY, decimal.RequireFromString("151.37"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, rate))

	list, err := svc.ListCurrencies(ctx)
	require.NoError(t, err)
	require.Len(t, list, len(valueobject.SupportedCurrencies()))

	byCode := map[string]appcurrency.CurrencyResponse{}
	for _, c := range list {
		byCode[c.Code] = c
	}
	assert.True(t, byCode["USD"].IsBase)
	assert.True(t, byCode["USD"].Available)
	assert.True(t, byCode["JPY"].Available)
	assert.Equal(t, int32(0), byCode["JPY"].Decimals)
	assert.False(t, byCode["NGN"].Available)
}

func TestService_ConvertUnavailableCurrency(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Convert(context.Background(), appcurrency.ConvertRequest{Amount: "5", From: "USD", To: "NGN"})
	assert.ErrorIs(t, err, shared.ErrUnsupportedCurrency)
}

func TestResolveDisplayCurrency(t *testing.T) {
	rate, err := currency.NewExchangeRate(valueobject.EUR, decimal.RequireFromString("0.92"))
	require.NoError(t, err)
	conv := currency.NewConverter(valueobject.USD, []currency.ExchangeRate{rate})

	assert.Equal(t, valueobject.EUR, appcurrency.ResolveDisplayCurrency(conv, "eur", "GBP"))
	assert.Equal(t, valueobject.EUR, appcurrency.ResolveDisplayCurrency(conv, "", "EUR"))
	assert.Equal(t, valueobject.USD, appcurrency.ResolveDisplayCurrency(conv, "GBP"), "no rate falls back to base")
	assert.Equal(t, valueobject.USD, appcurrency.ResolveDisplayCurrency(conv, "bogus"))
	assert.Equal(t, valueobject.USD, appcurrency.ResolveDisplayCurrency(conv))
}

func TestService_DisplayUsesConfiguredDefault(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := persistence.NewGormRateRepository(db)
	ctx := context.Background()

	svc := appcurrency.NewService(appcurrency.ServiceConfig{
		Rates:   repo,
		Base:    valueobject.USD,
		Default: valueobject.EUR,
	})
	_, err := svc.SetRate(ctx, appcurrency.SetRateRequest{Currency: "EUR", Rate: "0.92"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		candidates []string
		want       valueobject.Currency
	}{
		{"nothing requested", []string{""}, valueobject.EUR},
		{"no candidates", nil, valueobject.EUR},
		{"request wins", []string{"USD"}, valueobject.USD},
		{"unrated request falls to default", []string{"GBP"}, valueobject.EUR},
		{"garbage falls to default", []string{"bogus"}, valueobject.EUR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			display, err := svc.Display(ctx, tt.candidates...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, display.Currency())
		})
	}

	t.Run("priced in the default", func(t *testing.T) {
		display, err := svc.Display(ctx, "")
		require.NoError(t, err)
		price, err := display.Price(decimal.RequireFromString("10"))
		require.NoError(t, err)
		assert.Equal(t, "9.20", price.Amount)
		assert.Equal(t, "EUR", price.Currency)
	})

	t.Run("unrated default falls back to base", func(t *testing.T) {
		jpyDefault := appcurrency.NewService(appcurrency.ServiceConfig{
			Rates:   repo,
			Base:    valueobject.USD,
			Default: valueobject.JPY,
		})
		display, err := jpyDefault.Display(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, valueobject.USD, display.Currency())
	})
}

func TestFormat(t *testing.T) {
	usd, err := valueobject.NewMoneyFromString("1234.5", valueobject.USD)
	require.NoError(t, err)
	assert.Contains(t, appcurrency.Format(usd, "en-US"), "1,234.50")
	assert.Contains(t, appcurrency.Format(usd, "en-US"), "$")

	eur, err := valueobject.NewMoneyFromString("1234.5", valueobject.EUR)
	require.NoError(t, err)
	assert.Contains(t, appcurrency.Format(eur, "de-DE"), "1.234,50")

	jpy, err := valueobject.NewMoneyFromString("3026", valueobject.JPY)
	require.NoError(t, err)
	assert.NotContains(t, appcurrency.Format(jpy, "en-US"), ".")
}
