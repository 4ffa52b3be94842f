package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/currency"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeProduct(t *testing.T, name, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, "", decimal.RequireFromString(price))
	require.NoError(t, err)
	require.NoError(t, p.SetImages([]string{"products/" + p.Slug + ".jpg"}))
	require.NoError(t, p.Publish())
	p.Stock = stock
	return p
}

func eurConverter(t *testing.T) *currency.Converter {
	t.Helper()
	r, err := currency.NewExchangeRate(valueobject.EUR, decimal.RequireFromString("0.92"))
	require.NoError(t, err)
	return currency.NewConverter(valueobject.USD, []currency.ExchangeRate{r})
}

func newTestCart(t *testing.T) *cart.Cart {
	t.Helper()
	token, err := cart.NewSessionToken()
	require.NoError(t, err)
	c, err := cart.NewCart(token)
	require.NoError(t, err)
	return c
}

func TestShippingPolicy_Fee(t *testing.T) {
	policy := ShippingPolicy{
		FlatRate:      decimal.RequireFromString("5.00"),
		FreeThreshold: decimal.RequireFromString("50.00"),
	}

	assert.True(t, policy.Fee(decimal.Zero).IsZero(), "empty carts ship free")
	assert.Equal(t, "5", policy.Fee(decimal.RequireFromString("49.99")).String())
	assert.True(t, policy.Fee(decimal.RequireFromString("50.00")).IsZero())

	noThreshold := ShippingPolicy{FlatRate: decimal.RequireFromString("5.00")}
	assert.Equal(t, "5", noThreshold.Fee(decimal.RequireFromString("500")).String())
}

func TestPriceCart_ConvertsUnitPricesBeforeMultiplying(t *testing.T) {
	shirt := activeProduct(t, "Linen Shirt", "19.99", 10)
	c := newTestCart(t)
	require.NoError(t, c.AddItem(shirt.ID, 2, shirt.Stock))

	q, err := PriceCart(c, map[uuid.UUID]*catalog.Product{shirt.ID: shirt}, eurConverter(t), valueobject.EUR, ShippingPolicy{
		FlatRate:      decimal.RequireFromString("5.00"),
		FreeThreshold: decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)

	require.Len(t, q.Lines, 1)
	assert.Equal(t, "18.39", q.Lines[0].UnitPrice.Amount().StringFixed(2))
	assert.Equal(t, "36.78", q.Subtotal.Amount().StringFixed(2))
	assert.Equal(t, "4.60", q.ShippingFee.Amount().StringFixed(2))
	assert.Equal(t, "41.38", q.Total.Amount().StringFixed(2))
	assert.Equal(t, "39.98", q.BaseSubtotal.StringFixed(2))
	assert.Equal(t, 2, q.ItemCount)
	assert.False(t, q.HasUnavailable())
}

func TestPriceCart_ExcludesUnavailableLines(t *testing.T) {
	shirt := activeProduct(t, "Linen Shirt", "20.00", 10)
	scarf := activeProduct(t, "Wool Scarf", "15.00", 1)
	hat := activeProduct(t, "Sun Hat", "12.00", 5)
	gone := uuid.New()

	c := newTestCart(t)
	require.NoError(t, c.AddItem(shirt.ID, 1, 10))
	require.NoError(t, c.AddItem(scarf.ID, 1, 1))
	require.NoError(t, c.AddItem(hat.ID, 1, 5))
	require.NoError(t, c.AddItem(gone, 1, 5))

	// Stock sold elsewhere and a product taken off sale after they were added.
	scarf.Stock = 0
	require.NoError(t, hat.Archive())

	products := map[uuid.UUID]*catalog.Product{shirt.ID: shirt, scarf.ID: scarf, hat.ID: hat}
	conv := currency.NewConverter(valueobject.USD, nil)
	q, err := PriceCart(c, products, conv, valueobject.USD, ShippingPolicy{})
	require.NoError(t, err)

	reasons := map[uuid.UUID]string{}
	for _, l := range q.Lines {
		reasons[l.ProductID] = l.Unavailable
	}
	assert.Equal(t, "", reasons[shirt.ID])
	assert.Equal(t, UnavailableOutOfStock, reasons[scarf.ID])
	assert.Equal(t, UnavailableNotForSale, reasons[hat.ID])
	assert.Equal(t, UnavailableRemoved, reasons[gone])
	assert.Equal(t, "20.00", q.Total.Amount().StringFixed(2))
	assert.Equal(t, 1, q.ItemCount)
	assert.True(t, q.HasUnavailable())
}

func TestPriceCart_UnsupportedTarget(t *testing.T) {
	c := newTestCart(t)
	_, err := PriceCart(c, nil, currency.NewConverter(valueobject.USD, nil), valueobject.GBP, ShippingPolicy{})
	assert.Error(t, err)
}
