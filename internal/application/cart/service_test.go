package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appcart "github.com/storefront/backend/internal/application/cart"
	appcurrency "github.com/storefront/backend/internal/application/currency"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/currency"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/storefront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCartService(t *testing.T) (*appcart.Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	rates := persistence.NewGormRateRepository(db)
	eur, err := currency.NewExchangeRate(valueobject.EUR, decimal.RequireFromString("0.92"))
	require.NoError(t, err)
	require.NoError(t, rates.Save(context.Background(), eur))

	svc := appcart.NewService(appcart.ServiceConfig{
		Carts:    persistence.NewGormCartRepository(db),
		Products: persistence.NewGormProductRepository(db),
		Currency: appcurrency.NewService(appcurrency.ServiceConfig{Rates: rates, Base: valueobject.USD}),
		Shipping: appcart.ShippingPolicy{
			FlatRate:      decimal.RequireFromString("5.00"),
			FreeThreshold: decimal.RequireFromString("100.00"),
		},
		ImageURL: func(key string) string { return "https://cdn.test/" + key },
	})
	return svc, db
}

func TestCartService_ViewIssuesSession(t *testing.T) {
	svc, _ := newCartService(t)

	view, token, err := svc.View(context.Background(), "", "")
	require.NoError(t, err)
	assert.True(t, cart.IsValidSessionToken(token))
	assert.Equal(t, "USD", view.Currency)
	assert.Empty(t, view.Lines)
	assert.Equal(t, "0.00", view.Total)
}

func TestCartService_AddAndPrice(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	shirt := testutil.SeedProduct(t, db, "Linen Shirt", "40.00", 10)

	view, token, err := svc.AddItem(ctx, "", "EUR", appcart.AddItemRequest{ProductID: shirt.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, "EUR", view.Currency)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "36.80", view.Lines[0].UnitPrice)
	assert.Equal(t, "73.60", view.Subtotal)
	assert.Equal(t, "4.60", view.ShippingFee)
	assert.Equal(t, "78.20", view.Total)
	assert.Equal(t, "https://cdn.test/products/linen-shirt.jpg", view.Lines[0].ImageURL)

	t.Run("same session merges lines", func(t *testing.T) {
		view, again, err := svc.AddItem(ctx, token, "", appcart.AddItemRequest{ProductID: shirt.ID, Quantity: 1})
		require.NoError(t, err)
		assert.Equal(t, token, again)
		require.Len(t, view.Lines, 1)
		assert.Equal(t, 3, view.Lines[0].Quantity)
		assert.Equal(t, "120.00", view.Subtotal)
		assert.Equal(t, "0.00", view.ShippingFee, "free shipping above threshold")
	})

	t.Run("unsupported display currency falls back to base", func(t *testing.T) {
		view, _, err := svc.View(ctx, token, "NGN")
		require.NoError(t, err)
		assert.Equal(t, "USD", view.Currency)
	})
}

func TestCartService_StockAndAvailabilityRules(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	scarf := testutil.SeedProduct(t, db, "Wool Scarf", "15.00", 2)

	_, token, err := svc.AddItem(ctx, "", "", appcart.AddItemRequest{ProductID: scarf.ID, Quantity: 3})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	draft, err := catalog.NewProduct("Draft Hat", "", decimal.RequireFromString("10"))
	require.NoError(t, err)
	draft.Stock = 5
	require.NoError(t, persistence.NewGormProductRepository(db).Save(ctx, draft))

	_, _, err = svc.AddItem(ctx, token, "", appcart.AddItemRequest{ProductID: draft.ID, Quantity: 1})
	assert.ErrorIs(t, err, cart.ErrNotPurchasable)

	_, _, err = svc.AddItem(ctx, token, "", appcart.AddItemRequest{ProductID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, cart.ErrNotPurchasable)
}

func TestCartService_UpdateRemoveClear(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	shirt := testutil.SeedProduct(t, db, "Linen Shirt", "40.00", 10)
	scarf := testutil.SeedProduct(t, db, "Wool Scarf", "15.00", 10)

	_, token, err := svc.AddItem(ctx, "", "", appcart.AddItemRequest{ProductID: shirt.ID, Quantity: 1})
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, token, "", appcart.AddItemRequest{ProductID: scarf.ID, Quantity: 1})
	require.NoError(t, err)

	view, _, err := svc.UpdateQuantity(ctx, token, "", shirt.ID, appcart.UpdateItemRequest{Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, view.ItemCount)

	view, _, err = svc.UpdateQuantity(ctx, token, "", shirt.ID, appcart.UpdateItemRequest{Quantity: 0})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, scarf.ID, view.Lines[0].ProductID)

	_, _, err = svc.RemoveItem(ctx, token, "", shirt.ID)
	assert.ErrorIs(t, err, cart.ErrItemNotInCart)

	view, _, err = svc.Clear(ctx, token, "")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
}

func TestCartService_PurgeStale(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	shirt := testutil.SeedProduct(t, db, "Linen Shirt", "40.00", 10)

	_, token, err := svc.AddItem(ctx, "", "", appcart.AddItemRequest{ProductID: shirt.ID, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.CartModel{}).
		Where("session_token = ?", token).
		UpdateColumn("updated_at", time.Now().Add(-48*time.Hour)).Error)

	n, err := svc.PurgeStale(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	view, again, err := svc.View(ctx, token, "")
	require.NoError(t, err)
	assert.Equal(t, token, again, "a purged session keeps its token")
	assert.Empty(t, view.Lines)
}
