package integration

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/currency"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/tests/testutil"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

func TestProductStock_NoOversell(t *testing.T) {
	tdb := NewSharedTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormProductRepository(tdb.DB)
	p := testutil.SeedProduct(t, tdb.DB, "Limited Print", "80", 10)

	var (
		wg       sync.WaitGroup
		taken    atomic.Int32
		rejected atomic.Int32
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.DecrementStock(ctx, p.ID, 1)
			switch {
			case err == nil:
				taken.Add(1)
			case errors.Is(err, shared.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), taken.Load())
	assert.Equal(t, int32(15), rejected.Load())
	assert.Zero(t, testutil.ProductStock(t, tdb.DB, p))
}

func TestOrderRepository_OptimisticLock(t *testing.T) {
	tdb := NewSharedTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormOrderRepository(tdb.DB)
	p := testutil.SeedProduct(t, tdb.DB, "Desk Lamp", "45", 5)
	placed, _ := testutil.SeedOrder(t, tdb.DB, p, order.PaymentMethodCashOnDelivery, 1)

	first, err := repo.FindByID(ctx, placed.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, placed.ID)
	require.NoError(t, err)

	require.NoError(t, first.Ship("TRACK-1"))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, second.Cancel("changed my mind"))
	assert.ErrorIs(t, repo.SaveWithLock(ctx, second), shared.ErrConcurrencyConflict)

	stored, err := repo.FindByOrderNumber(ctx, placed.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusShipped, stored.Status)
	assert.Equal(t, "TRACK-1", stored.TrackingNumber)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Desk Lamp", stored.Items[0].ProductName)
}

func TestSettlement_CardPaymentLifecycle(t *testing.T) {
	tdb := NewSharedTestDB(t)
	ctx := context.Background()
	publisher := testutil.NewRecordingPublisher()
	settlement := paymentapp.NewSettlement(persistence.NewGormTransactionScope(tdb.DB), publisher, nil)
	orders := persistence.NewGormOrderRepository(tdb.DB)
	payments := persistence.NewGormPaymentRepository(tdb.DB)

	p := testutil.SeedProduct(t, tdb.DB, "Wool Throw", "120", 4)

	t.Run("confirm is applied once", func(t *testing.T) {
		placed, pay := testutil.SeedOrder(t, tdb.DB, p, order.PaymentMethodCard, 1)

		result, err := settlement.ConfirmPayment(ctx, pay.ID, "pi_123")
		require.NoError(t, err)
		assert.True(t, result.Changed)

		again, err := settlement.ConfirmPayment(ctx, pay.ID, "pi_123")
		require.NoError(t, err)
		assert.False(t, again.Changed)

		stored, err := orders.FindByID(ctx, placed.ID)
		require.NoError(t, err)
		assert.Equal(t, order.PaymentStatusPaid, stored.PaymentStatus)
		assert.Equal(t, order.OrderStatusProcessing, stored.Status)

		storedPay, err := payments.FindBySessionID(ctx, "cs_test_"+placed.OrderNumber)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusSucceeded, storedPay.Status)
		assert.Contains(t, publisher.Types(), order.EventTypeOrderPaid)
	})

	t.Run("abandon restores stock", func(t *testing.T) {
		before := testutil.ProductStock(t, tdb.DB, p)
		placed, pay := testutil.SeedOrder(t, tdb.DB, p, order.PaymentMethodCard, 2)
		assert.Equal(t, before-2, testutil.ProductStock(t, tdb.DB, p))

		_, err := settlement.AbandonPayment(ctx, pay.ID, "checkout session expired", false)
		require.NoError(t, err)

		stored, err := orders.FindByID(ctx, placed.ID)
		require.NoError(t, err)
		assert.Equal(t, order.OrderStatusCancelled, stored.Status)
		assert.Equal(t, before, testutil.ProductStock(t, tdb.DB, p))
	})
}

func TestOrderRepository_Reporting(t *testing.T) {
	tdb := NewSharedTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormOrderRepository(tdb.DB)
	p := testutil.SeedProduct(t, tdb.DB, "Tea Set", "60", 10)

	testutil.SeedOrder(t, tdb.DB, p, order.PaymentMethodCashOnDelivery, 1)
	testutil.SeedOrder(t, tdb.DB, p, order.PaymentMethodCard, 2)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	counts, err := repo.CountByStatus(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[order.OrderStatusProcessing])
	assert.Equal(t, int64(1), counts[order.OrderStatusPending])

	list, total, err := repo.List(ctx, order.OrderFilter{
		Filter:        shared.Filter{Page: 1, PageSize: 10},
		PaymentMethod: order.PaymentMethodCard,
		From:          &from,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, order.PaymentMethodCard, list[0].PaymentMethod)

	recent, err := repo.FindRecent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestRateRepository_Upsert(t *testing.T) {
	tdb := NewSharedTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormRateRepository(tdb.DB)

	for _, r := range []string{"0.90", "0.9312"} {
		rate, err := currency.NewExchangeRate(valueobject.EUR, decimal.RequireFromString(r))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, rate))
	}

	stored, err := repo.FindByCurrency(ctx, valueobject.EUR)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.9312").Equal(stored.Rate))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
