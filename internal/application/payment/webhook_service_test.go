package payment_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	apppayment "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type webhookFixture struct {
	*fixture
	provider *testutil.MockPaymentProvider
	store    *cache.InMemoryIdempotencyStore
	service  *apppayment.WebhookService
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	f := newFixture(t)
	provider := new(testutil.MockPaymentProvider)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	return &webhookFixture{
		fixture:  f,
		provider: provider,
		store:    store,
		service: apppayment.NewWebhookService(apppayment.WebhookServiceConfig{
			Provider:    provider,
			Payments:    f.payments,
			Settlement:  f.settlement,
			Idempotency: store,
			Logger:      zap.NewNop(),
		}),
	}
}

func (w *webhookFixture) deliver(t *testing.T, event *payment.WebhookEvent) (*apppayment.WebhookResult, error) {
	t.Helper()
	payload := []byte(`{"id":"` + event.ID + `"}`)
	w.provider.On("ParseWebhook", payload, "sig").Return(event, nil).Once()
	return w.service.Handle(context.Background(), payload, "sig")
}

func completedEvent(id string, o *order.Order, p *payment.Payment, minor int64) *payment.WebhookEvent {
	return &payment.WebhookEvent{
		ID:              id,
		Type:            payment.EventCheckoutCompleted,
		SessionID:       p.ProviderSessionID,
		PaymentIntentID: "pi_" + id,
		OrderID:         o.ID,
		AmountTotal:     minor,
		Currency:        "usd",
		PaymentStatus:   payment.SessionPaymentPaid,
	}
}

func TestWebhookService_CheckoutCompleted(t *testing.T) {
	w := newWebhookFixture(t)
	o, p := w.placeCardOrder(t)

	res, err := w.deliver(t, completedEvent("evt_1", o, p, 8000))
	require.NoError(t, err)
	assert.True(t, res.Processed)
	assert.False(t, res.Duplicate)

	o, p = w.reload(t, o, p)
	assert.Equal(t, payment.StatusSucceeded, p.Status)
	assert.Equal(t, "pi_evt_1", p.ProviderPaymentID)
	assert.Equal(t, order.PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, order.OrderStatusProcessing, o.Status)
}

func TestWebhookService_DuplicateEventIsAcknowledged(t *testing.T) {
	w := newWebhookFixture(t)
	o, p := w.placeCardOrder(t)

	_, err := w.deliver(t, completedEvent("evt_dup", o, p, 8000))
	require.NoError(t, err)
	w.publisher.Reset()

	res, err := w.deliver(t, completedEvent("evt_dup", o, p, 8000))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.False(t, res.Processed)
	assert.Empty(t, w.publisher.Types())
}

func TestWebhookService_AmountMismatchFailsPayment(t *testing.T) {
	w := newWebhookFixture(t)
	o, p := w.placeCardOrder(t)

	res, err := w.deliver(t, completedEvent("evt_short", o, p, 7999))
	require.NoError(t, err)
	assert.True(t, res.Processed)

	o, p = w.reload(t, o, p)
	assert.Equal(t, payment.StatusFailed, p.Status)
	assert.Equal(t, payment.ReasonAmountMismatch, p.FailureReason)
	assert.Equal(t, order.PaymentStatusUnpaid, o.PaymentStatus)
	assert.Equal(t, order.OrderStatusPending, o.Status)
}

func TestWebhookService_UnpaidCompletionWaitsForAsyncEvent(t *testing.T) {
	w := newWebhookFixture(t)
	o, p := w.placeCardOrder(t)

	event := completedEvent("evt_delayed", o, p, 8000)
	event.PaymentStatus = payment.SessionPaymentUnpaid
	res, err := w.deliver(t, event)
	require.NoError(t, err)
	assert.True(t, res.Processed)

	_, p = w.reload(t, o, p)
	assert.Equal(t, payment.StatusPending, p.Status)

	async := completedEvent("evt_async", o, p, 8000)
	async.Type = payment.EventCheckoutAsyncSucceeded
	_, err = w.deliver(t, async)
	require.NoError(t, err)

	o, p = w.reload(t, o, p)
	assert.Equal(t, payment.StatusSucceeded, p.Status)
	assert.Equal(t, order.PaymentStatusPaid, o.PaymentStatus)
}

func TestWebhookService_SessionExpiredCancelsOrder(t *testing.T) {
	w := newWebhookFixture(t)
	o, p := w.placeCardOrder(t)
	require.Equal(t, 8, testutil.ProductStock(t, w.db, w.product))

	event := completedEvent("evt_exp", o, p, 0)
	event.Type = payment.EventCheckoutExpired
	_, err := w.deliver(t, event)
	require.NoError(t, err)

	o, p = w.reload(t, o, p)
	assert.Equal(t, payment.StatusCancelled, p.Status)
	assert.Equal(t, order.OrderStatusCancelled, o.Status)
	assert.Equal(t, 10, testutil.ProductStock(t, w.db, w.product))
}

func TestWebhookService_AsyncFailureMarksOrderFailed(t *testing.T) {
	w := newWebhookFixture(t)
	o, p := w.placeCardOrder(t)

	event := completedEvent("evt_fail", o, p, 8000)
	event.Type = payment.EventCheckoutAsyncFailed
	_, err := w.deliver(t, event)
	require.NoError(t, err)

	o, p = w.reload(t, o, p)
	assert.Equal(t, payment.StatusFailed, p.Status)
	assert.Equal(t, order.PaymentStatusFailed, o.PaymentStatus)
	assert.Equal(t, order.OrderStatusCancelled, o.Status)
}

func TestWebhookService_AsyncFailureAfterAdminCancelIsAcknowledged(t *testing.T) {
	w := newWebhookFixture(t)
	ctx := context.Background()
	o, p := w.placeCardOrder(t)
	_, err := w.settlement.CancelOrder(ctx, o.ID, "customer called")
	require.NoError(t, err)

	event := completedEvent("evt_late_fail", o, p, 8000)
	event.Type = payment.EventCheckoutAsyncFailed
	res, err := w.deliver(t, event)
	require.NoError(t, err)
	assert.True(t, res.Processed)

	processed, err := w.store.IsProcessed(ctx, "stripe:evt_late_fail")
	require.NoError(t, err)
	assert.True(t, processed, "acknowledged events are not retried")

	o, p = w.reload(t, o, p)
	assert.Equal(t, payment.StatusCancelled, p.Status)
	assert.Equal(t, order.OrderStatusCancelled, o.Status)
	assert.Equal(t, 10, testutil.ProductStock(t, w.db, w.product))
}

func TestWebhookService_FallsBackToOrderMetadata(t *testing.T) {
	w := newWebhookFixture(t)
	o, p := w.placeCardOrder(t)

	event := completedEvent("evt_meta", o, p, 8000)
	event.SessionID = "cs_unknown"
	_, err := w.deliver(t, event)
	require.NoError(t, err)

	_, p = w.reload(t, o, p)
	assert.Equal(t, payment.StatusSucceeded, p.Status)
}

func TestWebhookService_UnknownSessionIsIgnored(t *testing.T) {
	w := newWebhookFixture(t)

	res, err := w.deliver(t, &payment.WebhookEvent{
		ID:            "evt_stray",
		Type:          payment.EventCheckoutCompleted,
		SessionID:     "cs_stray",
		OrderID:       uuid.New(),
		PaymentStatus: payment.SessionPaymentPaid,
	})
	require.NoError(t, err)
	assert.True(t, res.Processed)
}

func TestWebhookService_ChargeRefunded(t *testing.T) {
	w := newWebhookFixture(t)
	o, p := w.placeCardOrder(t)
	_, err := w.settlement.ConfirmPayment(context.Background(), p.ID, "pi_paid")
	require.NoError(t, err)

	_, err = w.deliver(t, &payment.WebhookEvent{
		ID:              "evt_refund",
		Type:            payment.EventChargeRefunded,
		PaymentIntentID: "pi_paid",
	})
	require.NoError(t, err)

	o, p = w.reload(t, o, p)
	assert.Equal(t, payment.StatusRefunded, p.Status)
	assert.Equal(t, order.PaymentStatusRefunded, o.PaymentStatus)
	// Refunds issued from the provider dashboard leave fulfilment alone.
	assert.Equal(t, order.OrderStatusProcessing, o.Status)
}

func TestWebhookService_RefundForUncapturedPaymentIsAcknowledged(t *testing.T) {
	w := newWebhookFixture(t)
	ctx := context.Background()
	o, p := w.placeCardOrder(t)
	p.ProviderPaymentID = "pi_uncaptured"
	require.NoError(t, w.payments.SaveWithLock(ctx, p))
	_, err := w.settlement.CancelOrder(ctx, o.ID, "customer called")
	require.NoError(t, err)

	res, err := w.deliver(t, &payment.WebhookEvent{
		ID:              "evt_refund_cancelled",
		Type:            payment.EventChargeRefunded,
		PaymentIntentID: "pi_uncaptured",
	})
	require.NoError(t, err)
	assert.True(t, res.Processed)

	o, p = w.reload(t, o, p)
	assert.Equal(t, payment.StatusCancelled, p.Status)
	assert.Equal(t, order.PaymentStatusUnpaid, o.PaymentStatus)
}

func TestWebhookService_UnhandledEventType(t *testing.T) {
	w := newWebhookFixture(t)

	res, err := w.deliver(t, &payment.WebhookEvent{ID: "evt_other", Type: "customer.created"})
	require.NoError(t, err)
	assert.False(t, res.Processed)
	assert.Equal(t, "Event type not handled", res.Message)
}

func TestWebhookService_InvalidSignature(t *testing.T) {
	w := newWebhookFixture(t)
	w.provider.On("ParseWebhook", mock.Anything, "bad").Return(nil, payment.ErrInvalidSignature)

	_, err := w.service.Handle(context.Background(), []byte(`{}`), "bad")
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)
}

func TestWebhookService_NotConfigured(t *testing.T) {
	svc := apppayment.NewWebhookService(apppayment.WebhookServiceConfig{})

	_, err := svc.Handle(context.Background(), []byte(`{}`), "sig")
	assert.ErrorIs(t, err, payment.ErrProviderNotConfigured)
}

func TestWebhookService_FailureReleasesEvent(t *testing.T) {
	w := newWebhookFixture(t)
	o, p := w.placeCardOrder(t)

	// Break the payments table so settlement fails.
	require.NoError(t, w.db.Exec("DROP TABLE payments").Error)

	_, err := w.deliver(t, completedEvent("evt_retry", o, p, 8000))
	require.Error(t, err)

	processed, err := w.store.IsProcessed(context.Background(), "stripe:evt_retry")
	require.NoError(t, err)
	assert.False(t, processed, "failed events can be retried")
}
