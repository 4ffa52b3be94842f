package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress() valueobject.Address {
	return valueobject.Address{
		Name:    "Grace Hopper",
		Line1:   "1 Navy Way",
		City:    "Arlington",
		Country: "US",
		Phone:   "+1 555 0100",
	}
}

func newTestOrder(t *testing.T, method PaymentMethod) *Order {
	t.Helper()
	price, err := valueobject.NewMoneyFromString("12.50", valueobject.EUR)
	require.NoError(t, err)
	item, err := NewOrderItem(uuid.New(), "Ceramic Mug", "ceramic-mug", "products/mug.jpg", price, 2)
	require.NoError(t, err)
	fee, err := valueobject.NewMoneyFromString("4.99", valueobject.EUR)
	require.NoError(t, err)

	o, err := NewOrder(PlaceOrderParams{
		OrderNumber:     "ORD-20240102-ABCDEF",
		Email:           "  Grace@Example.com ",
		ShippingAddress: testAddress(),
		Items:           []OrderItem{item},
		Currency:        valueobject.EUR,
		ExchangeRate:    decimal.RequireFromString("0.92"),
		ShippingFee:     fee,
		PaymentMethod:   method,
	})
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("computes totals and initial state", func(t *testing.T) {
		o := newTestOrder(t, PaymentMethodCard)
		assert.Equal(t, "grace@example.com", o.Email)
		assert.Equal(t, "25.00", o.Subtotal.StringFixed(2))
		assert.Equal(t, "29.99", o.Total.StringFixed(2))
		assert.Equal(t, OrderStatusPending, o.Status)
		assert.Equal(t, PaymentStatusUnpaid, o.PaymentStatus)
		assert.Equal(t, 2, o.ItemCount())
		assert.Equal(t, int64(2999), o.TotalMoney().MinorUnits())
	})

	t.Run("rejects empty cart", func(t *testing.T) {
		_, err := NewOrder(PlaceOrderParams{
			OrderNumber:     "ORD-20240102-ABCDEF",
			Email:           "a@b.co",
			ShippingAddress: testAddress(),
			Currency:        valueobject.USD,
			ExchangeRate:    decimal.NewFromInt(1),
			ShippingFee:     valueobject.Zero(valueobject.USD),
			PaymentMethod:   PaymentMethodCard,
		})
		assert.ErrorIs(t, err, shared.ErrEmptyCart)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := NewOrder(PlaceOrderParams{
			OrderNumber:   "ORD-20240102-ABCDEF",
			Email:         "Grace <grace@example.com>",
			PaymentMethod: PaymentMethodCard,
		})
		require.Error(t, err)
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "INVALID_EMAIL", de.Code)
	})

	t.Run("rejects shipping fee in another currency", func(t *testing.T) {
		price, _ := valueobject.NewMoneyFromInt(10, valueobject.USD)
		item, err := NewOrderItem(uuid.New(), "Mug", "mug", "", price, 1)
		require.NoError(t, err)
		_, err = NewOrder(PlaceOrderParams{
			OrderNumber:     "ORD-20240102-ABCDEF",
			Email:           "a@b.co",
			ShippingAddress: testAddress(),
			Items:           []OrderItem{item},
			Currency:        valueobject.USD,
			ExchangeRate:    decimal.NewFromInt(1),
			ShippingFee:     valueobject.Zero(valueobject.GBP),
			PaymentMethod:   PaymentMethodCard,
		})
		require.Error(t, err)
	})
}

func TestOrder_CardLifecycle(t *testing.T) {
	o := newTestOrder(t, PaymentMethodCard)

	err := o.Ship("TRK1")
	require.Error(t, err, "cannot ship a pending order")

	changed, err := o.MarkPaid(time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, OrderStatusProcessing, o.Status)
	assert.Equal(t, PaymentStatusPaid, o.PaymentStatus)
	require.NotNil(t, o.PaidAt)

	changed, err = o.MarkPaid(time.Now())
	require.NoError(t, err)
	assert.False(t, changed, "second success is a no-op")

	require.NoError(t, o.Ship(" TRK1 "))
	assert.Equal(t, "TRK1", o.TrackingNumber)
	require.Error(t, o.Cancel("too late"))

	require.NoError(t, o.Deliver())
	assert.Equal(t, OrderStatusDelivered, o.Status)
	assert.True(t, o.CanRefund())

	changed, err = o.MarkRefunded()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, PaymentStatusRefunded, o.PaymentStatus)

	types := make([]string, 0)
	for _, e := range o.GetDomainEvents() {
		types = append(types, e.EventType())
	}
	assert.Equal(t, []string{EventTypeOrderPaid, EventTypeOrderShipped, EventTypeOrderDelivered, EventTypeOrderRefunded}, types)
}

func TestOrder_CashOnDelivery(t *testing.T) {
	o := newTestOrder(t, PaymentMethodCashOnDelivery)
	require.NoError(t, o.ConfirmCashOnDelivery())
	assert.Equal(t, OrderStatusProcessing, o.Status)
	assert.Equal(t, PaymentStatusUnpaid, o.PaymentStatus)

	require.NoError(t, o.Ship(""), "COD orders ship unpaid")
	require.NoError(t, o.Deliver())

	_, err := o.MarkPaid(time.Now())
	require.NoError(t, err)
	assert.Equal(t, OrderStatusDelivered, o.Status)
	assert.False(t, o.CanRefund())

	card := newTestOrder(t, PaymentMethodCard)
	assert.Error(t, card.ConfirmCashOnDelivery())
}

func TestOrder_Cancel(t *testing.T) {
	o := newTestOrder(t, PaymentMethodCard)
	require.Error(t, o.Cancel("  "))
	require.NoError(t, o.Cancel("checkout session expired"))
	assert.Equal(t, OrderStatusCancelled, o.Status)
	require.NotNil(t, o.CancelledAt)

	snap := o.GetDomainEvents()[0].(Event).OrderSnapshot()
	assert.Equal(t, "checkout session expired", snap.CancelReason)
	assert.Equal(t, OrderStatusCancelled, snap.Status)
}

func TestOrder_LateSuccessOnCancelledOrder(t *testing.T) {
	o := newTestOrder(t, PaymentMethodCard)
	require.NoError(t, o.MarkPaymentFailed())
	require.NoError(t, o.Cancel("payment failed"))

	changed, err := o.MarkPaid(time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.Equal(t, PaymentStatusPaid, o.PaymentStatus)
	assert.True(t, o.RefundRequired)

	_, err = o.MarkRefunded()
	require.NoError(t, err)
	assert.False(t, o.RefundRequired)
}

func TestOrder_MarkRefundedRequiresPayment(t *testing.T) {
	o := newTestOrder(t, PaymentMethodCard)
	_, err := o.MarkRefunded()
	assert.Error(t, err)
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusProcessing))
	assert.True(t, OrderStatusProcessing.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusShipped.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusDelivered.CanTransitionTo(OrderStatusShipped))
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, PaymentStatusFailed.CanTransitionTo(PaymentStatusPaid))
	assert.False(t, PaymentStatusRefunded.CanTransitionTo(PaymentStatusPaid))
}

func TestGenerateOrderNumber(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	n, err := GenerateOrderNumber(now)
	require.NoError(t, err)
	assert.True(t, IsValidOrderNumber(n), n)
	assert.Contains(t, n, "ORD-20240309-")

	other, err := GenerateOrderNumber(now)
	require.NoError(t, err)
	assert.NotEqual(t, n, other)
	assert.False(t, IsValidOrderNumber("ORD-2024-XYZ"))
}
