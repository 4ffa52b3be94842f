package order_test

import (
	"context"
	"errors"
	"testing"

	apporder "github.com/storefront/backend/internal/application/order"
	apppayment "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockInvoices struct {
	mock.Mock
}

func (m *MockInvoices) RenderInvoice(ctx context.Context, o *order.Order) ([]byte, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type fixture struct {
	db         *gorm.DB
	publisher  *testutil.RecordingPublisher
	provider   *testutil.MockPaymentProvider
	invoices   *MockInvoices
	settlement *apppayment.Settlement
	service    *apporder.Service
	product    *catalog.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	publisher := testutil.NewRecordingPublisher()
	settlement := apppayment.NewSettlement(persistence.NewGormTransactionScope(db), publisher, nil)
	provider := new(testutil.MockPaymentProvider)
	invoices := new(MockInvoices)
	return &fixture{
		db:         db,
		publisher:  publisher,
		provider:   provider,
		invoices:   invoices,
		settlement: settlement,
		service: apporder.NewService(apporder.ServiceConfig{
			Orders:     persistence.NewGormOrderRepository(db),
			Payments:   persistence.NewGormPaymentRepository(db),
			Settlement: settlement,
			Provider:   provider,
			Invoices:   invoices,
			Publisher:  publisher,
		}),
		product: testutil.SeedProduct(t, db, "Linen Shirt", "40.00", 10),
	}
}

func (f *fixture) paidCardOrder(t *testing.T) (*order.Order, *payment.Payment) {
	t.Helper()
	o, p := testutil.SeedOrder(t, f.db, f.product, order.PaymentMethodCard, 2)
	_, err := f.settlement.ConfirmPayment(context.Background(), p.ID, "pi_paid")
	require.NoError(t, err)
	f.publisher.Reset()
	return o, p
}

func TestOrderService_ListAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cod, _ := testutil.SeedOrder(t, f.db, f.product, order.PaymentMethodCashOnDelivery, 1)
	card, _ := testutil.SeedOrder(t, f.db, f.product, order.PaymentMethodCard, 1)

	page, err := f.service.List(ctx, apporder.ListOrdersRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = f.service.List(ctx, apporder.ListOrdersRequest{PaymentMethod: "CASH_ON_DELIVERY"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, cod.OrderNumber, page.Items[0].OrderNumber)

	page, err = f.service.List(ctx, apporder.ListOrdersRequest{Search: card.OrderNumber[len(card.OrderNumber)-6:]})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, card.OrderNumber, page.Items[0].OrderNumber)

	got, err := f.service.Get(ctx, card.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Payment)
	assert.Equal(t, "PENDING", got.Payment.Status)
	assert.Equal(t, "40.00", got.Total)
	require.Len(t, got.Items, 1)
}

func TestOrderService_Lookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, _ := testutil.SeedOrder(t, f.db, f.product, order.PaymentMethodCashOnDelivery, 1)

	got, err := f.service.Lookup(ctx, apporder.LookupOrderRequest{OrderNumber: o.OrderNumber, Email: "ADA@example.com"})
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = f.service.Lookup(ctx, apporder.LookupOrderRequest{OrderNumber: o.OrderNumber, Email: "eve@example.com"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.service.Lookup(ctx, apporder.LookupOrderRequest{OrderNumber: "nonsense", Email: "ada@example.com"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOrderService_ShipAndDeliverCOD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, _ := testutil.SeedOrder(t, f.db, f.product, order.PaymentMethodCashOnDelivery, 1)

	shipped, err := f.service.Ship(ctx, o.ID, apporder.ShipOrderRequest{TrackingNumber: " TRK-1 "})
	require.NoError(t, err)
	assert.Equal(t, "SHIPPED", shipped.Status)
	assert.Equal(t, "TRK-1", shipped.TrackingNumber)
	assert.Equal(t, []string{order.EventTypeOrderShipped}, f.publisher.Types())

	delivered, err := f.service.Deliver(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", delivered.Status)
	assert.Equal(t, "PAID", delivered.PaymentStatus)
	assert.Equal(t, "SUCCEEDED", delivered.Payment.Status)
}

func TestOrderService_ShipUnpaidCardOrder(t *testing.T) {
	f := newFixture(t)
	o, _ := testutil.SeedOrder(t, f.db, f.product, order.PaymentMethodCard, 1)

	_, err := f.service.Ship(context.Background(), o.ID, apporder.ShipOrderRequest{})
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_STATE", de.Code)
}

func TestOrderService_Cancel(t *testing.T) {
	f := newFixture(t)
	o, _ := testutil.SeedOrder(t, f.db, f.product, order.PaymentMethodCashOnDelivery, 3)
	require.Equal(t, 7, testutil.ProductStock(t, f.db, f.product))

	got, err := f.service.Cancel(context.Background(), o.ID, apporder.CancelOrderRequest{Reason: "customer request"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", got.Status)
	assert.Equal(t, "CANCELLED", got.Payment.Status)
	assert.Equal(t, 10, testutil.ProductStock(t, f.db, f.product))
}

func TestOrderService_Refund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, p := f.paidCardOrder(t)

	f.provider.On("Refund", mock.Anything, "pi_paid", mock.MatchedBy(func(m valueobject.Money) bool {
		return m.MinorUnits() == 8000 && m.Currency() == valueobject.USD
	}), "refund:"+p.ID.String()).Return(&payment.RefundResult{ID: "re_1", Status: "succeeded", Amount: 8000}, nil).Once()

	got, err := f.service.Refund(ctx, o.ID, apporder.RefundOrderRequest{Reason: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, "REFUNDED", got.PaymentStatus)
	assert.Equal(t, "CANCELLED", got.Status, "unshipped orders are cancelled on refund")
	assert.Equal(t, "REFUNDED", got.Payment.Status)
	assert.Equal(t, 10, testutil.ProductStock(t, f.db, f.product))
	f.provider.AssertExpectations(t)

	_, err = f.service.Refund(ctx, o.ID, apporder.RefundOrderRequest{})
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "REFUND_NOT_ALLOWED", de.Code)
}

func TestOrderService_RefundShippedOrderKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, _ := f.paidCardOrder(t)
	_, err := f.service.Ship(ctx, o.ID, apporder.ShipOrderRequest{TrackingNumber: "TRK"})
	require.NoError(t, err)

	f.provider.On("Refund", mock.Anything, "pi_paid", mock.Anything, mock.Anything).
		Return(&payment.RefundResult{ID: "re_2", Status: "succeeded"}, nil).Once()

	got, err := f.service.Refund(ctx, o.ID, apporder.RefundOrderRequest{})
	require.NoError(t, err)
	assert.Equal(t, "SHIPPED", got.Status)
	assert.Equal(t, "REFUNDED", got.PaymentStatus)
	assert.Equal(t, 8, testutil.ProductStock(t, f.db, f.product))
}

func TestOrderService_RefundProviderFailure(t *testing.T) {
	f := newFixture(t)
	o, _ := f.paidCardOrder(t)
	f.provider.On("Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("card_declined")).Once()

	_, err := f.service.Refund(context.Background(), o.ID, apporder.RefundOrderRequest{})
	assert.ErrorIs(t, err, shared.ErrPaymentProvider)

	got, err := f.service.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAID", got.PaymentStatus)
}

func TestOrderService_Invoice(t *testing.T) {
	f := newFixture(t)
	o, _ := testutil.SeedOrder(t, f.db, f.product, order.PaymentMethodCashOnDelivery, 1)
	f.invoices.On("RenderInvoice", mock.Anything, mock.MatchedBy(func(x *order.Order) bool {
		return x.ID == o.ID
	})).Return([]byte("%PDF-1.4"), nil)

	pdf, name, err := f.service.Invoice(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
	assert.Equal(t, "invoice-"+o.OrderNumber+".pdf", name)
}
