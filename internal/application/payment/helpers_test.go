package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	apppayment "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fixture wires the settlement against an in-memory database
type fixture struct {
	db         *gorm.DB
	publisher  *testutil.RecordingPublisher
	settlement *apppayment.Settlement
	orders     *persistence.GormOrderRepository
	payments   *persistence.GormPaymentRepository
	carts      *persistence.GormCartRepository
	product    *catalog.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	publisher := testutil.NewRecordingPublisher()
	return &fixture{
		db:         db,
		publisher:  publisher,
		settlement: apppayment.NewSettlement(persistence.NewGormTransactionScope(db), publisher, zap.NewNop()),
		orders:     persistence.NewGormOrderRepository(db),
		payments:   persistence.NewGormPaymentRepository(db),
		carts:      persistence.NewGormCartRepository(db),
		product:    testutil.SeedProduct(t, db, "Linen Shirt", "40.00", 10),
	}
}

// placeCardOrder stores a PENDING card order for 2 shirts with its pending payment and an attached session.
// Stock is taken as checkout would.
func (f *fixture) placeCardOrder(t *testing.T) (*order.Order, *payment.Payment) {
	t.Helper()
	ctx := context.Background()

	token, err := cart.NewSessionToken()
	require.NoError(t, err)
	c, err := cart.NewCart(token)
	require.NoError(t, err)
	require.NoError(t, c.AddItem(f.product.ID, 2, 10))
	require.NoError(t, f.carts.Save(ctx, c))

	o := f.newOrder(t, order.PaymentMethodCard, &c.ID)
	require.NoError(t, persistence.NewGormProductRepository(f.db).DecrementStock(ctx, f.product.ID, 2))
	require.NoError(t, f.orders.Create(ctx, o))

	p, err := payment.NewCardPayment(o.ID, o.TotalMoney(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, p.AttachSession("cs_test_"+o.OrderNumber))
	require.NoError(t, f.payments.Create(ctx, p))
	return o, p
}

// placeCODOrder stores a PROCESSING cash on delivery order for 1 shirt.
func (f *fixture) placeCODOrder(t *testing.T) (*order.Order, *payment.Payment) {
	t.Helper()
	ctx := context.Background()

	o := f.newOrder(t, order.PaymentMethodCashOnDelivery, nil)
	require.NoError(t, o.ConfirmCashOnDelivery())
	o.ClearDomainEvents()
	require.NoError(t, persistence.NewGormProductRepository(f.db).DecrementStock(ctx, f.product.ID, o.Items[0].Quantity))
	require.NoError(t, f.orders.Create(ctx, o))

	p, err := payment.NewCashOnDeliveryPayment(o.ID, o.TotalMoney())
	require.NoError(t, err)
	require.NoError(t, f.payments.Create(ctx, p))
	return o, p
}

func (f *fixture) newOrder(t *testing.T, method order.PaymentMethod, cartID *uuid.UUID) *order.Order {
	t.Helper()

	qty := 2
	if method == order.PaymentMethodCashOnDelivery {
		qty = 1
	}
	price, err := valueobject.NewMoneyFromString("40.00", valueobject.USD)
	require.NoError(t, err)
	item, err := order.NewOrderItem(f.product.ID, f.product.Name, f.product.Slug, f.product.PrimaryImage(), price, qty)
	require.NoError(t, err)
	number, err := order.GenerateOrderNumber(time.Now())
	require.NoError(t, err)

	o, err := order.NewOrder(order.PlaceOrderParams{
		OrderNumber:     number,
		Email:           "Ada@Example.com",
		ShippingAddress: testutil.TestAddress("GB"),
		Items:           []order.OrderItem{item},
		Currency:        valueobject.USD,
		ExchangeRate:    decimal.NewFromInt(1),
		ShippingFee:     valueobject.Zero(valueobject.USD),
		PaymentMethod:   method,
		CartID:          cartID,
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) reload(t *testing.T, o *order.Order, p *payment.Payment) (*order.Order, *payment.Payment) {
	t.Helper()
	ctx := context.Background()
	ro, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	rp, err := f.payments.FindByID(ctx, p.ID)
	require.NoError(t, err)
	return ro, rp
}
