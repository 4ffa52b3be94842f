package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SeedProduct stores an ACTIVE product with one image, priced in the base currency.
func SeedProduct(t *testing.T, db *gorm.DB, name, price string, stock int) *catalog.Product {
	t.Helper()

	p, err := catalog.NewProduct(name, "", decimal.RequireFromString(price))
	require.NoError(t, err)
	require.NoError(t, p.SetImages([]string{"products/" + p.Slug + ".jpg"}))
	require.NoError(t, p.Publish())
	p.Stock = stock
	p.ClearDomainEvents()

	require.NoError(t, persistence.NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

// ProductStock reads the current stock of a product.
func ProductStock(t *testing.T, db *gorm.DB, p *catalog.Product) int {
	t.Helper()

	stored, err := persistence.NewGormProductRepository(db).FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	return stored.Stock
}

// TestAddress returns a valid shipping address in the given country.
func TestAddress(country string) valueobject.Address {
	return valueobject.Address{
		Name:       "Ada Lovelace",
		Line1:      "12 Analytical Row",
		City:       "London",
		PostalCode: "N1 9GU",
		Country:    country,
		Phone:      "+44 20 7946 0000",
	}
}

// SeedOrder stores a placed order of qty units of p, taking the stock as checkout would.
// Card orders are PENDING with an open session "cs_test_<number>"; cash on delivery orders are PROCESSING.
func SeedOrder(t *testing.T, db *gorm.DB, p *catalog.Product, method order.PaymentMethod, qty int) (*order.Order, *payment.Payment) {
	t.Helper()
	ctx := context.Background()

	price, err := valueobject.NewMoney(p.Price, valueobject.USD)
	require.NoError(t, err)
	item, err := order.NewOrderItem(p.ID, p.Name, p.Slug, p.PrimaryImage(), price, qty)
	require.NoError(t, err)
	number, err := order.GenerateOrderNumber(time.Now())
	require.NoError(t, err)
	o, err := order.NewOrder(order.PlaceOrderParams{
		OrderNumber:     number,
		Email:           "ada@example.com",
		ShippingAddress: TestAddress("GB"),
		Items:           []order.OrderItem{item},
		Currency:        valueobject.USD,
		ExchangeRate:    decimal.NewFromInt(1),
		ShippingFee:     valueobject.Zero(valueobject.USD),
		PaymentMethod:   method,
	})
	require.NoError(t, err)

	var pay *payment.Payment
	if method == order.PaymentMethodCashOnDelivery {
		require.NoError(t, o.ConfirmCashOnDelivery())
		pay, err = payment.NewCashOnDeliveryPayment(o.ID, o.TotalMoney())
		require.NoError(t, err)
	} else {
		pay, err = payment.NewCardPayment(o.ID, o.TotalMoney(), time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, pay.AttachSession("cs_test_"+o.OrderNumber))
	}
	o.ClearDomainEvents()

	require.NoError(t, persistence.NewGormProductRepository(db).DecrementStock(ctx, p.ID, qty))
	require.NoError(t, persistence.NewGormOrderRepository(db).Create(ctx, o))
	require.NoError(t, persistence.NewGormPaymentRepository(db).Create(ctx, pay))
	return o, pay
}
