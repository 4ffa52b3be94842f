package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/currency"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Reasons a cart line is excluded from totals
const (
	UnavailableRemoved    = "removed"
	UnavailableNotForSale = "not_for_sale"
	UnavailableOutOfStock = "insufficient_stock"
)

// QuoteLine is one priced cart line
type QuoteLine struct {
	ProductID   uuid.UUID
	Product     *catalog.Product // nil when the product no longer exists
	Quantity    int
	UnitPrice   valueobject.Money
	LineTotal   valueobject.Money
	Available   bool
	Unavailable string
}

// Quote prices a cart in one currency from live product prices
type Quote struct {
	Currency     valueobject.Currency
	Rate         decimal.Decimal // units of Currency per base unit
	Lines        []QuoteLine
	Subtotal     valueobject.Money
	ShippingFee  valueobject.Money
	Total        valueobject.Money
	BaseSubtotal decimal.Decimal
	ItemCount    int
}

// HasUnavailable returns true if any line cannot be bought as is
func (q *Quote) HasUnavailable() bool {
	for _, l := range q.Lines {
		if !l.Available {
			return true
		}
	}
	return false
}

// PriceCart prices every line of c in target. Unit prices are converted then rounded
// to the minor unit before multiplying, so line totals match what the shopper sees.
// Lines that cannot be bought are flagged and left out of the totals.
func PriceCart(c *cart.Cart, products map[uuid.UUID]*catalog.Product, conv *currency.Converter, target valueobject.Currency, shipping ShippingPolicy) (*Quote, error) {
	rate, err := conv.Rate(target)
	if err != nil {
		return nil, err
	}
	q := &Quote{
		Currency:     target,
		Rate:         rate,
		Lines:        make([]QuoteLine, 0, len(c.Items)),
		Subtotal:     valueobject.Zero(target),
		BaseSubtotal: decimal.Zero,
	}

	for _, item := range c.Items {
		line := QuoteLine{ProductID: item.ProductID, Quantity: item.Quantity}
		p := products[item.ProductID]
		line.Product = p
		switch {
		case p == nil:
			line.Unavailable = UnavailableRemoved
		case !p.IsPurchasable():
			line.Unavailable = UnavailableNotForSale
		case !p.HasStock(item.Quantity):
			line.Unavailable = UnavailableOutOfStock
		default:
			line.Available = true
		}
		if p != nil {
			unit, err := conv.FromBase(p.Price, target)
			if err != nil {
				return nil, err
			}
			line.UnitPrice = unit
			line.LineTotal = unit.MultiplyByInt(int64(item.Quantity))
		} else {
			line.UnitPrice = valueobject.Zero(target)
			line.LineTotal = valueobject.Zero(target)
		}
		if line.Available {
			q.Subtotal = q.Subtotal.MustAdd(line.LineTotal)
			q.BaseSubtotal = q.BaseSubtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			q.ItemCount += item.Quantity
		}
		q.Lines = append(q.Lines, line)
	}

	fee, err := conv.FromBase(shipping.Fee(q.BaseSubtotal), target)
	if err != nil {
		return nil, err
	}
	q.ShippingFee = fee
	q.Total = q.Subtotal.MustAdd(fee)
	return q, nil
}

// IndexProducts keys products by ID
func IndexProducts(products []catalog.Product) map[uuid.UUID]*catalog.Product {
	out := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out
}
