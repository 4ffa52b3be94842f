package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
)

// CartModel is the persistence model for the Cart aggregate
type CartModel struct {
	AggregateModel
	SessionToken string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Items        []CartItemModel `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// CartItemModel is one product line of a cart
type CartItemModel struct {
	CartID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Quantity  int       `gorm:"not null"`
	AddedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the persistence model to a domain Cart
func (m *CartModel) ToDomain() *cart.Cart {
	items := make([]cart.CartItem, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, cart.CartItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			AddedAt:   it.AddedAt,
		})
	}
	return &cart.Cart{
		BaseAggregateRoot: m.ToAggregateRoot(),
		SessionToken:      m.SessionToken,
		Items:             items,
	}
}

// FromDomain populates the persistence model from a domain Cart
func (m *CartModel) FromDomain(c *cart.Cart) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.SessionToken = c.SessionToken
	m.Items = make([]CartItemModel, 0, len(c.Items))
	for _, it := range c.Items {
		m.Items = append(m.Items, CartItemModel{
			CartID:    c.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			AddedAt:   it.AddedAt,
		})
	}
}

// CartModelFromDomain creates a new persistence model from a domain Cart
func CartModelFromDomain(c *cart.Cart) *CartModel {
	m := &CartModel{}
	m.FromDomain(c)
	return m
}
