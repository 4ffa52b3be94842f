package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	AggregateModel
	OrderNumber     string              `gorm:"type:varchar(32);not null;uniqueIndex"`
	Email           string              `gorm:"type:varchar(254);not null;index"`
	ShippingAddress valueobject.Address `gorm:"type:jsonb;not null"`
	Currency        string              `gorm:"type:varchar(3);not null"`
	ExchangeRate    decimal.Decimal     `gorm:"type:decimal(20,8);not null"`
	Subtotal        decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	ShippingFee     decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Total           decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	PaymentMethod   order.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaymentStatus   order.PaymentStatus `gorm:"type:varchar(20);not null;index"`
	Status          order.OrderStatus   `gorm:"type:varchar(20);not null;index"`
	CartID          *uuid.UUID          `gorm:"type:uuid"`
	Notes           string              `gorm:"type:text"`
	TrackingNumber  string              `gorm:"type:varchar(100)"`
	CancelReason    string              `gorm:"type:varchar(500)"`
	RefundRequired  bool                `gorm:"not null;default:false"`
	PaidAt          *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	RefundedAt      *time.Time
	Items           []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is the persistence model for an order line snapshot
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo      int             `gorm:"not null;default:0"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	ProductSlug string          `gorm:"type:varchar(200);not null"`
	ImageKey    string          `gorm:"type:varchar(500)"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity    int             `gorm:"not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	items := make([]order.OrderItem, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, order.OrderItem{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductSlug: it.ProductSlug,
			ImageKey:    it.ImageKey,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}
	return &order.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		Email:             m.Email,
		ShippingAddress:   m.ShippingAddress,
		Items:             items,
		Currency:          valueobject.Currency(m.Currency),
		ExchangeRate:      m.ExchangeRate,
		Subtotal:          m.Subtotal,
		ShippingFee:       m.ShippingFee,
		Total:             m.Total,
		PaymentMethod:     m.PaymentMethod,
		PaymentStatus:     m.PaymentStatus,
		Status:            m.Status,
		CartID:            m.CartID,
		Notes:             m.Notes,
		TrackingNumber:    m.TrackingNumber,
		CancelReason:      m.CancelReason,
		RefundRequired:    m.RefundRequired,
		PaidAt:            m.PaidAt,
		ShippedAt:         m.ShippedAt,
		DeliveredAt:       m.DeliveredAt,
		CancelledAt:       m.CancelledAt,
		RefundedAt:        m.RefundedAt,
	}
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.Email = o.Email
	m.ShippingAddress = o.ShippingAddress
	m.Currency = o.Currency.String()
	m.ExchangeRate = o.ExchangeRate
	m.Subtotal = o.Subtotal
	m.ShippingFee = o.ShippingFee
	m.Total = o.Total
	m.PaymentMethod = o.PaymentMethod
	m.PaymentStatus = o.PaymentStatus
	m.Status = o.Status
	m.CartID = o.CartID
	m.Notes = o.Notes
	m.TrackingNumber = o.TrackingNumber
	m.CancelReason = o.CancelReason
	m.RefundRequired = o.RefundRequired
	m.PaidAt = o.PaidAt
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.RefundedAt = o.RefundedAt
	m.Items = make([]OrderItemModel, 0, len(o.Items))
	for i, it := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			ID:          it.ID,
			OrderID:     o.ID,
			LineNo:      i,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductSlug: it.ProductSlug,
			ImageKey:    it.ImageKey,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
