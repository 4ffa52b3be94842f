package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	AggregateModel
	Name           string                `gorm:"type:varchar(200);not null"`
	Slug           string                `gorm:"type:varchar(200);not null;uniqueIndex"`
	Description    string                `gorm:"type:text"`
	Price          decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	CompareAtPrice *decimal.Decimal      `gorm:"type:decimal(18,4)"`
	Stock          int                   `gorm:"not null;default:0"`
	CategoryID     *uuid.UUID            `gorm:"type:uuid;index"`
	Images         StringArray           `gorm:"not null"`
	Featured       bool                  `gorm:"not null;default:false"`
	Status         catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	images := make([]string, len(m.Images))
	copy(images, m.Images)
	return &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		Price:             m.Price,
		CompareAtPrice:    m.CompareAtPrice,
		Stock:             m.Stock,
		CategoryID:        m.CategoryID,
		Images:            images,
		Featured:          m.Featured,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Slug = p.Slug
	m.Description = p.Description
	m.Price = p.Price
	m.CompareAtPrice = p.CompareAtPrice
	m.Stock = p.Stock
	m.CategoryID = p.CategoryID
	m.Images = StringArray(append([]string{}, p.Images...))
	m.Featured = p.Featured
	m.Status = p.Status
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// CategoryModel is the persistence model for the Category domain entity.
type CategoryModel struct {
	AggregateModel
	Name        string `gorm:"type:varchar(100);not null"`
	Slug        string `gorm:"type:varchar(120);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	SortOrder   int    `gorm:"not null;default:0"`
	Active      bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		SortOrder:         m.SortOrder,
		Active:            m.Active,
	}
}

// FromDomain populates the persistence model from a domain Category entity.
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Slug = c.Slug
	m.Description = c.Description
	m.SortOrder = c.SortOrder
	m.Active = c.Active
}

// CategoryModelFromDomain creates a new persistence model from a domain Category entity.
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{}
	m.FromDomain(c)
	return m
}
