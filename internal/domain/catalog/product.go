package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// IsValid checks if the status is a known value
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive, ProductStatusArchived:
		return true
	}
	return false
}

// MaxProductImages bounds the image gallery of a product
const MaxProductImages = 12

// Product is a sellable item of the storefront catalog.
// Prices are held in the base currency and converted at read time.
type Product struct {
	shared.BaseAggregateRoot
	Name           string
	Slug           string
	Description    string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Stock          int
	CategoryID     *uuid.UUID
	Images         []string
	Featured       bool
	Status         ProductStatus
}

// NewProduct creates a draft product. An empty slug is derived from the name.
func NewProduct(name, slug string, price decimal.Decimal) (*Product, error) {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if slug == "" {
		slug = Slugify(name)
	}
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Price:             price,
		Images:            []string{},
		Status:            ProductStatusDraft,
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Update changes the descriptive fields of the product
func (p *Product) Update(name, slug, description string, categoryID *uuid.UUID, featured bool) error {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return err
	}
	if err := ValidateSlug(slug); err != nil {
		return err
	}

	p.Name = name
	p.Slug = slug
	p.Description = description
	p.CategoryID = categoryID
	p.Featured = featured
	p.touch()
	return nil
}

// SetPrice sets the price and optional compare-at price
func (p *Product) SetPrice(price decimal.Decimal, compareAt *decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	if compareAt != nil && !compareAt.GreaterThan(price) {
		return shared.NewDomainError("INVALID_PRICE", "Compare-at price must be greater than price")
	}

	oldPrice := p.Price
	p.Price = price
	p.CompareAtPrice = compareAt
	p.touch()

	if !oldPrice.Equal(price) {
		p.AddDomainEvent(NewProductPriceChangedEvent(p, oldPrice))
	}
	return nil
}

// SetImages replaces the ordered list of image storage keys
func (p *Product) SetImages(keys []string) error {
	if len(keys) > MaxProductImages {
		return shared.NewDomainError("TOO_MANY_IMAGES", "A product cannot have more than 12 images")
	}
	images := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		images = append(images, k)
	}
	if len(images) == 0 && p.Status == ProductStatusActive {
		return shared.NewDomainError("IMAGE_REQUIRED", "An active product must keep at least one image")
	}
	p.Images = images
	p.touch()
	return nil
}

// Publish makes the product visible on the storefront
func (p *Product) Publish() error {
	if p.Status == ProductStatusActive {
		return nil
	}
	if len(p.Images) == 0 {
		return shared.NewDomainError("IMAGE_REQUIRED", "A product needs at least one image before publishing")
	}
	old := p.Status
	p.Status = ProductStatusActive
	p.touch()
	p.AddDomainEvent(NewProductStatusChangedEvent(p, old, p.Status))
	return nil
}

// Archive hides the product from the storefront
func (p *Product) Archive() error {
	if p.Status == ProductStatusArchived {
		return nil
	}
	old := p.Status
	p.Status = ProductStatusArchived
	p.Featured = false
	p.touch()
	p.AddDomainEvent(NewProductStatusChangedEvent(p, old, p.Status))
	return nil
}

// AdjustStock changes the stock level by delta, never below zero
func (p *Product) AdjustStock(delta int) error {
	if p.Stock+delta < 0 {
		return shared.ErrInsufficientStock
	}
	p.Stock += delta
	p.touch()
	return nil
}

// IsPurchasable returns true if the product can be added to a cart
func (p *Product) IsPurchasable() bool {
	return p.Status == ProductStatusActive && p.Stock > 0
}

// HasStock returns true if quantity units are available
func (p *Product) HasStock(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}

// OnSale returns true if a compare-at price is shown
func (p *Product) OnSale() bool {
	return p.CompareAtPrice != nil && p.CompareAtPrice.GreaterThan(p.Price)
}

// PrimaryImage returns the first image key, if any
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be greater than zero")
	}
	return nil
}
