package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appcurrency "github.com/storefront/backend/internal/application/currency"
	"github.com/storefront/backend/internal/domain/catalog"
)

// ImageURLFunc resolves a storage key to a public URL
type ImageURLFunc func(key string) string

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name           string           `json:"name" binding:"required,min=1,max=200"`
	Slug           string           `json:"slug" binding:"omitempty,slug"`
	Description    string           `json:"description" binding:"max=10000"`
	Price          decimal.Decimal  `json:"price" binding:"required"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Stock          int              `json:"stock" binding:"min=0"`
	CategoryID     *uuid.UUID       `json:"category_id"`
	Images         []string         `json:"images" binding:"max=12,dive,max=500"`
	Featured       bool             `json:"featured"`
}

// UpdateProductRequest represents a request to update a product.
// Nil fields are left unchanged.
type UpdateProductRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Slug           *string          `json:"slug" binding:"omitempty,slug"`
	Description    *string          `json:"description" binding:"omitempty,max=10000"`
	Price          *decimal.Decimal `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	ClearCompareAt bool             `json:"clear_compare_at_price"`
	CategoryID     *uuid.UUID       `json:"category_id"`
	ClearCategory  bool             `json:"clear_category"`
	Images         []string         `json:"images" binding:"omitempty,max=12,dive,max=500"`
	Featured       *bool            `json:"featured"`
}

// AdjustStockRequest adds or removes stock
type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"max=255"`
}

// ListProductsRequest is the storefront product query
type ListProductsRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search" binding:"omitempty,max=100"`
	Category string `form:"category" binding:"omitempty,max=100"`
	Featured *bool  `form:"featured"`
	Sort     string `form:"sort" binding:"omitempty,oneof=newest price_asc price_desc name"`
}

// AdminListProductsRequest is the admin product query, drafts included
type AdminListProductsRequest struct {
	ListProductsRequest
	Status string `form:"status" binding:"omitempty,oneof=DRAFT ACTIVE ARCHIVED"`
}

// ProductResponse represents a product in admin API responses
type ProductResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	Description    string     `json:"description"`
	Price          string     `json:"price"`
	CompareAtPrice *string    `json:"compare_at_price,omitempty"`
	Stock          int        `json:"stock"`
	CategoryID     *uuid.UUID `json:"category_id,omitempty"`
	Images         []string   `json:"images"`
	ImageURLs      []string   `json:"image_urls"`
	Featured       bool       `json:"featured"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Version        int        `json:"version"`
}

// StorefrontProduct is a product priced in the display currency
type StorefrontProduct struct {
	ID             uuid.UUID          `json:"id"`
	Name           string             `json:"name"`
	Slug           string             `json:"slug"`
	Description    string             `json:"description"`
	Price          appcurrency.Price  `json:"price"`
	CompareAtPrice *appcurrency.Price `json:"compare_at_price,omitempty"`
	OnSale         bool               `json:"on_sale"`
	InStock        bool               `json:"in_stock"`
	Stock          int                `json:"stock"`
	CategoryID     *uuid.UUID         `json:"category_id,omitempty"`
	Images         []string           `json:"images"`
	Featured       bool               `json:"featured"`
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Slug        string `json:"slug" binding:"omitempty,slug"`
	Description string `json:"description" binding:"max=1000"`
	SortOrder   int    `json:"sort_order"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Slug        string `json:"slug" binding:"required,slug"`
	Description string `json:"description" binding:"max=1000"`
	SortOrder   int    `json:"sort_order"`
	Active      bool   `json:"active"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sort_order"`
	Active      bool      `json:"active"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product, imageURL ImageURLFunc) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		Images:      p.Images,
		ImageURLs:   imageURLs(p.Images, imageURL),
		Featured:    p.Featured,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
	if p.CompareAtPrice != nil {
		s := p.CompareAtPrice.StringFixed(2)
		resp.CompareAtPrice = &s
	}
	return resp
}

// ToStorefrontProduct prices a product for the storefront
func ToStorefrontProduct(p *catalog.Product, display *appcurrency.Display, imageURL ImageURLFunc) (StorefrontProduct, error) {
	price, err := display.Price(p.Price)
	if err != nil {
		return StorefrontProduct{}, err
	}
	sp := StorefrontProduct{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       price,
		OnSale:      p.OnSale(),
		InStock:     p.IsPurchasable(),
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		Images:      imageURLs(p.Images, imageURL),
		Featured:    p.Featured,
	}
	if p.OnSale() {
		compare, err := display.Price(*p.CompareAtPrice)
		if err != nil {
			return StorefrontProduct{}, err
		}
		sp.CompareAtPrice = &compare
	}
	return sp, nil
}

// ToCategoryResponse converts a domain Category to CategoryResponse
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		SortOrder:   c.SortOrder,
		Active:      c.Active,
	}
}

func imageURLs(keys []string, imageURL ImageURLFunc) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if imageURL != nil {
			out = append(out, imageURL(k))
		} else {
			out = append(out, k)
		}
	}
	return out
}
