package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Product sort keys accepted by ProductFilter
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	shared.Filter
	CategoryID *uuid.UUID
	Statuses   []ProductStatus
	Featured   *bool
	Sort       string
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySlug finds a product by its slug
	FindBySlug(ctx context.Context, slug string) (*Product, error)

	// FindByIDs finds multiple products by their IDs, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// List returns one page of products and the total match count
	List(ctx context.Context, filter ProductFilter) ([]Product, int64, error)

	// FindLowStock returns active products with stock at or below threshold
	FindLowStock(ctx context.Context, threshold int, limit int) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// ExistsBySlug checks for slug collisions, ignoring excludeID
	ExistsBySlug(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)

	// DecrementStock atomically takes quantity units if available.
	// Returns shared.ErrInsufficientStock when fewer remain.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error

	// IncrementStock returns quantity units to stock
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}
