package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	appcurrency "github.com/storefront/backend/internal/application/currency"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles storefront product queries and admin product management
type ProductService struct {
	products   catalog.ProductRepository
	categories catalog.CategoryRepository
	currency   *appcurrency.Service
	imageURL   ImageURLFunc
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// ProductServiceConfig contains configuration for ProductService
type ProductServiceConfig struct {
	Products   catalog.ProductRepository
	Categories catalog.CategoryRepository
	Currency   *appcurrency.Service
	ImageURL   ImageURLFunc
	Publisher  shared.EventPublisher // optional
	Logger     *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(cfg ProductServiceConfig) *ProductService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ProductService{
		products:   cfg.Products,
		categories: cfg.Categories,
		currency:   cfg.Currency,
		imageURL:   cfg.ImageURL,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger,
	}
}

// ListStorefront returns one page of active products priced in the display currency
func (s *ProductService) ListStorefront(ctx context.Context, req ListProductsRequest, displayCurrency string) (*shared.Paginated[StorefrontProduct], error) {
	filter, err := s.filter(ctx, req)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		// Unknown or inactive category
		page := shared.NewPaginated([]StorefrontProduct{}, 0, 1, req.PageSize)
		return &page, nil
	}
	filter.Statuses = []catalog.ProductStatus{catalog.ProductStatusActive}

	products, total, err := s.products.List(ctx, *filter)
	if err != nil {
		return nil, err
	}
	display, err := s.currency.Display(ctx, displayCurrency)
	if err != nil {
		return nil, err
	}
	items := make([]StorefrontProduct, 0, len(products))
	for i := range products {
		sp, err := ToStorefrontProduct(&products[i], display, s.imageURL)
		if err != nil {
			return nil, err
		}
		items = append(items, sp)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetBySlug returns an active product priced in the display currency
func (s *ProductService) GetBySlug(ctx context.Context, slug, displayCurrency string) (*StorefrontProduct, error) {
	p, err := s.products.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p.Status != catalog.ProductStatusActive {
		return nil, shared.ErrNotFound
	}
	display, err := s.currency.Display(ctx, displayCurrency)
	if err != nil {
		return nil, err
	}
	sp, err := ToStorefrontProduct(p, display, s.imageURL)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// List returns one page of products in any status
func (s *ProductService) List(ctx context.Context, req AdminListProductsRequest) (*shared.Paginated[ProductResponse], error) {
	filter, err := s.filter(ctx, req.ListProductsRequest)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		page := shared.NewPaginated([]ProductResponse{}, 0, 1, req.PageSize)
		return &page, nil
	}
	if req.Status != "" {
		filter.Statuses = []catalog.ProductStatus{catalog.ProductStatus(req.Status)}
	}

	products, total, err := s.products.List(ctx, *filter)
	if err != nil {
		return nil, err
	}
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i], s.imageURL))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetByID returns a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(p, s.imageURL)
	return &resp, nil
}

// Create creates a draft product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	p, err := catalog.NewProduct(req.Name, strings.ToLower(req.Slug), req.Price)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, p.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	if err := p.Update(p.Name, p.Slug, req.Description, req.CategoryID, req.Featured); err != nil {
		return nil, err
	}
	if err := p.SetPrice(req.Price, req.CompareAtPrice); err != nil {
		return nil, err
	}
	if err := p.SetImages(req.Images); err != nil {
		return nil, err
	}
	if err := p.AdjustStock(req.Stock); err != nil {
		return nil, err
	}

	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Product created", zap.String("product_id", p.ID.String()), zap.String("slug", p.Slug))
	s.publish(ctx, p)

	resp := ToProductResponse(p, s.imageURL)
	return &resp, nil
}

// Update changes the product fields present in the request
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, slug, description, categoryID, featured := p.Name, p.Slug, p.Description, p.CategoryID, p.Featured
	if req.Name != nil {
		name = *req.Name
	}
	if req.Slug != nil {
		slug = strings.ToLower(*req.Slug)
		if err := s.ensureSlugFree(ctx, slug, p.ID); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		categoryID = req.CategoryID
	}
	if req.ClearCategory {
		categoryID = nil
	}
	if req.Featured != nil {
		featured = *req.Featured
	}
	if err := p.Update(name, slug, description, categoryID, featured); err != nil {
		return nil, err
	}

	price, compareAt := p.Price, p.CompareAtPrice
	if req.Price != nil {
		price = *req.Price
	}
	if req.CompareAtPrice != nil {
		compareAt = req.CompareAtPrice
	}
	if req.ClearCompareAt {
		compareAt = nil
	}
	if err := p.SetPrice(price, compareAt); err != nil {
		return nil, err
	}
	if req.Images != nil {
		if err := p.SetImages(req.Images); err != nil {
			return nil, err
		}
	}

	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, p)

	resp := ToProductResponse(p, s.imageURL)
	return &resp, nil
}

// Publish makes a product visible on the storefront
func (s *ProductService) Publish(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	return s.transition(ctx, id, (*catalog.Product).Publish)
}

// Archive hides a product from the storefront
func (s *ProductService) Archive(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	return s.transition(ctx, id, (*catalog.Product).Archive)
}

// AdjustStock changes stock by delta with an atomic update.
// A negative delta larger than the remaining stock fails with INSUFFICIENT_STOCK.
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	var err error
	switch {
	case req.Delta > 0:
		err = s.products.IncrementStock(ctx, id, req.Delta)
	case req.Delta < 0:
		err = s.products.DecrementStock(ctx, id, -req.Delta)
	default:
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Stock adjustment cannot be zero")
	}
	if err != nil {
		return nil, err
	}

	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Product stock adjusted",
		zap.String("product_id", id.String()),
		zap.Int("delta", req.Delta),
		zap.Int("stock", p.Stock),
		zap.String("reason", req.Reason))
	resp := ToProductResponse(p, s.imageURL)
	return &resp, nil
}

func (s *ProductService) transition(ctx context.Context, id uuid.UUID, fn func(*catalog.Product) error) (*ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, p)
	resp := ToProductResponse(p, s.imageURL)
	return &resp, nil
}

// filter builds the repository filter; nil means the category matched nothing visible
func (s *ProductService) filter(ctx context.Context, req ListProductsRequest) (*catalog.ProductFilter, error) {
	filter := &catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			Search:   strings.TrimSpace(req.Search),
		}.Normalize(),
		Featured: req.Featured,
		Sort:     req.Sort,
	}
	if req.Category == "" {
		return filter, nil
	}
	c, err := s.categories.FindBySlug(ctx, req.Category)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	filter.CategoryID = &c.ID
	return filter, nil
}

func (s *ProductService) ensureSlugFree(ctx context.Context, slug string, excludeID uuid.UUID) error {
	exists, err := s.products.ExistsBySlug(ctx, slug, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Product with this slug already exists")
	}
	return nil
}

func (s *ProductService) ensureCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, *id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
		}
		return err
	}
	return nil
}

func (s *ProductService) publish(ctx context.Context, p *catalog.Product) {
	events := p.GetDomainEvents()
	p.ClearDomainEvents()
	if len(events) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish product events", zap.String("product_id", p.ID.String()), zap.Error(err))
	}
}
