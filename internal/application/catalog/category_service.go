package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CategoryService handles category operations
type CategoryService struct {
	categories catalog.CategoryRepository
	logger     *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categories catalog.CategoryRepository, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{categories: categories, logger: logger}
}

// List returns categories ordered for navigation. The storefront only sees active ones.
func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]CategoryResponse, error) {
	categories, err := s.categories.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, ToCategoryResponse(&categories[i]))
	}
	return out, nil
}

// GetByID returns a category by ID
func (s *CategoryService) GetByID(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(c)
	return &resp, nil
}

// Create creates an active category
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	c, err := catalog.NewCategory(req.Name, strings.ToLower(req.Slug))
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, c.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	if err := c.Update(c.Name, c.Slug, req.Description, req.SortOrder, true); err != nil {
		return nil, err
	}
	if err := s.categories.Save(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("Category created", zap.String("category_id", c.ID.String()), zap.String("slug", c.Slug))
	resp := ToCategoryResponse(c)
	return &resp, nil
}

// Update replaces the category fields
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	slug := strings.ToLower(req.Slug)
	if err := s.ensureSlugFree(ctx, slug, c.ID); err != nil {
		return nil, err
	}
	if err := c.Update(req.Name, slug, req.Description, req.SortOrder, req.Active); err != nil {
		return nil, err
	}
	if err := s.categories.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(c)
	return &resp, nil
}

// Delete removes a category; its products become uncategorised
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Category deleted", zap.String("category_id", id.String()))
	return nil
}

func (s *CategoryService) ensureSlugFree(ctx context.Context, slug string, excludeID uuid.UUID) error {
	exists, err := s.categories.ExistsBySlug(ctx, slug, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Category with this slug already exists")
	}
	return nil
}
