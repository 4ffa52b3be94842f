package catalog

import (
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// Category groups products for storefront navigation
type Category struct {
	shared.BaseAggregateRoot
	Name        string
	Slug        string
	Description string
	SortOrder   int
	Active      bool
}

// NewCategory creates an active category
func NewCategory(name, slug string) (*Category, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	if slug == "" {
		slug = Slugify(name)
	}
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	return &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Active:            true,
	}, nil
}

// Update updates the category's information
func (c *Category) Update(name, slug, description string, sortOrder int, active bool) error {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return err
	}
	if err := ValidateSlug(slug); err != nil {
		return err
	}
	c.Name = name
	c.Slug = slug
	c.Description = description
	c.SortOrder = sortOrder
	c.Active = active
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

func validateCategoryName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}
