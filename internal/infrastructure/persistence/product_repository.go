package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var m models.ProductModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindBySlug finds a product by its slug
func (r *GormProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	var m models.ProductModel
	if err := r.db.WithContext(ctx).First(&m, "slug = ?", strings.ToLower(slug)).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByIDs finds multiple products by their IDs
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// List returns one page of products and the total match count
func (r *GormProductRepository) List(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	filter.Filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})

	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	if err := query.Order(productOrderClause(filter)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return productsToDomain(rows), total, nil
}

func productOrderClause(filter catalog.ProductFilter) string {
	switch filter.Sort {
	case catalog.SortPriceAsc:
		return "price ASC, id ASC"
	case catalog.SortPriceDesc:
		return "price DESC, id ASC"
	case catalog.SortName:
		return "name ASC, id ASC"
	case catalog.SortNewest, "":
		if filter.OrderBy == "" {
			return "created_at DESC, id ASC"
		}
	}
	field := ValidateSortField(filter.OrderBy, AdminProductSortFields, "created_at")
	return field + " " + ValidateSortOrder(filter.OrderDir) + ", id ASC"
}

// FindLowStock returns active products at or below the threshold, lowest first
func (r *GormProductRepository) FindLowStock(ctx context.Context, threshold int, limit int) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND stock <= ?", catalog.ProductStatusActive, threshold).
		Order("stock ASC, name ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// Save creates or updates a product. Stock is only written on insert;
// later changes go through DecrementStock and IncrementStock.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	m := models.ProductModelFromDomain(product)
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", m.ID).
		Select("name", "slug", "description", "price", "compare_at_price", "category_id",
			"images", "featured", "status", "version", "updated_at").
		Updates(m)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(m).Error)
}

// ExistsBySlug checks for slug collisions, ignoring excludeID
func (r *GormProductRepository) ExistsBySlug(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DecrementStock takes quantity units with a conditional update, so two
// concurrent checkouts can never drive stock below zero.
func (r *GormProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.ErrInvalidInput
	}
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrInsufficientStock
}

// IncrementStock returns quantity units to stock
func (r *GormProductRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.ErrInvalidInput
	}
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func productsToDomain(rows []models.ProductModel) []catalog.Product {
	out := make([]catalog.Product, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out
}

// escapeLike escapes LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
