package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/content"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBannerRepository implements content.BannerRepository using GORM
type GormBannerRepository struct {
	db *gorm.DB
}

// NewGormBannerRepository creates a new GormBannerRepository
func NewGormBannerRepository(db *gorm.DB) *GormBannerRepository {
	return &GormBannerRepository{db: db}
}

// FindByID finds a banner by its ID
func (r *GormBannerRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.HeroBanner, error) {
	var m models.HeroBannerModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns banners ordered by position. Scheduling windows are
// evaluated by the caller.
func (r *GormBannerRepository) FindAll(ctx context.Context, activeOnly bool) ([]content.HeroBanner, error) {
	query := r.db.WithContext(ctx).Model(&models.HeroBannerModel{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []models.HeroBannerModel
	if err := query.Order("position ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]content.HeroBanner, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Save creates or updates a banner
func (r *GormBannerRepository) Save(ctx context.Context, banner *content.HeroBanner) error {
	return translateError(r.db.WithContext(ctx).Save(models.HeroBannerModelFromDomain(banner)).Error)
}

// Delete removes a banner
func (r *GormBannerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.HeroBannerModel{}, id)
}

// GormCollectionRepository implements content.CollectionRepository using GORM
type GormCollectionRepository struct {
	db *gorm.DB
}

// NewGormCollectionRepository creates a new GormCollectionRepository
func NewGormCollectionRepository(db *gorm.DB) *GormCollectionRepository {
	return &GormCollectionRepository{db: db}
}

// FindByID finds a collection by its ID
func (r *GormCollectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.Collection, error) {
	var m models.CollectionModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindBySlug finds a collection by its slug
func (r *GormCollectionRepository) FindBySlug(ctx context.Context, slug string) (*content.Collection, error) {
	var m models.CollectionModel
	if err := r.db.WithContext(ctx).First(&m, "slug = ?", slug).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns collections, featured first, then by title
func (r *GormCollectionRepository) FindAll(ctx context.Context, publishedOnly bool) ([]content.Collection, error) {
	query := r.db.WithContext(ctx).Model(&models.CollectionModel{})
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	var rows []models.CollectionModel
	if err := query.Order("featured DESC, title ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]content.Collection, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Save creates or updates a collection
func (r *GormCollectionRepository) Save(ctx context.Context, collection *content.Collection) error {
	return translateError(r.db.WithContext(ctx).Save(models.CollectionModelFromDomain(collection)).Error)
}

// Delete removes a collection
func (r *GormCollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.CollectionModel{}, id)
}

// ExistsBySlug checks for slug collisions, ignoring excludeID
func (r *GormCollectionRepository) ExistsBySlug(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CollectionModel{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GormAboutPageRepository implements content.AboutPageRepository using GORM
type GormAboutPageRepository struct {
	db *gorm.DB
}

// NewGormAboutPageRepository creates a new GormAboutPageRepository
func NewGormAboutPageRepository(db *gorm.DB) *GormAboutPageRepository {
	return &GormAboutPageRepository{db: db}
}

// Get returns the about page
func (r *GormAboutPageRepository) Get(ctx context.Context) (*content.AboutPage, error) {
	var m models.AboutPageModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", models.AboutPageID).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// Upsert writes the about page singleton
func (r *GormAboutPageRepository) Upsert(ctx context.Context, page *content.AboutPage) error {
	if page.UpdatedAt.IsZero() {
		page.UpdatedAt = time.Now()
	}
	m := &models.AboutPageModel{
		ID:        models.AboutPageID,
		Title:     page.Title,
		Body:      page.Body,
		ImageKey:  page.ImageKey,
		UpdatedAt: page.UpdatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "body", "image_key", "updated_at"}),
	}).Create(m).Error
}

func deleteByID(ctx context.Context, db *gorm.DB, model any, id uuid.UUID) error {
	result := db.WithContext(ctx).Delete(model, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var (
	_ content.BannerRepository     = (*GormBannerRepository)(nil)
	_ content.CollectionRepository = (*GormCollectionRepository)(nil)
	_ content.AboutPageRepository  = (*GormAboutPageRepository)(nil)
)
