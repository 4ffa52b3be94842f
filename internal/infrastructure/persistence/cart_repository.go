package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository implements cart.CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("added_at ASC")
	})
}

// FindByID finds a cart with its lines
func (r *GormCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	var m models.CartModel
	if err := r.withItems(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindBySessionToken finds the cart bound to a session token
func (r *GormCartRepository) FindBySessionToken(ctx context.Context, token string) (*cart.Cart, error) {
	var m models.CartModel
	if err := r.withItems(ctx).First(&m, "session_token = ?", token).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// Save replaces the cart row and all of its lines
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	m := models.CartModelFromDomain(c)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(m).Error; err != nil {
			return translateError(err)
		}
		if err := tx.Where("cart_id = ?", m.ID).Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}
		if len(m.Items) == 0 {
			return nil
		}
		return tx.Create(&m.Items).Error
	})
}

// Delete removes a cart and its lines
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.CartModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// DeleteStale removes carts not updated since before
func (r *GormCartRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&models.CartModel{}).Select("id").Where("updated_at < ?", before)
		if err := tx.Where("cart_id IN (?)", stale).Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("updated_at < ?", before).Delete(&models.CartModel{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

var _ cart.CartRepository = (*GormCartRepository)(nil)
