package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAdminUserRepository implements identity.AdminUserRepository using GORM
type GormAdminUserRepository struct {
	db *gorm.DB
}

// NewGormAdminUserRepository creates a new GormAdminUserRepository
func NewGormAdminUserRepository(db *gorm.DB) *GormAdminUserRepository {
	return &GormAdminUserRepository{db: db}
}

// FindByID finds an admin by ID
func (r *GormAdminUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.AdminUser, error) {
	var m models.AdminUserModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByEmail finds an admin by email, case-insensitively
func (r *GormAdminUserRepository) FindByEmail(ctx context.Context, email string) (*identity.AdminUser, error) {
	var m models.AdminUserModel
	if err := r.db.WithContext(ctx).
		First(&m, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// Save creates or updates an admin
func (r *GormAdminUserRepository) Save(ctx context.Context, user *identity.AdminUser) error {
	return translateError(r.db.WithContext(ctx).Save(models.AdminUserModelFromDomain(user)).Error)
}

// ExistsByEmail checks whether an admin with the email exists
func (r *GormAdminUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AdminUserModel{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ identity.AdminUserRepository = (*GormAdminUserRepository)(nil)
