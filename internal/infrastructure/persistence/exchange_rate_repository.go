package persistence

import (
	"context"

	"github.com/storefront/backend/internal/domain/currency"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRateRepository implements currency.RateRepository using GORM
type GormRateRepository struct {
	db *gorm.DB
}

// NewGormRateRepository creates a new GormRateRepository
func NewGormRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// FindAll returns every stored rate ordered by currency code
func (r *GormRateRepository) FindAll(ctx context.Context) ([]currency.ExchangeRate, error) {
	var rows []models.ExchangeRateModel
	if err := r.db.WithContext(ctx).Order("currency ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]currency.ExchangeRate, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// FindByCurrency returns the rate of one currency
func (r *GormRateRepository) FindByCurrency(ctx context.Context, c valueobject.Currency) (*currency.ExchangeRate, error) {
	var m models.ExchangeRateModel
	if err := r.db.WithContext(ctx).First(&m, "currency = ?", c.String()).Error; err != nil {
		return nil, translateError(err)
	}
	rate := m.ToDomain()
	return &rate, nil
}

// Save upserts the rate of a currency
func (r *GormRateRepository) Save(ctx context.Context, rate currency.ExchangeRate) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
	}).Create(models.ExchangeRateModelFromDomain(rate)).Error
}

var _ currency.RateRepository = (*GormRateRepository)(nil)
