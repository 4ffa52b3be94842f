package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements payment.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) findOne(ctx context.Context, query string, args ...any) (*payment.Payment, error) {
	var m models.PaymentModel
	if err := r.db.WithContext(ctx).Where(query, args...).Order("created_at DESC").First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByOrderID returns the latest payment of an order
func (r *GormPaymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*payment.Payment, error) {
	return r.findOne(ctx, "order_id = ?", orderID)
}

// FindBySessionID finds the payment behind a provider checkout session
func (r *GormPaymentRepository) FindBySessionID(ctx context.Context, sessionID string) (*payment.Payment, error) {
	if sessionID == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "provider_session_id = ?", sessionID)
}

// FindByProviderPaymentID finds a payment by the provider's payment intent id
func (r *GormPaymentRepository) FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*payment.Payment, error) {
	if providerPaymentID == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "provider_payment_id = ?", providerPaymentID)
}

// FindStalePending returns pending card payments created before the cutoff, oldest first
func (r *GormPaymentRepository) FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]payment.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("method = ? AND status = ? AND created_at < ?", order.PaymentMethodCard, payment.StatusPending, createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]payment.Payment, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// CountPending counts pending card payments
func (r *GormPaymentRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("method = ? AND status = ?", order.PaymentMethodCard, payment.StatusPending).
		Count(&count).Error
	return count, err
}

// Create inserts a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return translateError(r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(p)).Error)
}

// SaveWithLock updates a payment using optimistic locking on Version
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment) error {
	m := models.PaymentModelFromDomain(p)
	expected := p.Version
	m.Version = expected + 1
	m.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("id = ? AND version = ?", p.ID, expected).
		Updates(map[string]any{
			"provider_session_id": m.ProviderSessionID,
			"provider_payment_id": m.ProviderPaymentID,
			"status":              m.Status,
			"failure_reason":      m.FailureReason,
			"expires_at":          m.ExpiresAt,
			"succeeded_at":        m.SucceededAt,
			"failed_at":           m.FailedAt,
			"refunded_at":         m.RefundedAt,
			"version":             m.Version,
			"updated_at":          m.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("id = ?", p.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}

	p.Version = m.Version
	p.UpdatedAt = m.UpdatedAt
	return nil
}

var _ payment.PaymentRepository = (*GormPaymentRepository)(nil)
