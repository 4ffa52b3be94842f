package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no ASC")
	})
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var m models.OrderModel
	if err := r.withItems(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByOrderNumber finds an order by its public number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var m models.OrderModel
	if err := r.withItems(ctx).
		First(&m, "order_number = ?", strings.ToUpper(strings.TrimSpace(orderNumber))).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// List returns one page of orders, without items, and the total match count
func (r *GormOrderRepository) List(ctx context.Context, filter order.OrderFilter) ([]order.Order, int64, error) {
	filter.Filter = filter.Normalize()
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	var rows []models.OrderModel
	if err := query.
		Order(sortField + " " + ValidateSortOrder(filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return ordersToDomain(rows), total, nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter order.OrderFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", filter.PaymentMethod)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where("(LOWER(order_number) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\')", like, like)
	}
	return query
}

// FindRecent returns the latest orders, newest first
func (r *GormOrderRepository) FindRecent(ctx context.Context, limit int) ([]order.Order, error) {
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(rows), nil
}

// Create inserts a new order with its items
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return translateError(r.db.WithContext(ctx).Create(models.OrderModelFromDomain(o)).Error)
}

// SaveWithLock updates the order row using optimistic locking. Items are an
// immutable snapshot and are never rewritten.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	m := models.OrderModelFromDomain(o)
	expected := o.Version
	m.Version = expected + 1
	m.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Omit(clause.Associations).
		Where("id = ? AND version = ?", o.ID, expected).
		Updates(map[string]any{
			"payment_status":  m.PaymentStatus,
			"status":          m.Status,
			"tracking_number": m.TrackingNumber,
			"cancel_reason":   m.CancelReason,
			"refund_required": m.RefundRequired,
			"notes":           m.Notes,
			"paid_at":         m.PaidAt,
			"shipped_at":      m.ShippedAt,
			"delivered_at":    m.DeliveredAt,
			"cancelled_at":    m.CancelledAt,
			"refunded_at":     m.RefundedAt,
			"version":         m.Version,
			"updated_at":      m.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		exists, err := r.exists(ctx, o.ID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}

	o.Version = m.Version
	o.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *GormOrderRepository) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ExistsByOrderNumber checks for order number collisions
func (r *GormOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByStatus counts orders created in [from, to) grouped by status
func (r *GormOrderRepository) CountByStatus(ctx context.Context, from, to time.Time) (map[order.OrderStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[order.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[order.OrderStatus(row.Status)] = row.Count
	}
	return out, nil
}

// RevenueByCurrency sums totals of paid orders created in [from, to) per currency
func (r *GormOrderRepository) RevenueByCurrency(ctx context.Context, from, to time.Time) ([]order.Revenue, error) {
	var rows []struct {
		Currency  string
		Total     decimal.Decimal
		BaseTotal decimal.Decimal
		Orders    int64
	}
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Select("currency, SUM(total) AS total, SUM(total * 1.0 / exchange_rate) AS base_total, COUNT(*) AS orders").
		Where("payment_status = ? AND created_at >= ? AND created_at < ?", order.PaymentStatusPaid, from, to).
		Group("currency").
		Order("currency").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]order.Revenue, 0, len(rows))
	for _, row := range rows {
		out = append(out, order.Revenue{
			Currency:  valueobject.Currency(row.Currency),
			Total:     row.Total,
			BaseTotal: row.BaseTotal,
			Orders:    row.Orders,
		})
	}
	return out, nil
}

func ordersToDomain(rows []models.OrderModel) []order.Order {
	out := make([]order.Order, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out
}

var _ order.OrderRepository = (*GormOrderRepository)(nil)
