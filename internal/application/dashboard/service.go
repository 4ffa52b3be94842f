package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWindow = 30 * 24 * time.Hour
	recentLimit   = 10
	lowStockLimit = 20
	maxWindow     = 366 * 24 * time.Hour
	dateLayout    = "2006-01-02"
)

// SummaryRequest selects the reporting window. Dates are inclusive days in UTC.
type SummaryRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// CurrencyRevenue is paid revenue in one presentment currency
type CurrencyRevenue struct {
	Currency  string `json:"currency"`
	Total     string `json:"total"`
	BaseTotal string `json:"base_total"`
	Orders    int64  `json:"orders"`
}

// LowStockItem is a product running out of stock
type LowStockItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Stock int    `json:"stock"`
}

// Summary is the admin dashboard payload
type Summary struct {
	From            time.Time                `json:"from"`
	To              time.Time                `json:"to"`
	BaseCurrency    string                   `json:"base_currency"`
	Revenue         []CurrencyRevenue        `json:"revenue"`
	BaseRevenue     string                   `json:"base_revenue"`
	PaidOrders      int64                    `json:"paid_orders"`
	OrdersByStatus  map[string]int64         `json:"orders_by_status"`
	PendingPayments int64                    `json:"pending_payments"`
	LowStock        []LowStockItem           `json:"low_stock"`
	RecentOrders    []apporder.OrderListItem `json:"recent_orders"`
	LowStockLimit   int                      `json:"low_stock_threshold"`
}

// ServiceConfig contains configuration for Service
type ServiceConfig struct {
	Orders            order.OrderRepository
	Payments          payment.PaymentRepository
	Products          catalog.ProductRepository
	Base              valueobject.Currency
	LowStockThreshold int
	Logger            *zap.Logger
}

// Service aggregates sales and stock figures for the admin dashboard
type Service struct {
	orders    order.OrderRepository
	payments  payment.PaymentRepository
	products  catalog.ProductRepository
	base      valueobject.Currency
	threshold int
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new dashboard Service
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Base == "" {
		cfg.Base = valueobject.DefaultCurrency
	}
	return &Service{
		orders:    cfg.Orders,
		payments:  cfg.Payments,
		products:  cfg.Products,
		base:      cfg.Base,
		threshold: cfg.LowStockThreshold,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// Summary builds the dashboard for the requested window, defaulting to the last 30 days
func (s *Service) Summary(ctx context.Context, req SummaryRequest) (*Summary, error) {
	from, to, err := s.window(req)
	if err != nil {
		return nil, err
	}

	var (
		revenue  []order.Revenue
		counts   map[order.OrderStatus]int64
		pending  int64
		lowStock []catalog.Product
		recent   []order.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		revenue, err = s.orders.RevenueByCurrency(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.orders.CountByStatus(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = s.payments.CountPending(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		lowStock, err = s.products.FindLowStock(gctx, s.threshold, lowStockLimit)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.orders.FindRecent(gctx, recentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to build dashboard summary", zap.Error(err))
		return nil, err
	}

	summary := &Summary{
		From:            from,
		To:              to,
		BaseCurrency:    string(s.base),
		Revenue:         make([]CurrencyRevenue, 0, len(revenue)),
		OrdersByStatus:  make(map[string]int64, len(counts)),
		PendingPayments: pending,
		LowStock:        make([]LowStockItem, 0, len(lowStock)),
		RecentOrders:    make([]apporder.OrderListItem, 0, len(recent)),
		LowStockLimit:   s.threshold,
	}

	baseExp := s.base.MinorUnitExponent()
	baseTotal := decimal.Zero
	for _, r := range revenue {
		converted := r.BaseTotal.Round(baseExp)
		summary.Revenue = append(summary.Revenue, CurrencyRevenue{
			Currency:  string(r.Currency),
			Total:     r.Total.StringFixed(r.Currency.MinorUnitExponent()),
			BaseTotal: converted.StringFixed(baseExp),
			Orders:    r.Orders,
		})
		baseTotal = baseTotal.Add(converted)
		summary.PaidOrders += r.Orders
	}
	summary.BaseRevenue = baseTotal.StringFixed(baseExp)

	for status, n := range counts {
		summary.OrdersByStatus[string(status)] = n
	}
	for i := range lowStock {
		p := &lowStock[i]
		summary.LowStock = append(summary.LowStock, LowStockItem{
			ID:    p.ID.String(),
			Name:  p.Name,
			Slug:  p.Slug,
			Stock: p.Stock,
		})
	}
	for i := range recent {
		summary.RecentOrders = append(summary.RecentOrders, apporder.ToOrderListItem(&recent[i]))
	}

	return summary, nil
}

func (s *Service) window(req SummaryRequest) (time.Time, time.Time, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	to := today.Add(24 * time.Hour)
	from := to.Add(-defaultWindow)

	if req.To != "" {
		d, err := time.Parse(dateLayout, req.To)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidRange
		}
		to = d.Add(24 * time.Hour)
		from = to.Add(-defaultWindow)
	}
	if req.From != "" {
		d, err := time.Parse(dateLayout, req.From)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidRange
		}
		from = d
	}
	if !from.Before(to) || to.Sub(from) > maxWindow {
		return time.Time{}, time.Time{}, errInvalidRange
	}
	return from, to, nil
}

var errInvalidRange = shared.NewDomainError("INVALID_RANGE", "Date range must be a valid window of at most one year")
