package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	apppayment "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// Job names
const (
	JobReconcilePayments = "reconcile-payments"
	JobPurgeCarts        = "purge-carts"
)

// Reconciler settles card payments whose webhooks never arrived
type Reconciler interface {
	Run(ctx context.Context) (*apppayment.ReconcileReport, error)
}

// CartPurger deletes abandoned carts
type CartPurger interface {
	PurgeStale(ctx context.Context, ttl time.Duration) (int64, error)
}

// ReconcileJob builds the payment reconciliation job
func ReconcileJob(r Reconciler, interval time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     JobReconcilePayments,
		Interval: interval,
		Run: func(ctx context.Context) error {
			report, err := r.Run(ctx)
			if err != nil {
				return err
			}
			if report.Checked > 0 {
				logger.Info("Reconciled pending payments",
					zap.Int("checked", report.Checked),
					zap.Int("succeeded", report.Succeeded),
					zap.Int("cancelled", report.Cancelled),
					zap.Int("errors", report.Errors),
				)
			}
			return nil
		},
	}
}

// CartPurgeJob builds the stale cart purge job
func CartPurgeJob(p CartPurger, interval, ttl time.Duration) Job {
	return Job{
		Name:       JobPurgeCarts,
		Interval:   interval,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			_, err := p.PurgeStale(ctx, ttl)
			return err
		},
	}
}

// NewStorefrontScheduler registers the storefront jobs from configuration.
// reconciler may be nil when card payments are disabled.
func NewStorefrontScheduler(cfg config.SchedulerConfig, cartTTL time.Duration, reconciler Reconciler, purger CartPurger, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := NewScheduler(Config{JobTimeout: cfg.JobTimeout}, logger.Named("scheduler"))

	if reconciler != nil && cfg.ReconcileInterval > 0 {
		if err := s.Register(ReconcileJob(reconciler, cfg.ReconcileInterval, logger)); err != nil {
			return nil, err
		}
	}
	if purger != nil && cfg.CartPurgeInterval > 0 && cartTTL > 0 {
		if err := s.Register(CartPurgeJob(purger, cfg.CartPurgeInterval, cartTTL)); err != nil {
			return nil, err
		}
	}
	return s, nil
}
