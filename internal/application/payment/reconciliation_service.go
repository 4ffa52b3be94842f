package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/payment"
	"go.uber.org/zap"
)

// ReconcileReport summarises one reconciliation run
type ReconcileReport struct {
	Checked   int           `json:"checked"`
	Succeeded int           `json:"succeeded"`
	Cancelled int           `json:"cancelled"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration"`
}

// ReconciliationService catches up on card payments whose webhooks never arrived
type ReconciliationService struct {
	provider   payment.Provider
	payments   payment.PaymentRepository
	settlement *Settlement
	after      time.Duration
	batchSize  int
	logger     *zap.Logger
	now        func() time.Time
}

// ReconciliationConfig contains configuration for ReconciliationService
type ReconciliationConfig struct {
	Provider   payment.Provider
	Payments   payment.PaymentRepository
	Settlement *Settlement
	// After is the minimum age of a pending payment before it is checked
	After     time.Duration
	BatchSize int
	Logger    *zap.Logger
}

// NewReconciliationService creates a ReconciliationService
func NewReconciliationService(cfg ReconciliationConfig) *ReconciliationService {
	if cfg.After <= 0 {
		cfg.After = 30 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ReconciliationService{
		provider:   cfg.Provider,
		payments:   cfg.Payments,
		settlement: cfg.Settlement,
		after:      cfg.After,
		batchSize:  cfg.BatchSize,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Run queries the provider for every stale pending card payment and settles what it finds.
// A failure on one payment is counted and does not stop the run.
func (s *ReconciliationService) Run(ctx context.Context) (*ReconcileReport, error) {
	if s.provider == nil {
		return nil, payment.ErrProviderNotConfigured
	}
	start := s.now()
	stale, err := s.payments.FindStalePending(ctx, start.Add(-s.after), s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("find stale payments: %w", err)
	}

	report := &ReconcileReport{}
	for i := range stale {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		p := &stale[i]
		report.Checked++
		outcome, err := s.reconcileOne(ctx, p)
		if err != nil {
			report.Errors++
			s.logger.Error("Failed to reconcile payment",
				zap.String("payment_id", p.ID.String()),
				zap.String("session_id", p.ProviderSessionID),
				zap.Error(err))
			continue
		}
		switch outcome {
		case outcomeSucceeded:
			report.Succeeded++
		case outcomeCancelled:
			report.Cancelled++
		}
	}
	report.Duration = s.now().Sub(start)

	s.logger.Info("Payment reconciliation finished",
		zap.Int("checked", report.Checked),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("cancelled", report.Cancelled),
		zap.Int("errors", report.Errors))
	return report, nil
}

type reconcileOutcome int

const (
	outcomeUnchanged reconcileOutcome = iota
	outcomeSucceeded
	outcomeCancelled
)

func (s *ReconciliationService) reconcileOne(ctx context.Context, p *payment.Payment) (reconcileOutcome, error) {
	now := s.now()

	// The session was never created, so nothing can be captured.
	if p.ProviderSessionID == "" {
		if !p.IsExpired(now) {
			return outcomeUnchanged, nil
		}
		if _, err := s.settlement.AbandonPayment(ctx, p.ID, payment.ReasonSessionExpired, false); err != nil {
			return outcomeUnchanged, err
		}
		return outcomeCancelled, nil
	}

	session, err := s.provider.GetCheckoutSession(ctx, p.ProviderSessionID)
	if err != nil {
		return outcomeUnchanged, err
	}

	switch {
	case session.IsPaid():
		if !p.MatchesAmount(session.AmountTotal, session.Currency) {
			_, err := s.settlement.RejectPayment(ctx, p.ID, payment.ReasonAmountMismatch)
			return outcomeUnchanged, err
		}
		if _, err := s.settlement.ConfirmPayment(ctx, p.ID, session.PaymentIntentID); err != nil {
			return outcomeUnchanged, err
		}
		return outcomeSucceeded, nil

	case session.Status == payment.SessionStatusExpired:
		if _, err := s.settlement.AbandonPayment(ctx, p.ID, payment.ReasonSessionExpired, false); err != nil {
			return outcomeUnchanged, err
		}
		return outcomeCancelled, nil

	case session.Status == payment.SessionStatusOpen && p.IsExpired(now):
		if err := s.provider.ExpireCheckoutSession(ctx, p.ProviderSessionID); err != nil {
			return outcomeUnchanged, fmt.Errorf("expire session: %w", err)
		}
		if _, err := s.settlement.AbandonPayment(ctx, p.ID, payment.ReasonSessionExpired, false); err != nil {
			return outcomeUnchanged, err
		}
		return outcomeCancelled, nil
	}
	return outcomeUnchanged, nil
}
