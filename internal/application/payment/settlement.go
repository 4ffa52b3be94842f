package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SettlementResult reports the state after a settlement step
type SettlementResult struct {
	Order   *order.Order
	Payment *payment.Payment
	// Changed is false when the step was already applied earlier
	Changed bool
}

// Settlement moves orders and payments together through the payment state machine.
// Every method runs in a single transaction and publishes the resulting order events after commit.
// Webhooks, the reconciliation job, checkout and admin order actions all settle through it.
type Settlement struct {
	scope     TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewSettlement creates a Settlement
func NewSettlement(scope TransactionScope, publisher shared.EventPublisher, logger *zap.Logger) *Settlement {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Settlement{
		scope:     scope,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ConfirmPayment records a captured payment: payment SUCCEEDED, order PAID and the originating cart cleared.
// A PENDING order moves to PROCESSING; a cancelled one stays cancelled and is flagged for refund.
func (s *Settlement) ConfirmPayment(ctx context.Context, paymentID uuid.UUID, providerPaymentID string) (*SettlementResult, error) {
	var result SettlementResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		o, err := repos.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return err
		}
		result.Order, result.Payment = o, p
		if p.Status == payment.StatusRefunded {
			return nil
		}

		at := s.now()
		paymentChanged, err := p.Succeed(providerPaymentID, at)
		if err != nil {
			return err
		}
		orderChanged, err := o.MarkPaid(at)
		if err != nil {
			return err
		}
		if !paymentChanged && !orderChanged {
			return nil
		}
		result.Changed = true

		if paymentChanged {
			if err := repos.Payments().SaveWithLock(ctx, p); err != nil {
				return err
			}
		}
		if orderChanged {
			if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
				return err
			}
		}
		if o.CartID != nil && o.Status != order.OrderStatusCancelled {
			return clearCart(ctx, repos, *o.CartID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		fields := []zap.Field{
			zap.String("order_number", result.Order.OrderNumber),
			zap.String("payment_id", paymentID.String()),
		}
		if result.Order.RefundRequired {
			s.logger.Warn("Payment captured for a cancelled order, refund required", fields...)
		} else {
			s.logger.Info("Payment confirmed", fields...)
		}
		s.publish(ctx, result.Order)
	}
	return &result, nil
}

// RejectPayment fails a payment without touching its order, e.g. on an amount mismatch
func (s *Settlement) RejectPayment(ctx context.Context, paymentID uuid.UUID, reason string) (*SettlementResult, error) {
	var result SettlementResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		result.Payment = p
		if p.Status != payment.StatusPending {
			return nil
		}
		changed, err := p.Fail(reason)
		if err != nil || !changed {
			return err
		}
		result.Changed = true
		return repos.Payments().SaveWithLock(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AbandonPayment ends a pending card payment that will never be captured.
// With failed set the payment becomes FAILED, otherwise CANCELLED. The order is cancelled
// with reason and its stock restored. A payment that already succeeded is left alone, and one
// that is already FAILED or CANCELLED keeps its status; only a still open order is closed then.
func (s *Settlement) AbandonPayment(ctx context.Context, paymentID uuid.UUID, reason string, failed bool) (*SettlementResult, error) {
	var result SettlementResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		result.Payment = p
		if p.Status == payment.StatusSucceeded || p.Status == payment.StatusRefunded {
			return nil
		}

		closed := p.Status != payment.StatusPending
		var changed bool
		if !closed {
			if failed {
				changed, err = p.Fail(reason)
			} else {
				changed, err = p.Cancel(reason)
			}
			if err != nil {
				return err
			}
		}
		if changed {
			if err := repos.Payments().SaveWithLock(ctx, p); err != nil {
				return err
			}
		}

		o, err := repos.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return err
		}
		result.Order = o

		orderChanged := false
		if failed && !closed && o.PaymentStatus == order.PaymentStatusUnpaid {
			if err := o.MarkPaymentFailed(); err != nil {
				return err
			}
			orderChanged = true
		}
		if o.Status.CanTransitionTo(order.OrderStatusCancelled) && o.PaymentStatus != order.PaymentStatusPaid {
			if err := cancelAndRestock(ctx, repos, o, reason); err != nil {
				return err
			}
			orderChanged = true
		}
		if orderChanged {
			if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
				return err
			}
		}
		result.Changed = changed || orderChanged
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Changed {
		s.logger.Info("Payment already closed, nothing to abandon",
			zap.String("payment_id", paymentID.String()),
			zap.String("payment_status", string(result.Payment.Status)),
			zap.String("reason", reason))
		return &result, nil
	}
	if result.Order != nil {
		s.logger.Info("Payment abandoned",
			zap.String("order_number", result.Order.OrderNumber),
			zap.String("payment_id", paymentID.String()),
			zap.String("reason", reason))
		s.publish(ctx, result.Order)
	}
	return &result, nil
}

// CancelOrder cancels an unshipped order, restores its stock and cancels its pending payment.
// Paid card orders must go through a refund instead.
func (s *Settlement) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*SettlementResult, error) {
	var result SettlementResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		result.Order = o
		if o.PaymentMethod == order.PaymentMethodCard && o.PaymentStatus == order.PaymentStatusPaid {
			return shared.NewDomainError("REFUND_REQUIRED", "Paid card orders are cancelled by refunding them")
		}
		if err := cancelAndRestock(ctx, repos, o, reason); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}

		p, err := repos.Payments().FindByOrderID(ctx, o.ID)
		if errors.Is(err, shared.ErrNotFound) {
			result.Changed = true
			return nil
		}
		if err != nil {
			return err
		}
		result.Payment = p
		if p.Status == payment.StatusPending {
			if _, err := p.Cancel(payment.ReasonOrderCancelled); err != nil {
				return err
			}
			if err := repos.Payments().SaveWithLock(ctx, p); err != nil {
				return err
			}
		}
		result.Changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order cancelled",
		zap.String("order_number", result.Order.OrderNumber),
		zap.String("reason", reason))
	s.publish(ctx, result.Order)
	return &result, nil
}

// SettleOnDelivery marks a cash on delivery order delivered and its cash collected
func (s *Settlement) SettleOnDelivery(ctx context.Context, orderID uuid.UUID) (*SettlementResult, error) {
	var result SettlementResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		result.Order = o
		if err := o.Deliver(); err != nil {
			return err
		}
		if o.PaymentMethod == order.PaymentMethodCashOnDelivery {
			at := s.now()
			if _, err := o.MarkPaid(at); err != nil {
				return err
			}
			p, err := repos.Payments().FindByOrderID(ctx, o.ID)
			if err != nil {
				return fmt.Errorf("find cash on delivery payment: %w", err)
			}
			result.Payment = p
			changed, err := p.Succeed("", at)
			if err != nil {
				return err
			}
			if changed {
				if err := repos.Payments().SaveWithLock(ctx, p); err != nil {
					return err
				}
			}
		}
		result.Changed = true
		return repos.Orders().SaveWithLock(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, result.Order)
	return &result, nil
}

// RecordRefund marks a payment and its order refunded.
// With cancelUnshipped set, an order that has not shipped is also cancelled and restocked.
func (s *Settlement) RecordRefund(ctx context.Context, paymentID uuid.UUID, cancelUnshipped bool, reason string) (*SettlementResult, error) {
	var result SettlementResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		o, err := repos.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return err
		}
		result.Order, result.Payment = o, p

		paymentChanged, err := p.Refund()
		if err != nil {
			return err
		}
		orderChanged, err := o.MarkRefunded()
		if err != nil {
			return err
		}
		if cancelUnshipped && o.Status.CanTransitionTo(order.OrderStatusCancelled) {
			if err := cancelAndRestock(ctx, repos, o, reason); err != nil {
				return err
			}
			orderChanged = true
		}

		if paymentChanged {
			if err := repos.Payments().SaveWithLock(ctx, p); err != nil {
				return err
			}
		}
		if orderChanged {
			if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
				return err
			}
		}
		result.Changed = paymentChanged || orderChanged
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		s.logger.Info("Payment refunded",
			zap.String("order_number", result.Order.OrderNumber),
			zap.String("payment_id", paymentID.String()))
		s.publish(ctx, result.Order)
	}
	return &result, nil
}

func (s *Settlement) publish(ctx context.Context, o *order.Order) {
	events := o.GetDomainEvents()
	o.ClearDomainEvents()
	if len(events) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish order events",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
	}
}

func cancelAndRestock(ctx context.Context, repos TransactionalRepositories, o *order.Order, reason string) error {
	if err := o.Cancel(reason); err != nil {
		return err
	}
	return restoreStock(ctx, repos, o)
}

func restoreStock(ctx context.Context, repos TransactionalRepositories, o *order.Order) error {
	for _, it := range o.Items {
		err := repos.Products().IncrementStock(ctx, it.ProductID, it.Quantity)
		if errors.Is(err, shared.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("restore stock for %s: %w", it.ProductSlug, err)
		}
	}
	return nil
}

func clearCart(ctx context.Context, repos TransactionalRepositories, cartID uuid.UUID) error {
	c, err := repos.Carts().FindByID(ctx, cartID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if c.IsEmpty() {
		return nil
	}
	c.Clear()
	return repos.Carts().Save(ctx, c)
}
