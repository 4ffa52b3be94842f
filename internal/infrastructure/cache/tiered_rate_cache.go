package cache

import (
	"context"
	"sync/atomic"

	"github.com/storefront/backend/internal/domain/currency"
	"go.uber.org/zap"
)

// RateStore is one layer of the rate cache
type RateStore interface {
	Get(ctx context.Context) ([]currency.ExchangeRate, bool, error)
	Set(ctx context.Context, rates []currency.ExchangeRate) error
	Invalidate(ctx context.Context) error
}

// TieredRateCache implements a two-tier cache for the exchange rate table.
// L1: in-process memory (fast, local to the instance).
// L2: Redis (shared across instances); nil when Redis is disabled.
// Reads go L1 then L2 and populate L1. Invalidation clears both and notifies other instances.
type TieredRateCache struct {
	l1          RateStore
	l2          RateStore
	invalidator *RedisRateInvalidator
	logger      *zap.Logger

	l1Hits int64
	l2Hits int64
	misses int64
}

// NewTieredRateCache creates a tiered cache; l2 and invalidator may be nil
func NewTieredRateCache(l1 RateStore, l2 RateStore, invalidator *RedisRateInvalidator, logger *zap.Logger) *TieredRateCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredRateCache{l1: l1, l2: l2, invalidator: invalidator, logger: logger}
}

// StartInvalidationSubscription drops L1 whenever another instance changes rates
func (c *TieredRateCache) StartInvalidationSubscription(ctx context.Context) error {
	if c.invalidator == nil {
		return nil
	}
	return c.invalidator.Subscribe(ctx, func() {
		if err := c.l1.Invalidate(context.Background()); err != nil {
			c.logger.Warn("Failed to drop local rate cache", zap.Error(err))
		}
	})
}

// Get retrieves the rate table (L1 -> L2)
func (c *TieredRateCache) Get(ctx context.Context) ([]currency.ExchangeRate, bool, error) {
	rates, ok, err := c.l1.Get(ctx)
	if err != nil {
		c.logger.Warn("L1 rate cache error", zap.Error(err))
	}
	if ok {
		atomic.AddInt64(&c.l1Hits, 1)
		return rates, true, nil
	}

	if c.l2 != nil {
		rates, ok, err = c.l2.Get(ctx)
		if err != nil {
			// Redis trouble degrades to a database read.
			c.logger.Warn("L2 rate cache error", zap.Error(err))
		}
		if ok {
			atomic.AddInt64(&c.l2Hits, 1)
			if err := c.l1.Set(ctx, rates); err != nil {
				c.logger.Warn("Failed to populate L1 rate cache", zap.Error(err))
			}
			return rates, true, nil
		}
	}

	atomic.AddInt64(&c.misses, 1)
	return nil, false, nil
}

// Set stores the rate table in both tiers
func (c *TieredRateCache) Set(ctx context.Context, rates []currency.ExchangeRate) error {
	if c.l2 != nil {
		if err := c.l2.Set(ctx, rates); err != nil {
			c.logger.Warn("Failed to set L2 rate cache", zap.Error(err))
		}
	}
	return c.l1.Set(ctx, rates)
}

// Invalidate clears both tiers and tells other instances to clear theirs
func (c *TieredRateCache) Invalidate(ctx context.Context) error {
	if c.l2 != nil {
		if err := c.l2.Invalidate(ctx); err != nil {
			return err
		}
	}
	if err := c.l1.Invalidate(ctx); err != nil {
		return err
	}
	if c.invalidator != nil {
		if err := c.invalidator.Publish(ctx); err != nil {
			c.logger.Warn("Failed to publish rate invalidation", zap.Error(err))
		}
	}
	return nil
}

// Stats returns hit counters for monitoring
func (c *TieredRateCache) Stats() (l1Hits, l2Hits, misses int64) {
	return atomic.LoadInt64(&c.l1Hits), atomic.LoadInt64(&c.l2Hits), atomic.LoadInt64(&c.misses)
}

var (
	_ RateStore = (*InMemoryRateCache)(nil)
	_ RateStore = (*RedisRateCache)(nil)
	_ RateStore = (*TieredRateCache)(nil)
)
