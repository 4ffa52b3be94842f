package cache

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/currency"
)

// InMemoryRateCache holds the exchange rate table in process memory for a TTL
type InMemoryRateCache struct {
	mu        sync.RWMutex
	rates     []currency.ExchangeRate
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewInMemoryRateCache creates an empty cache whose entries live for ttl
func NewInMemoryRateCache(ttl time.Duration) *InMemoryRateCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &InMemoryRateCache{ttl: ttl, now: time.Now}
}

// Get returns the cached rates; ok is false on a miss or after expiry
func (c *InMemoryRateCache) Get(_ context.Context) ([]currency.ExchangeRate, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.rates == nil || !c.now().Before(c.expiresAt) {
		return nil, false, nil
	}
	out := make([]currency.ExchangeRate, len(c.rates))
	copy(out, c.rates)
	return out, true, nil
}

// Set replaces the cached rates
func (c *InMemoryRateCache) Set(_ context.Context, rates []currency.ExchangeRate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates = make([]currency.ExchangeRate, len(rates))
	copy(c.rates, rates)
	c.expiresAt = c.now().Add(c.ttl)
	return nil
}

// Invalidate drops the cached rates
func (c *InMemoryRateCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates = nil
	return nil
}
