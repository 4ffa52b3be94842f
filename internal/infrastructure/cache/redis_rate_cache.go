package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/currency"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

const rateTableKey = "shop:currency:rates"

type cachedRate struct {
	Currency  string          `json:"currency"`
	Rate      decimal.Decimal `json:"rate"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RedisRateCache stores the exchange rate table as one JSON value shared by all instances
type RedisRateCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRateCache creates a Redis-backed rate cache
func NewRedisRateCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisRateCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRateCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached rates; ok is false on a miss
func (c *RedisRateCache) Get(ctx context.Context) ([]currency.ExchangeRate, bool, error) {
	data, err := c.client.Get(ctx, rateTableKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rates from cache: %w", err)
	}

	var rows []cachedRate
	if err := json.Unmarshal(data, &rows); err != nil {
		c.logger.Error("Corrupted rate cache entry, dropping it", zap.Error(err))
		_ = c.client.Del(ctx, rateTableKey)
		return nil, false, nil
	}
	rates := make([]currency.ExchangeRate, 0, len(rows))
	for _, r := range rows {
		rates = append(rates, currency.ExchangeRate{
			Currency:  valueobject.Currency(r.Currency),
			Rate:      r.Rate,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return rates, true, nil
}

// Set stores the rates for the configured TTL
func (c *RedisRateCache) Set(ctx context.Context, rates []currency.ExchangeRate) error {
	rows := make([]cachedRate, 0, len(rates))
	for _, r := range rates {
		rows = append(rows, cachedRate{Currency: string(r.Currency), Rate: r.Rate, UpdatedAt: r.UpdatedAt})
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rates: %w", err)
	}
	if err := c.client.Set(ctx, rateTableKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set rates in cache: %w", err)
	}
	return nil
}

// Invalidate deletes the cached rates
func (c *RedisRateCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, rateTableKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate rates: %w", err)
	}
	return nil
}
