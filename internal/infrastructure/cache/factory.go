package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyStoreFactory picks an idempotency store for the deployment
type IdempotencyStoreFactory struct {
	client                *redis.Client
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// IdempotencyStoreFactoryOption is a functional option for configuring the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store without Redis.
// Default is true.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a factory; client may be nil when Redis is disabled
func NewIdempotencyStoreFactory(client *redis.Client, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		client:                client,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when a client is available, otherwise an in-memory one
func (f *IdempotencyStoreFactory) CreateStore() (shared.IdempotencyStore, error) {
	if f.client != nil {
		f.logger.Info("Using Redis idempotency store")
		return NewRedisIdempotencyStore(f.client, ""), nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for webhook idempotency but not configured")
	}
	f.logger.Warn("Redis unavailable, using in-memory idempotency store. " +
		"Duplicate webhook deliveries are only detected within this instance.")
	return NewInMemoryIdempotencyStore(), nil
}
