package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateInvalidationChannel carries "rates changed" notices between instances
const RateInvalidationChannel = "shop:currency:invalidate"

// RedisRateInvalidator broadcasts rate changes so other instances drop their local copy
type RedisRateInvalidator struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisRateInvalidator creates an invalidator on an existing client
func NewRedisRateInvalidator(client *redis.Client, logger *zap.Logger) *RedisRateInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRateInvalidator{client: client, logger: logger}
}

// Publish announces that the rate table changed
func (i *RedisRateInvalidator) Publish(ctx context.Context) error {
	if err := i.client.Publish(ctx, RateInvalidationChannel, "rates").Err(); err != nil {
		return fmt.Errorf("failed to publish rate invalidation: %w", err)
	}
	return nil
}

// Subscribe calls onInvalidate for every notice until ctx is done
func (i *RedisRateInvalidator) Subscribe(ctx context.Context, onInvalidate func()) error {
	sub := i.client.Subscribe(ctx, RateInvalidationChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("failed to subscribe to rate invalidation: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				i.logger.Debug("Received rate invalidation")
				onInvalidate()
			}
		}
	}()
	return nil
}
