// Package event provides the in-process domain event bus and handler decorators.
package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
)

// ErrQueueFull is logged when an async bus drops a delivery
var ErrQueueFull = errors.New("event: dispatch queue full")

type delivery struct {
	ctx     context.Context
	handler shared.EventHandler
	event   shared.DomainEvent
}

// InMemoryEventBus implements EventBus with in-memory pub/sub.
//
// Without workers every Publish dispatches synchronously. With WithWorkers the
// bus queues deliveries once started, so slow handlers (mail, websockets) never
// hold up the request that committed the change.
type InMemoryEventBus struct {
	registry  *HandlerRegistry
	logger    *zap.Logger
	running   atomic.Bool
	wg        sync.WaitGroup
	workers   int
	queueSize int
	queue     chan delivery
	mu        sync.RWMutex
	dropped   atomic.Int64
}

// BusOption configures an InMemoryEventBus
type BusOption func(*InMemoryEventBus)

// WithWorkers enables asynchronous dispatch with n workers and a bounded queue
func WithWorkers(n, queueSize int) BusOption {
	return func(b *InMemoryEventBus) {
		if n > 0 {
			b.workers = n
		}
		if queueSize > 0 {
			b.queueSize = queueSize
		}
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &InMemoryEventBus{
		registry:  NewHandlerRegistry(),
		logger:    logger,
		queueSize: 256,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers events to all registered handlers.
// Handler errors are logged and never returned: the change is already committed.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			if b.enqueue(ctx, handler, event) {
				continue
			}
			if err := b.dispatchToHandler(ctx, handler, event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

func (b *InMemoryEventBus) enqueue(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.queue == nil || !b.running.Load() {
		return false
	}

	select {
	case b.queue <- delivery{ctx: context.WithoutCancel(ctx), handler: handler, event: event}:
	default:
		b.dropped.Add(1)
		b.logger.Warn("event delivery dropped",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(ErrQueueFull),
		)
	}
	return true
}

// Subscribe registers a handler for specific event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start starts the dispatch workers, if any
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running.Load() {
		return nil
	}
	if b.workers > 0 {
		b.queue = make(chan delivery, b.queueSize)
		for i := 0; i < b.workers; i++ {
			b.wg.Add(1)
			go b.worker(b.queue)
		}
	}
	b.running.Store(true)
	b.logger.Info("event bus started", zap.Int("workers", b.workers))
	return nil
}

// Stop drains queued deliveries and waits for the workers.
// It returns ctx.Err() if the context ends first.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running.Load() {
		b.mu.Unlock()
		return nil
	}
	b.running.Store(false)
	if b.queue != nil {
		close(b.queue)
		b.queue = nil
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped", zap.Int64("dropped", b.dropped.Load()))
		return nil
	case <-ctx.Done():
		b.logger.Warn("event bus stop timed out")
		return ctx.Err()
	}
}

// Dropped returns the number of deliveries discarded because the queue was full
func (b *InMemoryEventBus) Dropped() int64 {
	return b.dropped.Load()
}

func (b *InMemoryEventBus) worker(queue <-chan delivery) {
	defer b.wg.Done()
	for d := range queue {
		if err := b.dispatchToHandler(d.ctx, d.handler, d.event); err != nil {
			b.logger.Error("handler failed to process event",
				zap.String("event_type", d.event.EventType()),
				zap.String("event_id", d.event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

// dispatchToHandler safely dispatches an event to a handler
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
		}
	}()

	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
