package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
)

// testEvent implements DomainEvent for testing
type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
		Data:            "test data",
	}
}

// testHandler implements EventHandler for testing
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) setError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	handler := newTestHandler("order.placed")
	bus.Subscribe(handler, "order.placed")

	event := newTestEvent("order.placed")
	err := bus.Publish(context.Background(), event)

	require.NoError(t, err)
	assert.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_Publish_MultipleEvents(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	handler := newTestHandler("order.placed")
	bus.Subscribe(handler, "order.placed")

	event1 := newTestEvent("order.placed")
	event2 := newTestEvent("order.placed")
	err := bus.Publish(context.Background(), event1, event2)

	require.NoError(t, err)
	assert.Len(t, handler.getHandled(), 2)
}

func TestInMemoryEventBus_Publish_MultipleHandlers(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	handler1 := newTestHandler("order.placed")
	handler2 := newTestHandler("order.placed")
	bus.Subscribe(handler1, "order.placed")
	bus.Subscribe(handler2, "order.placed")

	event := newTestEvent("order.placed")
	err := bus.Publish(context.Background(), event)

	require.NoError(t, err)
	assert.Len(t, handler1.getHandled(), 1)
	assert.Len(t, handler2.getHandled(), 1)
}

func TestInMemoryEventBus_Publish_WildcardHandler(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	wildcardHandler := newTestHandler() // No event types = wildcard
	bus.Subscribe(wildcardHandler)

	event := newTestEvent("product.published")
	err := bus.Publish(context.Background(), event)

	require.NoError(t, err)
	assert.Len(t, wildcardHandler.getHandled(), 1)
}

func TestInMemoryEventBus_Publish_HandlerError(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	handler1 := newTestHandler("order.placed")
	handler1.setError(errors.New("handler error"))
	handler2 := newTestHandler("order.placed")
	bus.Subscribe(handler1, "order.placed")
	bus.Subscribe(handler2, "order.placed")

	event := newTestEvent("order.placed")
	err := bus.Publish(context.Background(), event)

	// Should not return error, but continue with other handlers
	require.NoError(t, err)
	assert.Len(t, handler1.getHandled(), 1)
	assert.Len(t, handler2.getHandled(), 1)
}

func TestInMemoryEventBus_Publish_NoMatchingHandlers(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	handler := newTestHandler("order.shipped")
	bus.Subscribe(handler, "order.shipped")

	event := newTestEvent("order.placed")
	err := bus.Publish(context.Background(), event)

	require.NoError(t, err)
	assert.Len(t, handler.getHandled(), 0)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	handler := newTestHandler("order.placed")
	bus.Subscribe(handler, "order.placed")

	event1 := newTestEvent("order.placed")
	_ = bus.Publish(context.Background(), event1)
	assert.Len(t, handler.getHandled(), 1)

	bus.Unsubscribe(handler)

	event2 := newTestEvent("order.placed")
	_ = bus.Publish(context.Background(), event2)
	assert.Len(t, handler.getHandled(), 1) // Still 1, not 2
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	logger := zap.NewNop()
	bus := NewInMemoryEventBus(logger)

	ctx := context.Background()
	err := bus.Start(ctx)
	require.NoError(t, err)

	// Can still publish after start
	handler := newTestHandler("order.placed")
	bus.Subscribe(handler, "order.placed")
	event := newTestEvent("order.placed")
	err = bus.Publish(ctx, event)
	require.NoError(t, err)
	assert.Len(t, handler.getHandled(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = bus.Stop(ctx)
	require.NoError(t, err)
}

func TestInMemoryEventBus_AsyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithWorkers(2, 16))
	handler := newTestHandler("order.placed")
	bus.Subscribe(handler)
	require.NoError(t, bus.Start(context.Background()))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(context.Background(), newTestEvent("order.placed")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))

	assert.Len(t, handler.getHandled(), 5)
	assert.Zero(t, bus.Dropped())
}

func TestInMemoryEventBus_AsyncDetachesRequestContext(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithWorkers(1, 4))
	seen := make(chan error, 1)
	bus.Subscribe(handlerFunc(func(ctx context.Context, _ shared.DomainEvent) error {
		seen <- ctx.Err()
		return nil
	}), "order.paid")
	require.NoError(t, bus.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(ctx, newTestEvent("order.paid")))
	cancel()

	select {
	case err := <-seen:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}
	require.NoError(t, bus.Stop(context.Background()))
}

func TestInMemoryEventBus_AsyncQueueFull(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithWorkers(1, 1))
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	bus.Subscribe(handlerFunc(func(context.Context, shared.DomainEvent) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}), "order.placed")
	require.NoError(t, bus.Start(context.Background()))

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("order.placed")))
	<-started
	// one queued, the rest dropped
	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), newTestEvent("order.placed")))
	}
	assert.Equal(t, int64(2), bus.Dropped())

	close(release)
	require.NoError(t, bus.Stop(context.Background()))
}

func TestInMemoryEventBus_SyncBeforeStart(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithWorkers(2, 8))
	handler := newTestHandler("order.placed")
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("order.placed")))
	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_HandlerPanicRecovered(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(handlerFunc(func(context.Context, shared.DomainEvent) error {
		panic("boom")
	}), "order.placed")
	after := newTestHandler("order.placed")
	bus.Subscribe(after)

	assert.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newTestEvent("order.placed"))
	})
	assert.Len(t, after.getHandled(), 1)
}

type handlerFunc func(ctx context.Context, event shared.DomainEvent) error

func (f handlerFunc) Handle(ctx context.Context, event shared.DomainEvent) error {
	return f(ctx, event)
}
func (f handlerFunc) EventTypes() []string { return nil }
