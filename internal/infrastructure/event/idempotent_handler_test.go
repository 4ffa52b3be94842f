package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
)

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler_FirstDelivery(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	inner := newTestHandler("order.placed")
	h := NewIdempotentHandler("mail", inner, store, zap.NewNop())

	event := newTestEvent("order.placed")
	require.NoError(t, h.Handle(context.Background(), event))

	assert.Len(t, inner.getHandled(), 1)
	assert.Equal(t, int64(1), h.Stats().EventsProcessed)
	assert.Equal(t, []string{"order.placed"}, h.EventTypes())
}

func TestIdempotentHandler_DuplicateSkipped(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	inner := newTestHandler("order.placed")
	h := NewIdempotentHandler("mail", inner, store, zap.NewNop())

	event := newTestEvent("order.placed")
	require.NoError(t, h.Handle(context.Background(), event))
	require.NoError(t, h.Handle(context.Background(), event))

	assert.Len(t, inner.getHandled(), 1)
	assert.Equal(t, int64(1), h.Stats().EventsDuplicate)
}

func TestIdempotentHandler_KeyedByHandlerName(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	mail := newTestHandler("order.placed")
	feed := newTestHandler("order.placed")
	h1 := NewIdempotentHandler("mail", mail, store, zap.NewNop())
	h2 := NewIdempotentHandler("feed", feed, store, zap.NewNop())

	event := newTestEvent("order.placed")
	require.NoError(t, h1.Handle(context.Background(), event))
	require.NoError(t, h2.Handle(context.Background(), event))

	assert.Len(t, mail.getHandled(), 1)
	assert.Len(t, feed.getHandled(), 1)
}

func TestIdempotentHandler_FailureReleasesKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	inner := newTestHandler("order.placed")
	inner.setError(errors.New("smtp down"))
	h := NewIdempotentHandler("mail", inner, store, zap.NewNop())

	event := newTestEvent("order.placed")
	require.Error(t, h.Handle(context.Background(), event))

	inner.setError(nil)
	require.NoError(t, h.Handle(context.Background(), event))

	assert.Len(t, inner.getHandled(), 2)
	stats := h.Stats()
	assert.Equal(t, int64(1), stats.EventsFailed)
	assert.Equal(t, int64(1), stats.EventsProcessed)
}

func TestIdempotentHandler_StoreErrorStillProcesses(t *testing.T) {
	store := new(MockIdempotencyStore)
	store.On("MarkProcessed", mock.Anything, mock.Anything, 5*time.Minute).
		Return(false, errors.New("redis unavailable"))

	inner := newTestHandler("order.paid")
	h := NewIdempotentHandler("mail", inner, store, nil, WithDedupTTL(5*time.Minute))

	require.NoError(t, h.Handle(context.Background(), newTestEvent("order.paid")))
	assert.Len(t, inner.getHandled(), 1)
	store.AssertExpectations(t)
}

func TestIdempotentHandler_KeyFormat(t *testing.T) {
	store := new(MockIdempotencyStore)
	event := newTestEvent("order.paid")
	key := "feed:" + event.EventID().String()
	store.On("MarkProcessed", mock.Anything, key, DefaultDedupTTL).Return(true, nil)

	h := NewIdempotentHandler("feed", newTestHandler("order.paid"), store, zap.NewNop())
	require.NoError(t, h.Handle(context.Background(), event))
	store.AssertExpectations(t)
}

func TestIdempotentHandler_ConcurrentDuplicates(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	inner := newTestHandler("order.placed")
	h := NewIdempotentHandler("mail", inner, store, zap.NewNop())

	event := &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent("order.placed", "Order", uuid.New())}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Handle(context.Background(), event)
		}()
	}
	wg.Wait()

	assert.Len(t, inner.getHandled(), 1)
	assert.Equal(t, int64(19), h.Stats().EventsDuplicate)
}
