package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand so expiry is tested without sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := NewInMemoryIdempotencyStore(withClock(clock.Now), WithSweepInterval(time.Hour))
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_Claims(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()
	const key = "stripe:evt_1"

	fresh, err := store.MarkProcessed(ctx, key, 72*time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.MarkProcessed(ctx, key, 72*time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh, "redelivery within the ttl is a duplicate")

	processed, err := store.IsProcessed(ctx, key)
	require.NoError(t, err)
	assert.True(t, processed)

	clock.Advance(72 * time.Hour)

	processed, err = store.IsProcessed(ctx, key)
	require.NoError(t, err)
	assert.False(t, processed, "claim ends exactly at the ttl")

	fresh, err = store.MarkProcessed(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh, "an expired claim can be taken again")
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	const key = "stripe:evt_release"

	_, err := store.MarkProcessed(ctx, key, time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Release(ctx, key))
	assert.Zero(t, store.Len())

	fresh, err := store.MarkProcessed(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh, "a released event is processed on retry")

	assert.NoError(t, store.Release(ctx, "stripe:evt_unknown"))
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"stripe:evt_a", "stripe:evt_b"} {
		_, err := store.MarkProcessed(ctx, key, time.Minute)
		require.NoError(t, err)
	}
	_, err := store.MarkProcessed(ctx, "order-email:evt_c", 24*time.Hour)
	require.NoError(t, err)

	assert.Zero(t, store.sweep(), "nothing has expired yet")

	clock.Advance(time.Hour)
	assert.Equal(t, 2, store.sweep())
	assert.Equal(t, 1, store.Len())

	processed, err := store.IsProcessed(ctx, "order-email:evt_c")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_SweeperRuns(t *testing.T) {
	clock := newFakeClock()
	store := NewInMemoryIdempotencyStore(withClock(clock.Now), WithSweepInterval(5*time.Millisecond))
	defer store.Close()

	_, err := store.MarkProcessed(context.Background(), "stripe:evt_old", time.Minute)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		fresh atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkProcessed(ctx, "stripe:evt_race", time.Hour)
			if err == nil && ok {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fresh.Load(), "exactly one delivery wins the claim")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
