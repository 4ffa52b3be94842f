package cache

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps dedup keys for webhook events and bus handlers in
// process memory. Duplicates are only detected within one instance.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time

	sweepEvery time.Duration
	stop       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
}

// InMemoryIdempotencyOption configures an InMemoryIdempotencyStore
type InMemoryIdempotencyOption func(*InMemoryIdempotencyStore)

// WithSweepInterval sets how often expired keys are dropped
func WithSweepInterval(d time.Duration) InMemoryIdempotencyOption {
	return func(s *InMemoryIdempotencyStore) {
		if d > 0 {
			s.sweepEvery = d
		}
	}
}

func withClock(now func() time.Time) InMemoryIdempotencyOption {
	return func(s *InMemoryIdempotencyStore) { s.now = now }
}

// NewInMemoryIdempotencyStore creates a store and starts its sweeper. Call Close to stop it.
func NewInMemoryIdempotencyStore(opts ...InMemoryIdempotencyOption) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		expires:    make(map[string]time.Time),
		now:        time.Now,
		sweepEvery: defaultSweepInterval,
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.sweeper()
	return s
}

// MarkProcessed claims key for ttl. It returns false while an earlier claim is live.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether key holds a live claim
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expires[key]
	return ok && s.now().Before(exp), nil
}

// Release drops a claim so a retried delivery is processed again
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expires, key)
	return nil
}

// Len returns the number of stored keys, expired ones included until the next sweep
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

// Close stops the sweeper. It is safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.stopped
	})
	return nil
}

func (s *InMemoryIdempotencyStore) sweeper() {
	defer close(s.stopped)

	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dropped := 0
	for key, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, key)
			dropped++
		}
	}
	return dropped
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
