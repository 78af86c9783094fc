package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fieldbook/backend/internal/domain/shared"
)

const memorySweepInterval = time.Minute

// InMemoryIdempotencyStore keeps processed keys in a map. Keys are not
// shared across processes, so it only suits a single API instance and tests.
// Expired keys are swept lazily by writes.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	now       func() time.Time
	expiry    map[string]time.Time
	nextSweep time.Time
}

// MemoryStoreOption configures an InMemoryIdempotencyStore
type MemoryStoreOption func(*InMemoryIdempotencyStore)

// WithStoreClock replaces the store's time source
func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(s *InMemoryIdempotencyStore) { s.now = now }
}

// NewInMemoryIdempotencyStore creates an empty store
func NewInMemoryIdempotencyStore(opts ...MemoryStoreOption) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{now: time.Now, expiry: make(map[string]time.Time)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkProcessed claims key for ttl. It reports false while an earlier
// claim is still live.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	if until, ok := s.expiry[key]; ok && now.Before(until) {
		return false, nil
	}
	s.expiry[key] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.expiry[key]
	return ok && s.now().Before(until), nil
}

// Release drops a claim so the operation can run again
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expiry, key)
	return nil
}

// Close drops every claim
func (s *InMemoryIdempotencyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.expiry)
	return nil
}

// Len returns the number of stored claims, live or not yet swept
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiry)
}

// sweep removes expired claims at most once per memorySweepInterval.
// Callers hold mu.
func (s *InMemoryIdempotencyStore) sweep(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for key, until := range s.expiry {
		if !now.Before(until) {
			delete(s.expiry, key)
		}
	}
	s.nextSweep = now.Add(memorySweepInterval)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
