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

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	clock := newStepClock()
	store := NewInMemoryIdempotencyStore(WithStoreClock(clock.Now))
	ctx := context.Background()
	key := "conversion:est-1:final"

	tests := []struct {
		name      string
		advance   time.Duration
		wantNew   bool
		processed bool
	}{
		{"first claim wins", 0, true, true},
		{"second claim inside ttl loses", 30 * time.Minute, false, true},
		{"claim after ttl wins again", 31 * time.Minute, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.Advance(tt.advance)
			isNew, err := store.MarkProcessed(ctx, key, time.Hour)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNew, isNew)

			processed, err := store.IsProcessed(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, tt.processed, processed)
		})
	}

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_IsProcessedAfterExpiry(t *testing.T) {
	clock := newStepClock()
	store := NewInMemoryIdempotencyStore(WithStoreClock(clock.Now))
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "short", time.Minute)
	require.NoError(t, err)
	clock.Advance(time.Minute)

	processed, err := store.IsProcessed(ctx, "short")
	require.NoError(t, err)
	assert.False(t, processed, "a claim ends exactly at its ttl")
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	ctx := context.Background()
	key := "conversion:est-9:progress:50:rough-in"

	_, err := store.MarkProcessed(ctx, key, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, key))

	processed, err := store.IsProcessed(ctx, key)
	require.NoError(t, err)
	assert.False(t, processed)

	isNew, err := store.MarkProcessed(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew, "released key can be claimed again")

	assert.NoError(t, store.Release(ctx, "never-marked"))
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	clock := newStepClock()
	store := NewInMemoryIdempotencyStore(WithStoreClock(clock.Now))
	ctx := context.Background()

	for _, key := range []string{"a", "b"} {
		_, err := store.MarkProcessed(ctx, key, time.Second)
		require.NoError(t, err)
	}
	_, err := store.MarkProcessed(ctx, "long", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())

	clock.Advance(10 * time.Second)
	_, err = store.MarkProcessed(ctx, "c", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 4, store.Len(), "no sweep inside the interval")

	clock.Advance(memorySweepInterval)
	_, err = store.MarkProcessed(ctx, "d", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len(), "expired claims swept")

	require.NoError(t, store.Close())
	assert.Zero(t, store.Len())
	assert.NoError(t, store.Close())
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if isNew, err := store.MarkProcessed(ctx, "concurrent", time.Hour); err == nil && isNew {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
