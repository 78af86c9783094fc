//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	documentapp "github.com/fieldbook/backend/internal/application/document"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/auth"
	"github.com/fieldbook/backend/internal/infrastructure/cache"
	"github.com/fieldbook/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisBackends(t *testing.T, db int) *cache.Backends {
	t.Helper()
	cfg := NewTestRedis(t, db)
	backends, err := cache.NewBackendFactory(cfg,
		cache.WithInMemoryFallback(false),
		cache.WithLockRetry(cache.LockRetry{Interval: 20 * time.Millisecond, MaxRetries: 3}),
	).Create(testutil.ContextWithTimeout(t, 10*time.Second))
	require.NoError(t, err)
	require.True(t, backends.Distributed())
	require.NoError(t, backends.Client.FlushDB(context.Background()).Err())
	t.Cleanup(func() { _ = backends.Close() })
	return backends
}

func TestRedisLocker(t *testing.T) {
	backends := newRedisBackends(t, 1)
	ctx := testutil.ContextWithTimeout(t, 10*time.Second)

	held, err := backends.Locker.Obtain(ctx, "estimate:lock-test", 5*time.Second)
	require.NoError(t, err)

	_, err = backends.Locker.Obtain(ctx, "estimate:lock-test", 5*time.Second)
	assert.ErrorIs(t, err, shared.ErrLockNotObtained)

	other, err := backends.Locker.Obtain(ctx, "estimate:another", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, held.Release(ctx))
	again, err := backends.Locker.Obtain(ctx, "estimate:lock-test", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestRedisIdempotencyStore(t *testing.T) {
	backends := newRedisBackends(t, 2)
	store := backends.Idempotency
	ctx := testutil.ContextWithTimeout(t, 10*time.Second)

	marked, err := store.MarkProcessed(ctx, "conversion:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = store.MarkProcessed(ctx, "conversion:abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, marked, "second mark loses")

	processed, err := store.IsProcessed(ctx, "conversion:abc")
	require.NoError(t, err)
	assert.True(t, processed)

	require.NoError(t, store.Release(ctx, "conversion:abc"))
	processed, err = store.IsProcessed(ctx, "conversion:abc")
	require.NoError(t, err)
	assert.False(t, processed)

	t.Run("keys expire", func(t *testing.T) {
		marked, err := store.MarkProcessed(ctx, "conversion:short", 200*time.Millisecond)
		require.NoError(t, err)
		require.True(t, marked)
		testutil.RequireEventually(t, func() bool {
			processed, err := store.IsProcessed(ctx, "conversion:short")
			return err == nil && !processed
		}, 3*time.Second, 50*time.Millisecond)
	})
}

func TestRedisTokenBlacklist(t *testing.T) {
	backends := newRedisBackends(t, 3)
	blacklist := auth.NewRedisTokenBlacklist(backends.Client)
	ctx := testutil.ContextWithTimeout(t, 10*time.Second)

	listed, err := blacklist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, listed)

	require.NoError(t, blacklist.Revoke(ctx, "jti-1", time.Minute))
	listed, err = blacklist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, listed)

	owner := testutil.TestOwnerID().String()
	issuedBefore := time.Now().Add(-time.Minute)
	require.NoError(t, blacklist.RevokeOwner(ctx, owner, time.Hour))

	invalid, err := blacklist.IsOwnerRevoked(ctx, owner, issuedBefore)
	require.NoError(t, err)
	assert.True(t, invalid)

	invalid, err = blacklist.IsOwnerRevoked(ctx, owner, time.Now().Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, invalid, "tokens issued after the cutoff stay valid")

	invalid, err = blacklist.IsOwnerRevoked(ctx, testutil.OtherOwnerID().String(), issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalid)
}

func TestConversionWithRedisBackends(t *testing.T) {
	backends := newRedisBackends(t, 4)
	s := newAPIServer(t, backends)
	owner := testutil.TestOwnerID()
	estimateID := approvedEstimate(t, s, owner)
	api := s.clientFor(t, owner)

	path := "/api/v1/estimates/" + estimateID.String() + "/convert"
	convert := documentapp.ConvertEstimateRequest{BillingType: "final"}
	first := testutil.Decode[documentapp.ConversionResponse](t, api.Do(t, http.MethodPost, path, convert), http.StatusCreated).Data
	assertAmount(t, "5845.5", first.Invoice.Total, "final total")

	again := testutil.Decode[documentapp.ConversionResponse](t, api.Do(t, http.MethodPost, path, convert), http.StatusOK).Data
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Invoice.ID, again.Invoice.ID)

	results := convertConcurrently(s.Estimates, owner, estimateID, convert, 4)
	for _, r := range results {
		if r.err == nil {
			assert.True(t, r.resp.Replayed)
			assert.Equal(t, first.Invoice.ID, r.resp.Invoice.ID)
		}
	}
	assert.Equal(t, int64(1), countInvoicesForEstimate(t, s.DB, estimateID))
}
