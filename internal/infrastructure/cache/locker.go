package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLockKeyPrefix namespaces lock keys in Redis
const DefaultLockKeyPrefix = "fieldbook:lock:"

// LockRetry controls how long Obtain waits for a held lock
type LockRetry struct {
	Interval   time.Duration
	MaxRetries int
}

// DefaultLockRetry waits up to roughly one second
func DefaultLockRetry() LockRetry {
	return LockRetry{Interval: 100 * time.Millisecond, MaxRetries: 10}
}

// RedisLocker hands out distributed locks backed by redislock
type RedisLocker struct {
	client    *redislock.Client
	keyPrefix string
	retry     LockRetry
}

// NewRedisLocker creates a locker on a shared Redis client
func NewRedisLocker(client redis.UniversalClient, keyPrefix string, retry LockRetry) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = DefaultLockKeyPrefix
	}
	return &RedisLocker{
		client:    redislock.New(client),
		keyPrefix: keyPrefix,
		retry:     retry,
	}
}

// Obtain acquires the lock for key, retrying while another holder has it.
// Returns shared.ErrLockNotObtained once retries are exhausted.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.retry.Interval), l.retry.MaxRetries),
	}
	lock, err := l.client.Obtain(ctx, l.keyPrefix+key, ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %q: %w", key, err)
	}
	return &redisLock{lock: lock}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

// Release is idempotent; releasing an expired lock is not an error
func (r *redisLock) Release(ctx context.Context) error {
	err := r.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

// InMemoryLocker is a process-local Locker used when Redis is not configured
type InMemoryLocker struct {
	mu    sync.Mutex
	held  map[string]heldLock
	retry LockRetry
}

type heldLock struct {
	token     string
	expiresAt time.Time
}

// NewInMemoryLocker creates a process-local locker
func NewInMemoryLocker(retry LockRetry) *InMemoryLocker {
	return &InMemoryLocker{
		held:  make(map[string]heldLock),
		retry: retry,
	}
}

// Obtain acquires the lock for key with the same retry semantics as RedisLocker
func (l *InMemoryLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	for attempt := 0; ; attempt++ {
		if token, ok := l.tryObtain(key, ttl); ok {
			return &memoryLock{locker: l, key: key, token: token}, nil
		}
		if attempt >= l.retry.MaxRetries {
			return nil, shared.ErrLockNotObtained
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry.Interval):
		}
	}
}

func (l *InMemoryLocker) tryObtain(key string, ttl time.Duration) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if h, ok := l.held[key]; ok && now.Before(h.expiresAt) {
		return "", false
	}
	token := uuid.NewString()
	l.held[key] = heldLock{token: token, expiresAt: now.Add(ttl)}
	return token, true
}

func (l *InMemoryLocker) release(key, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// a lock that expired and was re-acquired belongs to someone else
	if h, ok := l.held[key]; ok && h.token == token {
		delete(l.held, key)
	}
}

type memoryLock struct {
	locker *InMemoryLocker
	key    string
	token  string
}

func (m *memoryLock) Release(ctx context.Context) error {
	m.locker.release(m.key, m.token)
	return nil
}

var (
	_ shared.Locker = (*RedisLocker)(nil)
	_ shared.Locker = (*InMemoryLocker)(nil)
)
