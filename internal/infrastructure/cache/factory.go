package cache

import (
	"context"
	"fmt"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backends groups the coordination primitives shared by the services.
// Client is nil when the in-memory fallback is in use.
type Backends struct {
	Client      *redis.Client
	Idempotency shared.IdempotencyStore
	Locker      shared.Locker
}

// Close releases the idempotency store and the Redis client
func (b *Backends) Close() error {
	var firstErr error
	if b.Idempotency != nil {
		firstErr = b.Idempotency.Close()
	}
	if b.Client != nil {
		if err := b.Client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Distributed reports whether the backends are shared across instances
func (b *Backends) Distributed() bool {
	return b.Client != nil
}

// BackendFactory creates idempotency stores and lockers based on configuration
type BackendFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	lockRetry             LockRetry
}

// BackendFactoryOption is a functional option for configuring the factory
type BackendFactoryOption func(*BackendFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) BackendFactoryOption {
	return func(f *BackendFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory backends when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) BackendFactoryOption {
	return func(f *BackendFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithLockRetry overrides the lock retry policy
func WithLockRetry(retry LockRetry) BackendFactoryOption {
	return func(f *BackendFactory) {
		f.lockRetry = retry
	}
}

// NewBackendFactory creates a new factory
func NewBackendFactory(cfg config.RedisConfig, opts ...BackendFactoryOption) *BackendFactory {
	f := &BackendFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		lockRetry:             DefaultLockRetry(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateInMemory creates process-local backends.
// WARNING: they do not share state across instances, so two instances can
// convert the same estimate concurrently.
func (f *BackendFactory) CreateInMemory() *Backends {
	return &Backends{
		Idempotency: NewInMemoryIdempotencyStore(),
		Locker:      NewInMemoryLocker(f.lockRetry),
	}
}

// CreateRedis creates Redis-backed backends on a fresh client
func (f *BackendFactory) CreateRedis(ctx context.Context) (*Backends, error) {
	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		return nil, err
	}
	return &Backends{
		Client:      client,
		Idempotency: NewRedisIdempotencyStore(client, DefaultIdempotencyKeyPrefix),
		Locker:      NewRedisLocker(client, DefaultLockKeyPrefix, f.lockRetry),
	}, nil
}

// Create picks Redis when it is configured and reachable, otherwise falls
// back to in-memory backends if allowed
func (f *BackendFactory) Create(ctx context.Context) (*Backends, error) {
	if !f.redisConfig.Enabled() {
		f.logger.Info("Redis not configured, using in-memory idempotency store and locker")
		return f.CreateInMemory(), nil
	}

	backends, err := f.CreateRedis(ctx)
	if err == nil {
		f.logger.Info("using Redis idempotency store and locker", zap.String("addr", f.redisConfig.Addr()))
		return backends, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory backends. "+
		"Concurrent conversions across instances are not serialised.",
		zap.Error(err),
	)
	return f.CreateInMemory(), nil
}
