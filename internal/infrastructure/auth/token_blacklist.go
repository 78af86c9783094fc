package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes access tokens before they expire. A single token
// is revoked by its JTI on logout; all of an owner's tokens are revoked by
// recording a cutoff that earlier-issued tokens fail.
type TokenBlacklist interface {
	// Revoke blocks one token. ttl should cover the token's remaining life.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeOwner blocks every token issued to ownerID up to now
	RevokeOwner(ctx context.Context, ownerID string, ttl time.Duration) error
	IsOwnerRevoked(ctx context.Context, ownerID string, issuedAt time.Time) (bool, error)
}

// DefaultBlacklistKeyPrefix namespaces blacklist keys in Redis
const DefaultBlacklistKeyPrefix = "fieldbook:token:blacklist:"

// RedisTokenBlacklist shares revocations across API instances
type RedisTokenBlacklist struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisTokenBlacklist creates a blacklist on a shared Redis client
func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client, prefix: DefaultBlacklistKeyPrefix}
}

func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.prefix+"jti:"+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+"jti:"+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

// RevokeOwner stores the cutoff in Unix seconds, the precision of the JWT
// iat claim
func (b *RedisTokenBlacklist) RevokeOwner(ctx context.Context, ownerID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.prefix+"owner:"+ownerID, time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke owner tokens: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsOwnerRevoked(ctx context.Context, ownerID string, issuedAt time.Time) (bool, error) {
	cutoff, err := b.client.Get(ctx, b.prefix+"owner:"+ownerID).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check owner revocation: %w", err)
	}
	return issuedAt.Unix() <= cutoff, nil
}

// InMemoryTokenBlacklist serves a single instance when Redis is not
// configured. Revocations are lost on restart.
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	now     func() time.Time
	jtis    map[string]time.Time
	cutoffs map[string]time.Time
}

// NewInMemoryTokenBlacklist creates an empty blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		now:     time.Now,
		jtis:    make(map[string]time.Time),
		cutoffs: make(map[string]time.Time),
	}
}

// WithClock replaces the time source, for tests
func (b *InMemoryTokenBlacklist) WithClock(now func() time.Time) *InMemoryTokenBlacklist {
	b.now = now
	return b
}

func (b *InMemoryTokenBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = b.now().Add(ttl)
	return nil
}

// IsRevoked drops the entry once its ttl has passed
func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	until, ok := b.jtis[jti]
	if !ok {
		return false, nil
	}
	if b.now().After(until) {
		delete(b.jtis, jti)
		return false, nil
	}
	return true, nil
}

func (b *InMemoryTokenBlacklist) RevokeOwner(_ context.Context, ownerID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cutoffs[ownerID] = b.now()
	return nil
}

func (b *InMemoryTokenBlacklist) IsOwnerRevoked(_ context.Context, ownerID string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cutoff, ok := b.cutoffs[ownerID]
	return ok && !issuedAt.After(cutoff), nil
}

var (
	_ TokenBlacklist = (*RedisTokenBlacklist)(nil)
	_ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
)
