package shared

import (
	"context"
	"time"
)

// IdempotencyStore records keys of work that must happen once. Estimate
// conversion marks its conversion key before writing the invoice, and
// event handlers mark the event ID before delivering a notification.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It reports false when another
	// caller already holds the claim.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Release drops the claim so a failed operation can be retried
	Release(ctx context.Context, key string) error
	Close() error
}

// IdempotencyConfig controls event handler de-duplication
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps event keys for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: 24 * time.Hour, Enabled: true}
}
