package shared

import (
	"context"
	"time"
)

// Lock is a held mutual-exclusion lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker obtains named locks shared by every instance of the service.
// Obtain returns ErrLockNotObtained when the lock is still held after
// the locker's retry budget.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}
