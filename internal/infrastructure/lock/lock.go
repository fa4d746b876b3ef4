// Package lock provides short-lived exclusive leases used to keep scheduled
// sweeps from running twice for the same tenant.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotHeld is returned when releasing a lease that expired or was taken over
var ErrNotHeld = errors.New("lock not held")

// Locker hands out exclusive leases on string keys
type Locker interface {
	// TryAcquire takes the lease on key for ttl. It returns nil without error
	// when another holder owns the key.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error)
}

// Lease is a held lock; Release gives it back early
type Lease struct {
	Key     string
	Token   string
	release func(ctx context.Context) error
}

// Release frees the lease if it is still owned by this holder
func (l *Lease) Release(ctx context.Context) error {
	if l == nil || l.release == nil {
		return nil
	}
	return l.release(ctx)
}

func newToken() string {
	return uuid.NewString()
}
