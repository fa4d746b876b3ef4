package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker implements Locker inside one process. It is used when Redis is
// not configured and only a single instance runs the scheduler.
type LocalLocker struct {
	mu     sync.Mutex
	leases map[string]localLease
	now    func() time.Time
}

type localLease struct {
	token     string
	expiresAt time.Time
}

// NewLocalLocker creates an empty LocalLocker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{leases: make(map[string]localLease), now: time.Now}
}

// TryAcquire implements Locker
func (l *LocalLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (*Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.leases[key]; ok && now.Before(held.expiresAt) {
		return nil, nil
	}

	token := newToken()
	l.leases[key] = localLease{token: token, expiresAt: now.Add(ttl)}
	return &Lease{
		Key:   key,
		Token: token,
		release: func(context.Context) error {
			l.mu.Lock()
			defer l.mu.Unlock()
			held, ok := l.leases[key]
			if !ok || held.token != token {
				return ErrNotHeld
			}
			delete(l.leases, key)
			return nil
		},
	}, nil
}

var _ Locker = (*LocalLocker)(nil)
