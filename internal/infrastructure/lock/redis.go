package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX, so every instance sharing the
// Redis server sees the same leases
type RedisLocker struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisLocker creates a RedisLocker. An empty prefix defaults to "lock:".
func NewRedisLocker(client redis.UniversalClient, keyPrefix string) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = "lock:"
	}
	return &RedisLocker{client: client, keyPrefix: keyPrefix}
}

// TryAcquire implements Locker
func (l *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	fullKey := l.keyPrefix + key
	token := newToken()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}

	return &Lease{
		Key:   key,
		Token: token,
		release: func(ctx context.Context) error {
			n, err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Int()
			if err != nil {
				return fmt.Errorf("failed to release lock %s: %w", key, err)
			}
			if n == 0 {
				return ErrNotHeld
			}
			return nil
		},
	}, nil
}

var _ Locker = (*RedisLocker)(nil)
