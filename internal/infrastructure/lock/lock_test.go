package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("second acquire is refused until release", func(t *testing.T) {
		_, client := newTestRedis(t)
		locker := NewRedisLocker(client, "sweep:")

		lease, err := locker.TryAcquire(ctx, "tenant-1", time.Minute)
		require.NoError(t, err)
		require.NotNil(t, lease)

		again, err := locker.TryAcquire(ctx, "tenant-1", time.Minute)
		require.NoError(t, err)
		assert.Nil(t, again)

		other, err := locker.TryAcquire(ctx, "tenant-2", time.Minute)
		require.NoError(t, err)
		assert.NotNil(t, other)

		require.NoError(t, lease.Release(ctx))
		after, err := locker.TryAcquire(ctx, "tenant-1", time.Minute)
		require.NoError(t, err)
		assert.NotNil(t, after)
	})

	t.Run("key carries prefix and ttl", func(t *testing.T) {
		mr, client := newTestRedis(t)
		locker := NewRedisLocker(client, "")

		lease, err := locker.TryAcquire(ctx, "billing", 30*time.Second)
		require.NoError(t, err)
		require.NotNil(t, lease)

		val, err := mr.Get("lock:billing")
		require.NoError(t, err)
		assert.Equal(t, lease.Token, val)
		assert.Equal(t, 30*time.Second, mr.TTL("lock:billing"))
	})

	t.Run("expired lease cannot release the new holder", func(t *testing.T) {
		mr, client := newTestRedis(t)
		locker := NewRedisLocker(client, "")

		stale, err := locker.TryAcquire(ctx, "k", time.Second)
		require.NoError(t, err)
		require.NotNil(t, stale)

		mr.FastForward(2 * time.Second)
		current, err := locker.TryAcquire(ctx, "k", time.Minute)
		require.NoError(t, err)
		require.NotNil(t, current)

		assert.ErrorIs(t, stale.Release(ctx), ErrNotHeld)
		assert.True(t, mr.Exists("lock:k"))
	})

	t.Run("redis failure is reported", func(t *testing.T) {
		mr, client := newTestRedis(t)
		locker := NewRedisLocker(client, "")
		mr.Close()

		lease, err := locker.TryAcquire(ctx, "k", time.Minute)
		assert.Error(t, err)
		assert.Nil(t, lease)
	})
}

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC)
	locker := NewLocalLocker()
	locker.now = func() time.Time { return now }

	lease, err := locker.TryAcquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, lease)

	again, err := locker.TryAcquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, again)

	now = now.Add(2 * time.Minute)
	taken, err := locker.TryAcquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, taken)

	assert.ErrorIs(t, lease.Release(ctx), ErrNotHeld)
	assert.NoError(t, taken.Release(ctx))

	var nilLease *Lease
	assert.NoError(t, nilLease.Release(ctx))
}
