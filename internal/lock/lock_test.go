package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, nil), mr
}

func TestRedisLockerExcludesSecondHolder(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()
	key := SellerKey(uuid.New())

	release, err := l.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))

	_, err = l.Acquire(ctx, key, time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()
	release()
	assert.False(t, mr.Exists(key))

	again, err := l.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	again()
}

func TestRedisLockerReleaseKeepsForeignLease(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()
	key := "lock:test"

	release, err := l.Acquire(ctx, key, time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	other, err := l.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)

	release()
	assert.True(t, mr.Exists(key), "stale release must not drop the newer lease")
	other()
	assert.False(t, mr.Exists(key))
}

func TestLocalLockerExpiresLeases(t *testing.T) {
	l := NewLocalLocker()
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	_, err = l.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	now = now.Add(2 * time.Minute)
	second, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	release()
	_, err = l.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	second()
	third, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	third()
}
