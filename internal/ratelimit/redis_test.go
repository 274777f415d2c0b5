package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowKey(t *testing.T) {
	start := time.Unix(1700000040, 0)
	if got := windowKey("10.0.0.1", start); got != "ratelimit:10.0.0.1:1700000040" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		count   int
		allowed bool
		remain  int
	}{
		{1, true, 2},
		{3, true, 0},
		{4, false, 0},
	}
	for _, tt := range tests {
		d := decide(tt.count, 3, 10*time.Second)
		if d.Allowed != tt.allowed || d.Remaining != tt.remain {
			t.Errorf("decide(%d) = %+v", tt.count, d)
		}
		if !d.Allowed && d.RetryAfter != 10*time.Second {
			t.Errorf("expected retry after 10s, got %v", d.RetryAfter)
		}
	}
}

func newTestRedisLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := newRedisLimiter(client, limit, window)
	t.Cleanup(func() { _ = l.Close() })

	now := time.Unix(1700000040, 0)
	l.now = func() time.Time { return now }
	return l, mr, &now
}

func TestRedisLimiterAllow(t *testing.T) {
	l, mr, now := newTestRedisLimiter(t, 2, time.Minute)
	ctx := context.Background()

	d, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	// third request in the same window
	*now = now.Add(20 * time.Second)
	d, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 40*time.Second, d.RetryAfter)

	// other clients have their own counter
	d, err = l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	key := windowKey("10.0.0.1", time.Unix(1700000040, 0).Truncate(time.Minute))
	assert.Equal(t, time.Minute, mr.TTL(key))
	count, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "3", count)

	// next window starts a fresh counter
	*now = now.Add(time.Minute)
	d, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	// expired counters are removed by Redis
	mr.FastForward(time.Minute)
	assert.False(t, mr.Exists(key))
}

func TestRedisLimiterAllowFailsWhenRedisIsDown(t *testing.T) {
	l, mr, _ := newTestRedisLimiter(t, 2, time.Minute)
	mr.Close()

	_, err := l.Allow(context.Background(), "10.0.0.1")
	assert.Error(t, err)
}

func TestNewRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	l, err := NewRedisLimiter(addr, "", 5, time.Minute)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	mr.Close()
	_, err = NewRedisLimiter(addr, "", 5, time.Minute)
	assert.Error(t, err)
}
