package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestDistributedRateLimiter_Allow(t *testing.T) {
	client, _ := newTestRedis(t)
	rl := NewDistributedRateLimiter(client, &RateLimitConfig{RequestsPerWindow: 3, WindowDuration: time.Minute}, "test")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := rl.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}

	allowed, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other keys have their own budget.
	allowed, err = rl.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDistributedRateLimiter_WindowResets(t *testing.T) {
	client, mr := newTestRedis(t)
	rl := NewDistributedRateLimiter(client, &RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}, "test")
	ctx := context.Background()

	allowed, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, allowed)

	mr.FastForward(2 * time.Minute)

	allowed, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDistributedRateLimiter_Remaining(t *testing.T) {
	client, _ := newTestRedis(t)
	rl := NewDistributedRateLimiter(client, &RateLimitConfig{RequestsPerWindow: 5, WindowDuration: time.Minute}, "test")
	ctx := context.Background()

	remaining, err := rl.Remaining(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)

	_, err = rl.Allow(ctx, "k")
	require.NoError(t, err)

	remaining, err = rl.Remaining(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestDistributedRateLimiter_FailsOpenWhenRedisDown(t *testing.T) {
	client, mr := newTestRedis(t)
	rl := NewDistributedRateLimiter(client, &RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}, "test")
	mr.Close()

	allowed, err := rl.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, allowed)
}

func TestSubmissionLimiter_SeparateAxes(t *testing.T) {
	client, _ := newTestRedis(t)
	l := NewSubmissionLimiter(client)
	ctx := context.Background()

	// Exhaust the email budget; the IP budget is untouched.
	for i := 0; i < PerEmailSubmissionConfig().RequestsPerWindow; i++ {
		require.True(t, l.AllowEmail(ctx, "a@acme.com"))
	}
	assert.False(t, l.AllowEmail(ctx, "a@acme.com"))
	assert.True(t, l.AllowEmail(ctx, "b@blue.com"))
	assert.True(t, l.AllowIP(ctx, "10.0.0.1"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:4711"
	assert.Equal(t, "192.0.2.10:4711", ClientIP(r))

	r.Header.Set("X-Real-IP", "192.0.2.20")
	assert.Equal(t, "192.0.2.20", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "192.0.2.30")
	assert.Equal(t, "192.0.2.30", ClientIP(r))
}
