package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_BurstWithinCapacity(t *testing.T) {
	limiter := NewLimiter(Config{
		Capacity:       60,
		RefillTokens:   60,
		RefillInterval: time.Second,
	})

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 60; i++ {
		require.NoError(t, limiter.Acquire(ctx, "example.com"))
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond, "burst within capacity must not wait")
}

func TestLimiter_WaitsForNextToken(t *testing.T) {
	limiter := NewLimiter(Config{
		Capacity:       60,
		RefillTokens:   60,
		RefillInterval: time.Second,
	})

	ctx := context.Background()
	for i := 0; i < 60; i++ {
		require.NoError(t, limiter.Acquire(ctx, "example.com"))
	}

	start := time.Now()
	err := limiter.Acquire(ctx, "example.com")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Greater(t, elapsed, time.Duration(0))
	assert.LessOrEqual(t, elapsed, time.Second)
}

func TestLimiter_PerKeyBucketsAreIndependent(t *testing.T) {
	limiter := NewLimiter(Config{
		Capacity:       2,
		RefillTokens:   2,
		RefillInterval: time.Hour,
	})
	// global capacity is shared, per-key is not
	wait, ok := limiter.TryAcquire("a.com")
	require.True(t, ok)
	assert.Zero(t, wait)

	_, ok = limiter.TryAcquire("b.com")
	require.True(t, ok)

	// global bucket is now empty, both keys still hold a token
	wait, ok = limiter.TryAcquire("a.com")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
}

func TestLimiter_KeyBucketExhaustion(t *testing.T) {
	limiter := NewLimiter(Config{
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Hour,
	})

	_, ok := limiter.TryAcquire("a.com")
	require.True(t, ok)

	wait, ok := limiter.TryAcquire("a.com")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, time.Hour)
}

func TestLimiter_LazyRefill(t *testing.T) {
	limiter := NewLimiter(Config{
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Second,
	})

	now := time.Now()
	limiter.nowFn = func() time.Time { return now }
	limiter.global = limiter.newBucket()

	_, ok := limiter.TryAcquire("a.com")
	require.True(t, ok)
	_, ok = limiter.TryAcquire("a.com")
	require.False(t, ok)

	// advance the clock one full interval, a single token is credited back
	now = now.Add(time.Second)
	_, ok = limiter.TryAcquire("a.com")
	assert.True(t, ok)
	_, ok = limiter.TryAcquire("a.com")
	assert.False(t, ok)
}

func TestLimiter_AcquireCancellable(t *testing.T) {
	limiter := NewLimiter(Config{
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Hour,
	})

	ctx := context.Background()
	require.NoError(t, limiter.Acquire(ctx, "a.com"))

	cancelCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- limiter.Acquire(cancelCtx, "a.com")
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}
}
