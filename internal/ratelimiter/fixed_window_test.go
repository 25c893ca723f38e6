package ratelimiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixedWindowAllowsUpToLimit(t *testing.T) {
	rl := NewFixedWindowLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow(ctx, "10.0.0.1")
		require.True(t, ok, "request %d should pass", i+1)
	}

	ok, retryAfter := rl.Allow(ctx, "10.0.0.1")
	require.False(t, ok)
	require.Equal(t, time.Minute, retryAfter)
}

func TestFixedWindowKeysAreIndependent(t *testing.T) {
	rl := NewFixedWindowLimiter(1, time.Minute)
	ctx := context.Background()

	ok, _ := rl.Allow(ctx, "10.0.0.1")
	require.True(t, ok)
	ok, _ = rl.Allow(ctx, "10.0.0.1")
	require.False(t, ok)

	ok, _ = rl.Allow(ctx, "10.0.0.2")
	require.True(t, ok)
}

func TestFixedWindowHoldsLimitUnderConcurrency(t *testing.T) {
	rl := NewFixedWindowLimiter(5, time.Minute)
	ctx := context.Background()

	const callers = 50
	allowed := make(chan bool, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := rl.Allow(ctx, "10.0.0.1")
			allowed <- ok
		}()
	}
	wg.Wait()
	close(allowed)

	passed := 0
	for ok := range allowed {
		if ok {
			passed++
		}
	}
	require.Equal(t, 5, passed)
}

func TestFixedWindowResetsAfterWindow(t *testing.T) {
	rl := NewFixedWindowLimiter(1, 30*time.Millisecond)
	ctx := context.Background()

	ok, _ := rl.Allow(ctx, "10.0.0.1")
	require.True(t, ok)
	ok, _ = rl.Allow(ctx, "10.0.0.1")
	require.False(t, ok)

	require.Eventually(t, func() bool {
		ok, _ := rl.Allow(ctx, "10.0.0.1")
		return ok
	}, time.Second, 10*time.Millisecond)
}
