package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// FixedWindowRateLimiter is the in-process fallback limiter. Counts live
// in a per-instance map and reset every window, so limits drift across
// replicas; prefer the Redis limiter when running more than one.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]int
	limit   int
	window  time.Duration
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		clients: make(map[string]int),
		limit:   limit,
		window:  window,
	}
	go rl.cleanup()
	return rl
}

func (rl *FixedWindowRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	for range ticker.C {
		rl.Lock()
		rl.clients = make(map[string]int) // reset all
		rl.Unlock()
	}
}

// Allow counts under a single lock so concurrent callers at the limit
// boundary cannot slip past it.
func (rl *FixedWindowRateLimiter) Allow(_ context.Context, key string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	count, exists := rl.clients[key]
	if exists && count >= rl.limit {
		return false, rl.window
	}

	if !exists {
		go rl.resetCount(key)
	}
	rl.clients[key]++
	return true, 0
}

func (rl *FixedWindowRateLimiter) resetCount(key string) {
	time.Sleep(rl.window)
	rl.Lock()
	delete(rl.clients, key)
	rl.Unlock()
}
