package ratelimiter

import (
	"context"
	"time"
)

// Limiter throttles callers by an opaque key (usually the client IP).
// Allow reports whether the request may proceed and, when it may not,
// how long the caller should wait before retrying.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration)
}

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}
