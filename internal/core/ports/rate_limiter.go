package ports

import (
	"context"
	"time"
)

// RateLimitRepository provides the atomic fixed-window counter.
type RateLimitRepository interface {
	// IncrementWindow increments the counter for key in the current window and
	// ensures it expires after ttl. Returns the updated count and the window start.
	IncrementWindow(ctx context.Context, key string, window time.Duration, keyPrefix string, ttl time.Duration) (count int, windowStart time.Time, err error)
}

// RateLimiterService limits unauthenticated auth endpoints per client key
// (client IP plus route). Safe for concurrent use.
type RateLimiterService interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, limit int, reset time.Time, err error)
}
