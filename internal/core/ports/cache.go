package ports

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value cache used in front of the user store.
// A cache error must never fail the caller; decorators fall back to the store.
type Cache interface {
	// Get returns the raw bytes for key. ok=false if not found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for key with TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
}
