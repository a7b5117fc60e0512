// Package cache provides the result store backing the lookup layer.
// The memory store suits a single instance; the Redis store lets several
// instances share one result cache.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss indicates the key was not found or has expired.
var ErrMiss = errors.New("cache miss")

// Store is the backing store for lookup results, keyed by barcode.
type Store interface {
	// Get returns the value for key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
