// Package cache provides a keyed blob cache used to memoize retrieval
// results. Supports an in-memory backend for single-instance deployments and
// Redis for multi-instance deployments.
package cache

import (
	"context"
	"time"
)

// Cache is the interface for cache storage. Implementations must be safe
// for concurrent use.
type Cache interface {
	// Get retrieves the value stored under key. Returns nil, nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl means the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases any resources held by the cache.
	Close() error
}
