package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMemoryTTL bounds how long an entry without an explicit TTL lives.
const DefaultMemoryTTL = 5 * time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache implements Cache with an in-process map. Expired entries are
// dropped lazily on access.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get retrieves the value stored under key, or nil, nil on a miss.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}
	return entry.value, nil
}

// Set stores value under key with the given ttl.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Close implements Cache. No resources to release.
func (c *MemoryCache) Close() error {
	return nil
}
