package providers

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"chatgate/internal/core"
	"chatgate/internal/observability"
)

// ClientCache memoizes built model clients. Entries are constructed at most
// once per key even under concurrent lookups; a failed construction is
// dropped so a later request can retry.
type ClientCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once   sync.Once
	client core.ModelClient
	err    error
}

// NewClientCache returns an empty cache.
func NewClientCache() *ClientCache {
	return &ClientCache{entries: make(map[string]*cacheEntry)}
}

// GetOrCreate returns the cached client for key, building it with build on
// first use. Concurrent callers for the same key share one construction and
// never observe a partially built client.
func (c *ClientCache) GetOrCreate(key string, build func() (core.ModelClient, error)) (core.ModelClient, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	observability.ModelClientsCached.Set(float64(len(c.entries)))
	c.mu.Unlock()

	e.once.Do(func() {
		e.client, e.err = build()
	})

	if e.err != nil {
		c.mu.Lock()
		if c.entries[key] == e {
			delete(c.entries, key)
		}
		observability.ModelClientsCached.Set(float64(len(c.entries)))
		c.mu.Unlock()
		return nil, e.err
	}
	return e.client, nil
}

// Len reports the number of cached clients.
func (c *ClientCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cacheKey derives the memoization key from the provider, model and the
// resolved parameter bag. Hashing the bag rather than the raw config means
// two configs that resolve identically share a client, while any difference
// that reaches the client (api_key included) gets its own.
func cacheKey(provider, model string, params Params) string {
	blob, err := json.Marshal(params)
	if err != nil {
		// Params only ever holds JSON-encodable values; fall back to the
		// unhashed form rather than panic.
		blob = fmt.Appendf(nil, "%v", params)
	}
	return fmt.Sprintf("%s\x00%s\x00%016x", provider, model, xxhash.Sum64(blob))
}
