package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"

	"chatgate/internal/cache"
	"chatgate/internal/core"
	"chatgate/internal/observability"
)

// CachedRetriever memoizes an inner Retriever in a blob cache. Identical
// queries within the TTL are served without hitting the backend. Cache
// failures degrade to the inner retriever rather than failing the request.
type CachedRetriever struct {
	inner Retriever
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedRetriever wraps inner with the given cache and TTL.
func NewCachedRetriever(inner Retriever, c cache.Cache, ttl time.Duration) *CachedRetriever {
	return &CachedRetriever{inner: inner, cache: c, ttl: ttl}
}

// Retrieve serves the query from cache when possible, falling back to the
// inner retriever and storing its result.
func (r *CachedRetriever) Retrieve(ctx context.Context, q Query) ([]core.RetrievalDoc, error) {
	key := queryKey(q)

	if data, err := r.cache.Get(ctx, key); err != nil {
		slog.Warn("retrieval cache get failed", "error", err)
	} else if data != nil {
		var docs []core.RetrievalDoc
		if err := json.Unmarshal(data, &docs); err == nil {
			observability.RetrievalCacheLookupsTotal.WithLabelValues("hit").Inc()
			return docs, nil
		}
		slog.Warn("retrieval cache entry corrupt, refetching", "key", key)
	}
	observability.RetrievalCacheLookupsTotal.WithLabelValues("miss").Inc()

	docs, err := r.inner.Retrieve(ctx, q)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(docs); err == nil {
		if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
			slog.Warn("retrieval cache set failed", "error", err)
		}
	}
	return docs, nil
}

// queryKey derives a stable cache key from all query parameters.
func queryKey(q Query) string {
	data, _ := json.Marshal(q)
	return fmt.Sprintf("retrieval:%016x", xxhash.Sum64(data))
}
