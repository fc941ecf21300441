// file: internal/cache/resource_store.go
package cache

import (
	"context"
	"sort"
	"time"
)

// ResourceEntry is the value type stored for a cached resource.
type ResourceEntry struct {
	Data     interface{}
	Metadata map[string]interface{}
}

// ResourceHit is what ResourceStore.Get returns on a cache hit.
type ResourceHit struct {
	Data     interface{}
	Metadata map[string]interface{}
	Cached   bool
}

// ResourceStore adapts a Store[string, ResourceEntry] to the resource
// provider contract of spec.md §4.7: get(uri, ctx) / list(cursor, ctx).
type ResourceStore struct {
	store *Store[string, ResourceEntry]
}

// NewResourceStore wraps a cache Store for use as a resource provider.
func NewResourceStore(maxItems int, defaultTTL time.Duration) *ResourceStore {
	return &ResourceStore{
		store: New[string, ResourceEntry](maxItems,
			WithDefaultTTL[string, ResourceEntry](defaultTTL),
			WithStats[string, ResourceEntry](),
		),
	}
}

// Put caches data and metadata for uri, using the store's default TTL.
func (r *ResourceStore) Put(uri string, data interface{}, metadata map[string]interface{}) {
	r.store.Set(uri, ResourceEntry{Data: data, Metadata: metadata})
}

// Get returns the cached entry for uri, if any and not expired.
func (r *ResourceStore) Get(_ context.Context, uri string) (ResourceHit, bool) {
	e, ok := r.store.Get(uri)
	if !ok {
		return ResourceHit{}, false
	}
	return ResourceHit{Data: e.Data, Metadata: e.Metadata, Cached: true}, true
}

// List enumerates metadata for all live cached entries, ordered by URI.
// cursor is accepted for interface symmetry with other providers but is
// unused: the resource cache is small enough to enumerate in one page.
func (r *ResourceStore) List(_ context.Context, _ string) []map[string]interface{} {
	uris := r.store.Keys()
	sort.Strings(uris)

	out := make([]map[string]interface{}, 0, len(uris))
	for _, uri := range uris {
		if e, ok := r.store.Get(uri); ok {
			m := map[string]interface{}{"uri": uri}
			for k, v := range e.Metadata {
				m[k] = v
			}
			out = append(out, m)
		}
	}
	return out
}

// Stats exposes the underlying cache's hit/miss/eviction/expiration counts.
func (r *ResourceStore) Stats() Stats { return r.store.Stats() }
