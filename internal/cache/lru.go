// Package cache implements the generic LRU store with lazy TTL expiration
// described in spec.md §4.7: a bounded, ordered cache where insertion order
// (reinserted on every access) encodes recency.
// file: internal/cache/lru.go
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Stats counts cache activity when collection is enabled (spec.md §4.7).
type Stats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Expirations uint64
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time // zero means no expiry.
}

// Store is a generic bounded cache with lazy TTL expiration, implementing
// spec.md §4.7. All operations are O(1) amortized: a doubly-linked list
// encodes recency (container/list has no maintained third-party
// replacement in this codebase's dependency set, so it is used directly,
// paired with a map from key to list element per the spec's own design
// note), with the map giving O(1) lookup.
type Store[K comparable, V any] struct {
	mu           sync.Mutex
	maxItems     int
	defaultTTL   time.Duration
	collectStats bool

	order *list.List
	index map[K]*list.Element

	stats Stats
	now   func() time.Time
}

// Option configures a Store at construction time.
type Option[K comparable, V any] func(*Store[K, V])

// WithDefaultTTL sets the TTL applied to entries whose Set call omits one.
func WithDefaultTTL[K comparable, V any](ttl time.Duration) Option[K, V] {
	return func(s *Store[K, V]) { s.defaultTTL = ttl }
}

// WithStats enables hit/miss/eviction/expiration counting.
func WithStats[K comparable, V any]() Option[K, V] {
	return func(s *Store[K, V]) { s.collectStats = true }
}

// withClock overrides the time source; used by tests to exercise expiry
// deterministically.
func withClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(s *Store[K, V]) { s.now = now }
}

// New constructs a Store bounded to maxItems entries (maxItems must be > 0).
func New[K comparable, V any](maxItems int, opts ...Option[K, V]) *Store[K, V] {
	if maxItems <= 0 {
		maxItems = 1
	}
	s := &Store[K, V]{
		maxItems: maxItems,
		order:    list.New(),
		index:    make(map[K]*list.Element, maxItems),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set inserts or updates k, moving it to the most-recently-used end. An
// explicit ttl of zero means no expiry; omit ttl by passing the store's
// defaultTTL, if any. Capacity overflow evicts exactly one
// least-recently-used entry.
func (s *Store[K, V]) Set(k K, v V, ttl ...time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	effectiveTTL := s.defaultTTL
	if len(ttl) > 0 {
		effectiveTTL = ttl[0]
	}
	var expiresAt time.Time
	if effectiveTTL > 0 {
		expiresAt = s.now().Add(effectiveTTL)
	}

	if el, ok := s.index[k]; ok {
		el.Value.(*entry[K, V]).value = v
		el.Value.(*entry[K, V]).expiresAt = expiresAt
		s.order.MoveToBack(el)
		return
	}

	el := s.order.PushBack(&entry[K, V]{key: k, value: v, expiresAt: expiresAt})
	s.index[k] = el

	if s.order.Len() > s.maxItems {
		s.evictOldestLocked()
	}
}

// Get returns the value for k and true on a live hit, promoting k to
// most-recent. A missing or expired key returns the zero value and false;
// an expired entry is removed lazily.
func (s *Store[K, V]) Get(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.index[k]
	if !ok {
		s.recordMiss()
		var zero V
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if s.expiredLocked(e) {
		s.removeElementLocked(el)
		s.recordExpiration()
		s.recordMiss()
		var zero V
		return zero, false
	}
	s.order.MoveToBack(el)
	s.recordHit()
	return e.value, true
}

// Has mirrors Get's expiration check without reordering.
func (s *Store[K, V]) Has(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.index[k]
	if !ok {
		return false
	}
	e := el.Value.(*entry[K, V])
	if s.expiredLocked(e) {
		s.removeElementLocked(el)
		s.recordExpiration()
		return false
	}
	return true
}

// Delete removes k unconditionally.
func (s *Store[K, V]) Delete(k K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.index[k]; ok {
		s.removeElementLocked(el)
	}
}

// Clear empties the store and resets stats to zero.
func (s *Store[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.Init()
	s.index = make(map[K]*list.Element, s.maxItems)
	s.stats = Stats{}
}

// Keys returns live keys ordered least-recent to most-recent, discarding
// expired entries encountered along the way.
func (s *Store[K, V]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]K, 0, s.order.Len())
	s.walkLiveLocked(func(e *entry[K, V]) {
		keys = append(keys, e.key)
	})
	return keys
}

// Values returns live values ordered least-recent to most-recent.
func (s *Store[K, V]) Values() []V {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := make([]V, 0, s.order.Len())
	s.walkLiveLocked(func(e *entry[K, V]) {
		values = append(values, e.value)
	})
	return values
}

// Size reports the live (non-expired) entry count.
func (s *Store[K, V]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	s.walkLiveLocked(func(*entry[K, V]) { n++ })
	return n
}

// Stats returns a snapshot of the current counters. Collection must have
// been enabled via WithStats at construction; otherwise all counts are
// zero.
func (s *Store[K, V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Store[K, V]) walkLiveLocked(visit func(*entry[K, V])) {
	var next *list.Element
	for el := s.order.Front(); el != nil; el = next {
		next = el.Next()
		e := el.Value.(*entry[K, V])
		if s.expiredLocked(e) {
			s.removeElementLocked(el)
			s.recordExpiration()
			continue
		}
		visit(e)
	}
}

func (s *Store[K, V]) expiredLocked(e *entry[K, V]) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

func (s *Store[K, V]) evictOldestLocked() {
	front := s.order.Front()
	if front == nil {
		return
	}
	s.removeElementLocked(front)
	s.recordEviction()
}

func (s *Store[K, V]) removeElementLocked(el *list.Element) {
	e := el.Value.(*entry[K, V])
	delete(s.index, e.key)
	s.order.Remove(el)
}

func (s *Store[K, V]) recordHit() {
	if s.collectStats {
		s.stats.Hits++
	}
}

func (s *Store[K, V]) recordMiss() {
	if s.collectStats {
		s.stats.Misses++
	}
}

func (s *Store[K, V]) recordEviction() {
	if s.collectStats {
		s.stats.Evictions++
	}
}

func (s *Store[K, V]) recordExpiration() {
	if s.collectStats {
		s.stats.Expirations++
	}
}
