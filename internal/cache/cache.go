// Package cache provides a memoizing TTL cache for expensive operations
// (manifest builds, release lookups). Values live until the TTL elapses or
// the cache is explicitly invalidated; recomputation is lazy and
// de-duplicated so concurrent callers of the same key never trigger
// duplicate fetch storms.
package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Memo caches the result of fn per key for a fixed TTL. The TTL is set at
// construction and applies to every key.
type Memo[V any] struct {
	entries *lru.LRU[string, V]
	group   singleflight.Group
}

// New returns a Memo holding up to size entries for ttl each. size <= 0
// means unbounded.
func New[V any](size int, ttl time.Duration) *Memo[V] {
	return &Memo[V]{
		entries: lru.NewLRU[string, V](size, nil, ttl),
	}
}

// Do returns the cached value for key, or invokes fn once and caches the
// result. Concurrent calls for the same key while a computation is in
// flight share that computation's result instead of re-invoking fn.
// Errors are not cached; the next call retries. The second return value
// reports whether the value was served from the cache rather than
// computed.
//
// fn runs on a context detached from the caller's: the flight is shared
// by joiners and its result outlives the request that started it, so one
// canceled caller must not fail the computation or cache its abort.
func (m *Memo[V]) Do(ctx context.Context, key string, fn func(ctx context.Context) (V, error)) (V, bool, error) {
	if v, ok := m.entries.Get(key); ok {
		return v, true, nil
	}
	hit := false
	v, err, _ := m.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have stored the
		// value between our miss and acquiring the flight.
		if v, ok := m.entries.Get(key); ok {
			hit = true
			return v, nil
		}
		value, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return value, err
		}
		m.entries.Add(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return v.(V), hit, nil
}

// Get returns the cached value for key without triggering a computation.
func (m *Memo[V]) Get(key string) (V, bool) {
	return m.entries.Get(key)
}

// Invalidate removes every cached value unconditionally, regardless of
// remaining TTL.
func (m *Memo[V]) Invalidate() {
	m.entries.Purge()
}
