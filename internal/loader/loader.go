// Package loader provides request-scoped batch loading for related entities,
// collapsing the per-post lookups of a feed response (creator, vote status)
// into one query per relation. A loader is built fresh for every request and
// thrown away with it; its cache must never outlive the request it serves.
package loader

import (
	"context"
	"sync"
)

// BatchFunc fetches all values for a deduplicated key set in a single round
// trip. Keys with no backing row are simply left out of the returned map.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

type result[V any] struct {
	value V
	ok    bool
}

// Loader memoizes per-key results for the lifetime of one request. A key is
// fetched at most once per instance, no matter how many times it is loaded.
type Loader[K comparable, V any] struct {
	batch BatchFunc[K, V]

	mu    sync.Mutex
	cache map[K]result[V]
}

func New[K comparable, V any](batch BatchFunc[K, V]) *Loader[K, V] {
	return &Loader[K, V]{
		batch: batch,
		cache: make(map[K]result[V]),
	}
}

// Load returns the value for key, fetching it if this instance has not seen
// the key before. A missing entity reports ok=false, not an error; absence
// is expected data here (a post the viewer never voted on, for instance).
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, bool, error) {
	l.mu.Lock()
	if r, hit := l.cache[key]; hit {
		l.mu.Unlock()
		return r.value, r.ok, nil
	}
	l.mu.Unlock()

	if err := l.fetch(ctx, []K{key}); err != nil {
		var zero V
		return zero, false, err
	}

	l.mu.Lock()
	r := l.cache[key]
	l.mu.Unlock()
	return r.value, r.ok, nil
}

// Prime coalesces the given keys into a single batched fetch, skipping any
// the cache already holds. Callers prime once with every key a response will
// need, then Load per key for free.
func (l *Loader[K, V]) Prime(ctx context.Context, keys []K) error {
	l.mu.Lock()
	missing := make([]K, 0, len(keys))
	seen := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		if _, hit := l.cache[k]; hit {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		missing = append(missing, k)
	}
	l.mu.Unlock()

	if len(missing) == 0 {
		return nil
	}
	return l.fetch(ctx, missing)
}

func (l *Loader[K, V]) fetch(ctx context.Context, keys []K) error {
	values, err := l.batch(ctx, keys)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		v, ok := values[k]
		l.cache[k] = result[V]{value: v, ok: ok}
	}
	return nil
}
