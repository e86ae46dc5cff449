package cache

import (
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Loader fronts an LRUCache and collapses concurrent misses for the same key
// into a single load.
type Loader[T any] struct {
	cache *LRUCache[T]
	group singleflight.Group
}

func NewLoader[T any](c *LRUCache[T]) *Loader[T] {
	return &Loader[T]{cache: c}
}

// Get returns the cached value for key or computes it with load. hit reports
// whether the value came from the cache. Errors are not cached.
func (l *Loader[T]) Get(key string, load func() (T, error)) (value T, hit bool, err error) {
	if v, ok := l.cache.Get(key); ok {
		return v, true, nil
	}

	res, err, _ := l.group.Do(key, func() (any, error) {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		l.cache.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("load %q: %w", key, err)
	}
	return res.(T), false, nil
}

// Cache exposes the underlying LRU, e.g. for registration with a Manager.
func (l *Loader[T]) Cache() *LRUCache[T] {
	return l.cache
}
