package cache

import (
	"fmt"

	"golang.org/x/sync/singleflight"
)

// RevisionCache computes a value once per document revision. Concurrent
// callers asking for the same revision share one computation.
type RevisionCache[T any] struct {
	store Cache[T]
	group singleflight.Group
}

func NewRevisionCache[T any](store Cache[T]) *RevisionCache[T] {
	return &RevisionCache[T]{store: store}
}

// Get returns the value cached for name at revision, or runs compute.
// Errors are not cached.
func (c *RevisionCache[T]) Get(name string, revision uint64, compute func() (T, error)) (T, error) {
	key := fmt.Sprintf("%s@%d", name, revision)
	if v, ok := c.store.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := compute()
		if err != nil {
			return v, err
		}
		c.store.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
