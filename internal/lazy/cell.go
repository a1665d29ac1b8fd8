// Package lazy provides a once-only initialization cell whose failed
// initializations are not remembered.
package lazy

import (
	"sync"
	"sync/atomic"
)

// Cell holds a value built on first use. Concurrent first callers block on a
// single in-flight build; once built, Get is a lock-free atomic load.
type Cell[T any] struct {
	mu     sync.Mutex
	val    atomic.Pointer[T]
	builds atomic.Int64
}

// Get returns the cached value, building it with build if absent.
// A build error is returned to the caller and the next Get tries again.
func (c *Cell[T]) Get(build func() (T, error)) (T, error) {
	if v := c.val.Load(); v != nil {
		return *v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v := c.val.Load(); v != nil {
		return *v, nil
	}

	c.builds.Add(1)
	v, err := build()
	if err != nil {
		var zero T
		return zero, err
	}
	c.val.Store(&v)
	return v, nil
}

// Peek returns the value if it has been built.
func (c *Cell[T]) Peek() (T, bool) {
	if v := c.val.Load(); v != nil {
		return *v, true
	}
	var zero T
	return zero, false
}

// Builds reports how many times a build was attempted.
func (c *Cell[T]) Builds() int {
	return int(c.builds.Load())
}
