// Package memo runs a side effect at most once per key and shares its result
// with every caller of that key, including callers that arrive while it runs.
package memo

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrAborted is recorded when a producer exits its goroutine without returning.
var ErrAborted = errors.New("producer exited without returning")

// PanicError is recorded for waiters when a producer panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("producer panicked: %v\n%s", e.Value, e.Stack)
}

type future[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Cache is a map of futures. The zero value is ready to use.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	futures map[K]*future[V]
}

// Do returns the result of fn for key. fn runs at most once per key; its
// result, error included, is kept for the lifetime of the cache.
func (c *Cache[K, V]) Do(key K, fn func() (V, error)) (V, error) {
	c.mu.Lock()
	if c.futures == nil {
		c.futures = map[K]*future[V]{}
	}
	if f, ok := c.futures[key]; ok {
		c.mu.Unlock()
		<-f.done
		return f.val, f.err
	}
	f := &future[V]{done: make(chan struct{})}
	c.futures[key] = f
	c.mu.Unlock()

	returned := false
	defer func() {
		if returned {
			return
		}
		r := recover()
		if r == nil {
			f.err = ErrAborted
			close(f.done)
			return
		}
		f.err = &PanicError{Value: r, Stack: debug.Stack()}
		close(f.done)
		panic(r)
	}()

	f.val, f.err = fn()
	returned = true
	close(f.done)
	return f.val, f.err
}

// Done reports whether key has a completed result.
func (c *Cache[K, V]) Done(key K) bool {
	c.mu.Lock()
	f, ok := c.futures[key]
	c.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Len returns the number of keys started so far.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.futures)
}
