// Package singleflight coalesces concurrent loads of the same key.
package singleflight

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrGoexit is returned to followers when the leader's fn called runtime.Goexit.
var ErrGoexit = errors.New("singleflight: runtime.Goexit was called")

// PanicError is returned to followers when the leader's fn panicked.
// The leader itself re-panics with the original value.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("singleflight: panic: %v\n\n%s", p.Value, p.Stack)
}

// Unwrap exposes the panic value when it is an error.
func (p *PanicError) Unwrap() error {
	err, _ := p.Value.(error)
	return err
}

// Group coalesces concurrent function calls for the same key K so that
// the supplied fn is executed at most once. Other concurrent callers
// wait for the shared result.
//
// Concurrency notes:
//   - The first caller for a given key becomes the leader and runs fn.
//   - Followers wait on c.done. Publishing (val, err) happens-before
//     close(c.done), so reads after <-done observe the final values.
//   - Cancelling ctx in a follower unblocks only that follower; it does
//     NOT cancel the leader's fn.
//   - The in-flight marker is dropped even if fn panics or calls
//     runtime.Goexit, so followers are never stranded.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
}

// Do runs fn once for the given key. Concurrent calls with the same key
// wait for the shared result. If ctx is cancelled in a follower, that
// follower returns ctx.Err() while the leader continues to run fn.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()

		select {
		case <-c.done:
			return c.val, c.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	return g.lead(c, key, fn)
}

// lead executes fn as the leader for key and publishes its outcome.
func (g *Group[K, V]) lead(c *call[V], key K, fn func() (V, error)) (V, error) {
	normalReturn := false
	recovered := false

	// double-defer to distinguish panic from runtime.Goexit
	defer func() {
		if !normalReturn && !recovered {
			c.err = ErrGoexit
		}

		g.mu.Lock()
		delete(g.m, key)
		g.mu.Unlock()
		close(c.done)

		if recovered {
			panic(c.err.(*PanicError).Value)
		}
	}()

	func() {
		defer func() {
			if !normalReturn {
				if v := recover(); v != nil {
					c.err = newPanicError(v)
					recovered = true
				}
			}
		}()
		c.val, c.err = fn()
		normalReturn = true
	}()

	return c.val, c.err
}

func newPanicError(v any) error {
	stack := debug.Stack()
	// Drop the "goroutine N [status]:" line; it describes the recovering
	// goroutine, not necessarily the one followers care about.
	if line := bytes.IndexByte(stack, '\n'); line >= 0 {
		stack = stack[line+1:]
	}
	return &PanicError{Value: v, Stack: stack}
}
