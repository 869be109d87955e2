package flags

import (
	"context"
	"sync"
)

// Deferred is a single-resolution boolean container.
// It resolves at most once; later resolutions are ignored. Awaiting a
// Deferred never mutates it, so any number of goroutines may await the
// same value.
type Deferred struct {
	once sync.Once
	done chan struct{}
	val  bool
}

// NewDeferred creates an unresolved Deferred.
func NewDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// ResolvedDeferred creates a Deferred that is already resolved to val.
func ResolvedDeferred(val bool) *Deferred {
	d := NewDeferred()
	d.Resolve(val)
	return d
}

// Resolve resolves the deferred value. Only the first call has any effect.
func (d *Deferred) Resolve(val bool) {
	d.once.Do(func() {
		d.val = val
		close(d.done)
	})
}

// Await blocks until the value resolves or the context is cancelled.
func (d *Deferred) Await(ctx context.Context) (bool, error) {
	select {
	case <-d.done:
		return d.val, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Resolved reports whether the value has resolved, without blocking.
func (d *Deferred) Resolved() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}
