// Package progress provides a write-once result container that also exposes a
// monotonically clamped progress fraction, letting long fan-out operations
// report completion ratios to observers while the final value is in flight.
package progress

import (
	"context"
	"sync"

	"go.uber.org/atomic"
)

// Listener receives progress transitions. Listeners registered on a Future
// fire on every progress change after registration and exactly once more at
// completion, then are discarded.
type Listener func(oldValue, newValue float64)

// Future is a write-once container of T with an attached progress fraction in
// [0,1]. The zero value is not usable; construct with New.
//
// Completing with the zero value of T (typically nil) is the designated
// "failed/unavailable" resolution and not an error: consumers must check the
// resolved value themselves.
type Future[T any] struct {
	progress  *atomic.Float64
	mu        sync.Mutex
	listeners []Listener
	value     T
	completed bool
	done      chan struct{}
}

// New returns an incomplete Future at progress 0.
func New[T any]() *Future[T] {
	return &Future[T]{
		progress: atomic.NewFloat64(0),
		done:     make(chan struct{}),
	}
}

// Completed returns an already resolved Future at progress 1.
func Completed[T any](value T) *Future[T] {
	f := New[T]()
	f.Complete(value)
	return f
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AddProgress atomically adds delta to the progress fraction, clamping the
// result to [0,1]. Safe for concurrent use by many completing sub-tasks.
func (f *Future[T]) AddProgress(delta float64) {
	old := f.progress.Load()
	var updated float64
	for {
		current := f.progress.Load()
		updated = clamp(current + delta)
		if f.progress.CompareAndSwap(current, updated) {
			break
		}
	}
	f.notify(old, updated)
}

// SetProgress atomically sets the progress fraction, clamped to [0,1].
func (f *Future[T]) SetProgress(value float64) {
	old := f.progress.Swap(clamp(value))
	f.notify(old, clamp(value))
}

// Progress returns the current progress fraction.
func (f *Future[T]) Progress() float64 {
	return f.progress.Load()
}

// Listen registers a progress observer. Observers registered after completion
// fire immediately with the terminal value.
func (f *Future[T]) Listen(listener Listener) *Future[T] {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		listener(1, 1)
		return f
	}
	f.listeners = append(f.listeners, listener)
	f.mu.Unlock()
	return f
}

func (f *Future[T]) notify(oldValue, newValue float64) {
	f.mu.Lock()
	listeners := make([]Listener, len(f.listeners))
	copy(listeners, f.listeners)
	f.mu.Unlock()
	for _, l := range listeners {
		l(oldValue, newValue)
	}
}

// Complete resolves the future, sets progress to 1 and fires every listener
// one final time before discarding them. The first call wins; later calls are
// no-ops returning false.
func (f *Future[T]) Complete(value T) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	old := f.progress.Swap(1)
	f.value = value
	f.completed = true
	listeners := f.listeners
	f.listeners = nil
	f.mu.Unlock()

	for _, l := range listeners {
		l(old, 1)
	}
	close(f.done)
	return true
}

// Done returns a channel closed once the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the future resolves or ctx is cancelled.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Value returns the resolved value and whether the future has resolved,
// without blocking.
func (f *Future[T]) Value() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.completed
}
