package assets

import (
	"context"
	"sync"
)

// Status is the lifecycle of an asset handle.
type Status int

const (
	Pending Status = iota
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Handle is a one-shot future for an asynchronously loaded asset.
// It resolves exactly once, either with a value or with an error.
type Handle[T any] struct {
	mu     sync.RWMutex
	status Status
	value  T
	err    error
	done   chan struct{}
}

// NewHandle создаёт handle в состоянии Pending
func NewHandle[T any]() *Handle[T] {
	return &Handle[T]{done: make(chan struct{})}
}

// Resolved returns a handle that is already Ready.
func Resolved[T any](value T) *Handle[T] {
	h := NewHandle[T]()
	h.resolve(value)
	return h
}

// Rejected returns a handle that is already Failed.
func Rejected[T any](err error) *Handle[T] {
	h := NewHandle[T]()
	h.reject(err)
	return h
}

func (h *Handle[T]) resolve(value T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status != Pending {
		return
	}
	h.value = value
	h.status = Ready
	close(h.done)
}

func (h *Handle[T]) reject(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status != Pending {
		return
	}
	h.err = err
	h.status = Failed
	close(h.done)
}

// Status returns the current state without blocking.
func (h *Handle[T]) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Poll returns the value and error without blocking. Both are zero while the
// handle is pending.
func (h *Handle[T]) Poll() (T, error, Status) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.value, h.err, h.status
}

// Done is closed when the handle leaves Pending.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the handle resolves or ctx is done.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		h.mu.RLock()
		defer h.mu.RUnlock()
		return h.value, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
