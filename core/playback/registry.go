package playback

import (
	"context"
	"sync"
	"time"
)

type handle struct {
	timer Timer
	abort chan struct{}
}

// Registry tracks every pending timed continuation of one run.
//
// A suspension registered through Sleep either resumes after its delay or is
// aborted by Clear, CancelAll or its context. Once CancelAll returned, Err
// reports ErrCancelled and Sleep refuses new suspensions. Each handle is
// stopped at most once.
type Registry struct {
	clock Clock

	mu        sync.Mutex
	nextID    uint64
	pending   map[uint64]handle
	cancelled bool
	done      chan struct{}
}

// NewRegistry creates an empty registry. A nil clock uses wall time.
func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = realClock{}
	}
	return &Registry{
		clock:   clock,
		pending: make(map[uint64]handle),
		done:    make(chan struct{}),
	}
}

// Sleep suspends for d. It returns ErrCancelled when the registry is
// cancelled or cleared while waiting and ctx.Err() when ctx ends first.
// A non-positive delay returns immediately.
func (r *Registry) Sleep(ctx context.Context, d time.Duration) error {
	if err := r.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return ctx.Err()
	}

	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return ErrCancelled
	}
	id := r.nextID
	r.nextID++
	h := handle{timer: r.clock.NewTimer(d), abort: make(chan struct{})}
	r.pending[id] = h
	r.mu.Unlock()

	select {
	case <-h.timer.C():
		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
		return nil
	case <-h.abort:
		return ErrCancelled
	case <-ctx.Done():
		r.mu.Lock()
		if _, ok := r.pending[id]; ok {
			h.timer.Stop()
			delete(r.pending, id)
		}
		r.mu.Unlock()
		return ctx.Err()
	}
}

// CancelAll stops every pending handle and marks the registry cancelled.
// Calling it again has no effect.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return
	}
	r.cancelled = true
	r.abortLocked()
	close(r.done)
}

// Clear aborts pending handles without cancelling the registry. It is a
// no-op once CancelAll ran.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return
	}
	r.abortLocked()
}

func (r *Registry) abortLocked() {
	for id, h := range r.pending {
		h.timer.Stop()
		close(h.abort)
		delete(r.pending, id)
	}
}

// Pending returns the number of suspensions still waiting.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Done is closed by CancelAll.
func (r *Registry) Done() <-chan struct{} { return r.done }

// Err returns ErrCancelled after CancelAll, nil otherwise.
func (r *Registry) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return ErrCancelled
	}
	return nil
}
