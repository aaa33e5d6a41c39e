package services

import (
	"sync"
	"sync/atomic"
)

// Handle is the in-process control for one running scan
type Handle struct {
	cancel chan struct{}
	once   sync.Once
	live   atomic.Bool
}

// NewHandle returns an unsignalled handle
func NewHandle() *Handle {
	return &Handle{cancel: make(chan struct{})}
}

// Signal asks the scan to stop at its next checkpoint. Safe to call more than once.
func (h *Handle) Signal() {
	h.once.Do(func() { close(h.cancel) })
}

// Cancelled is closed once the handle has been signalled
func (h *Handle) Cancelled() <-chan struct{} {
	return h.cancel
}

// IsCancelled reports whether the handle has been signalled
func (h *Handle) IsCancelled() bool {
	select {
	case <-h.cancel:
		return true
	default:
		return false
	}
}

// Live reports whether a worker still owns the handle
func (h *Handle) Live() bool {
	return h.live.Load()
}

// Registry maps scan ids to the handles of their workers. It is advisory:
// the persisted status decides whether a scan was cancelled.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*Handle
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// Register adds a live handle for id
func (r *Registry) Register(id string, h *Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.handles[id]; ok && existing.Live() {
		return ErrAlreadyRegistered
	}
	h.live.Store(true)
	r.handles[id] = h
	return nil
}

// Deregister removes the handle of id and marks it dead
func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[id]; ok {
		h.live.Store(false)
		delete(r.handles, id)
	}
}

// IsActive reports whether a live handle exists for id
func (r *Registry) IsActive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[id]
	return ok && h.Live()
}

// Signal signals the handle of id and reports whether one was found
func (r *Registry) Signal(id string) bool {
	r.mu.Lock()
	h, ok := r.handles[id]
	r.mu.Unlock()

	if !ok {
		return false
	}
	h.Signal()
	return true
}

// Count returns the number of registered handles
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
