package handles

import (
	"fmt"
	"runtime"
	"weak"

	"go.starlark.net/starlark"
)

// Handle is a counted reference to one foreign value, owned by a host wrapper O.
type Handle[O any] struct {
	manager *Manager[O]
	id      int64
	key     any
	cached  bool

	// guarded by manager.mu
	value    starlark.Value
	typ      string
	refs     int
	released bool
	owner    weak.Pointer[O]
}

// ClosedError reports use of a fully released handle.
type ClosedError struct {
	ID   int64
	Type string
}

func (c *ClosedError) Error() string {
	return fmt.Sprintf("handle %d to %s object is closed", c.ID, c.Type)
}

func (h *Handle[O]) ID() int64 {
	return h.id
}

// Use returns the foreign value, or a *ClosedError once the handle is released.
func (h *Handle[O]) Use() (starlark.Value, error) {
	h.manager.mu.Lock()
	defer h.manager.mu.Unlock()
	if h.released {
		return nil, &ClosedError{
			ID:   h.id,
			Type: h.typ,
		}
	}
	return h.value, nil
}

// Closed reports whether the handle is fully released.
func (h *Handle[O]) Closed() bool {
	h.manager.mu.Lock()
	defer h.manager.mu.Unlock()
	return h.released
}

// Refs returns the current reference count.
func (h *Handle[O]) Refs() int {
	h.manager.mu.Lock()
	defer h.manager.mu.Unlock()
	return h.refs
}

// Close drops one reference. The last one releases the foreign value and the
// identity cache entry. Closing a released handle does nothing.
func (h *Handle[O]) Close() error {
	m := h.manager
	m.mu.Lock()
	if h.released {
		m.mu.Unlock()
		return nil
	}
	h.refs--
	if h.refs > 0 {
		m.mu.Unlock()
		return nil
	}
	value := h.releaseLocked()
	m.mu.Unlock()
	m.notify(h, value)
	return nil
}

func (h *Handle[O]) releaseLocked() starlark.Value {
	m := h.manager
	h.released = true
	h.refs = 0
	if h.cached && m.entries[h.key] == h {
		delete(m.entries, h.key)
	}
	m.live--
	value := h.value
	h.value = nil
	return value
}

// collect runs when the owner became unreachable without being closed.
func (h *Handle[O]) collect() {
	m := h.manager
	m.mu.Lock()
	if h.released {
		m.mu.Unlock()
		return
	}
	value := h.releaseLocked()
	m.collected++
	m.mu.Unlock()
	m.notify(h, value)
}

func (h *Handle[O]) setOwner(owner *O) {
	h.owner = weak.Make(owner)
	if h.manager.cleanup {
		runtime.AddCleanup(owner, (*Handle[O]).collect, h)
	}
}
