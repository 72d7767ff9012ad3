package handles

import (
	"sync"

	"github.com/reusee/starbridge/foreign"
	"go.starlark.net/starlark"
)

// Manager owns foreign references and the identity cache mapping a foreign
// identity to the one live handle for it.
type Manager[O any] struct {
	mu        sync.Mutex
	entries   map[any]*Handle[O]
	serial    int64
	live      int
	collected int
	cleanup   bool
	onRelease func(id int64, value starlark.Value)
}

type Option func(*options)

type options struct {
	cleanup   bool
	onRelease func(id int64, value starlark.Value)
}

// WithCleanup toggles releasing handles whose owners were garbage collected
// without being closed. It is on by default.
func WithCleanup(enabled bool) Option {
	return func(o *options) {
		o.cleanup = enabled
	}
}

// OnRelease sets a callback invoked after a handle is released. It runs
// without the manager lock held.
func OnRelease(fn func(id int64, value starlark.Value)) Option {
	return func(o *options) {
		o.onRelease = fn
	}
}

func NewManager[O any](opts ...Option) *Manager[O] {
	o := options{
		cleanup: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager[O]{
		entries:   make(map[any]*Handle[O]),
		cleanup:   o.cleanup,
		onRelease: o.onRelease,
	}
}

// Wrap returns the live owner for the identity of v, adding a reference, or
// creates a handle with one reference and an owner built by newOwner.
// newOwner runs with the manager locked and must not call back into it.
func (m *Manager[O]) Wrap(v starlark.Value, newOwner func(*Handle[O]) *O) *O {
	key, cacheable := foreign.Identity(v)

	var stale *Handle[O]
	var staleValue starlark.Value
	defer func() {
		if stale != nil {
			m.notify(stale, staleValue)
		}
	}()
	m.mu.Lock()
	defer m.mu.Unlock()

	if cacheable {
		if h, ok := m.entries[key]; ok && !h.released {
			if owner := h.owner.Value(); owner != nil {
				h.refs++
				return owner
			}
			// owner collected but cleanup not yet run
			stale, staleValue = h, h.releaseLocked()
			m.collected++
		}
	}

	m.serial++
	h := &Handle[O]{
		manager: m,
		id:      m.serial,
		key:     key,
		cached:  cacheable,
		value:   v,
		typ:     v.Type(),
		refs:    1,
	}
	if cacheable {
		m.entries[key] = h
	}
	m.live++
	owner := newOwner(h)
	h.setOwner(owner)
	return owner
}

// Lookup returns the live handle cached for the identity of v.
func (m *Manager[O]) Lookup(v starlark.Value) (*Handle[O], bool) {
	key, cacheable := foreign.Identity(v)
	if !cacheable {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.entries[key]
	if !ok || h.released {
		return nil, false
	}
	return h, true
}

// Len returns the number of identity cache entries.
func (m *Manager[O]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Live returns the number of unreleased handles, cached or not.
func (m *Manager[O]) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

// Collected returns how many handles were released by garbage collection
// instead of Close.
func (m *Manager[O]) Collected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collected
}

func (m *Manager[O]) notify(h *Handle[O], value starlark.Value) {
	if m.onRelease != nil {
		m.onRelease(h.id, value)
	}
}
