package bridge

import (
	"errors"
	"iter"
	"strings"

	"go.starlark.net/starlark"
)

// Map presents a foreign mapping as a host map.
type Map struct {
	obj *Object
}

func NewMap(o *Object) (*Map, error) {
	if err := o.do(func(_ *starlark.Thread, v starlark.Value) error {
		if _, ok := v.(starlark.Mapping); !ok {
			return noAttribute(v.Type(), "__getitem__")
		}
		if _, ok := v.(starlark.Iterable); !ok {
			return noAttribute(v.Type(), "__iter__")
		}
		if starlark.Len(v) < 0 {
			return noAttribute(v.Type(), "__len__")
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &Map{
		obj: o,
	}, nil
}

func (m *Map) Object() *Object {
	return m.obj
}

func (m *Map) Len() (int, error) {
	return m.obj.Len()
}

func (m *Map) ContainsKey(k any) (ret bool, err error) {
	err = m.obj.do(func(_ *starlark.Thread, v starlark.Value) error {
		fk, err := m.obj.bridge.toForeign(k)
		if err != nil {
			return err
		}
		_, ret, err = v.(starlark.Mapping).Get(fk)
		return err
	})
	return
}

// Get returns the value of k, or nil when k is missing.
func (m *Map) Get(k any) (ret *Object, err error) {
	err = m.obj.do(func(_ *starlark.Thread, v starlark.Value) error {
		fk, err := m.obj.bridge.toForeign(k)
		if err != nil {
			return err
		}
		value, found, err := v.(starlark.Mapping).Get(fk)
		if err != nil || !found {
			return err
		}
		ret = m.obj.bridge.wrap(value)
		return nil
	})
	return
}

// Put sets k to x and returns the previous value, or nil.
func (m *Map) Put(k any, x any) (ret *Object, err error) {
	err = m.obj.do(func(_ *starlark.Thread, v starlark.Value) error {
		return m.put(v, k, x, &ret)
	})
	return
}

func (m *Map) put(v starlark.Value, k any, x any, prev **Object) error {
	setter, ok := v.(starlark.HasSetKey)
	if !ok {
		return noAttribute(v.Type(), "__setitem__")
	}
	fk, err := m.obj.bridge.toForeign(k)
	if err != nil {
		return err
	}
	fx, err := m.obj.bridge.toForeign(x)
	if err != nil {
		return err
	}
	old, found, err := setter.Get(fk)
	if err != nil {
		return err
	}
	if err := setter.SetKey(fk, fx); err != nil {
		return err
	}
	if found && prev != nil {
		*prev = m.obj.bridge.wrap(old)
	}
	return nil
}

func isMissingKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "missing key")
}

// Remove deletes k and returns its value, or nil when k is missing.
func (m *Map) Remove(k any) (ret *Object, err error) {
	err = m.obj.do(func(thread *starlark.Thread, v starlark.Value) error {
		removed, err := callMethod(m.obj.bridge, thread, v, "pop", k)
		if isMissingKey(err) {
			return nil
		}
		if err != nil {
			return err
		}
		ret = m.obj.bridge.wrap(removed)
		return nil
	})
	return
}

func (m *Map) Clear() error {
	return m.obj.do(func(thread *starlark.Thread, v starlark.Value) error {
		_, err := callMethod(m.obj.bridge, thread, v, "clear")
		return err
	})
}

// Entry is one key-value pair of a Map.
type Entry struct {
	m     *Map
	Key   *Object
	Value *Object
}

// SetValue puts x under the entry key.
func (e *Entry) SetValue(x any) error {
	prev, err := e.m.Put(e.Key, x)
	if err != nil {
		return err
	}
	if prev != nil {
		prev.Close()
	}
	value, err := e.m.Get(e.Key)
	if err != nil {
		return err
	}
	if e.Value != nil {
		e.Value.Close()
	}
	e.Value = value
	return nil
}

// Close releases the key and value.
func (e *Entry) Close() error {
	err := e.Key.Close()
	if e.Value != nil {
		err = errors.Join(err, e.Value.Close())
	}
	return err
}

// Entries iterates over a snapshot of the keys, so SetValue is allowed
// while iterating. Removing through the iterator is not.
func (m *Map) Entries() (*Iterator[*Entry], error) {
	var mapping starlark.Mapping
	return iterate(
		m.obj,
		func(thread *starlark.Thread, v starlark.Value) (starlark.Value, error) {
			mapping = v.(starlark.Mapping)
			if keys, found, err := getAttr(v, "keys"); err == nil && found {
				return m.obj.bridge.runtime.Call(thread, keys, nil)
			}
			return v, nil
		},
		func(k starlark.Value) (*Entry, error) {
			value, _, err := mapping.Get(k)
			if err != nil {
				return nil, err
			}
			if value == nil {
				value = starlark.None
			}
			return &Entry{
				m:     m,
				Key:   m.obj.bridge.wrap(k),
				Value: m.obj.bridge.wrap(value),
			}, nil
		},
	)
}

// All ranges over the entries, stopping at the first failure.
func (m *Map) All() iter.Seq2[*Object, *Object] {
	return func(yield func(*Object, *Object) bool) {
		entries, err := m.Entries()
		if err != nil {
			return
		}
		for entry, err := range entries.All() {
			if err != nil || !yield(entry.Key, entry.Value) {
				return
			}
		}
	}
}
