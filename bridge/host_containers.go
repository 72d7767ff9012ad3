package bridge

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"

	"github.com/reusee/starbridge/foreign"
	"go.starlark.net/starlark"
)

// HostSequence exposes a Go slice or array as a foreign sequence. Elements
// are converted on each access.
type HostSequence struct {
	*HostObject
}

var (
	_ starlark.Indexable   = new(HostSequence)
	_ starlark.Sequence    = new(HostSequence)
	_ starlark.HasSetIndex = new(HostSequence)
)

func (s *HostSequence) Truth() starlark.Bool {
	return s.Len() > 0
}

func (s *HostSequence) Len() int {
	return s.value.Len()
}

func (s *HostSequence) Index(i int) starlark.Value {
	return s.elem(s.value.Index(i))
}

func (s *HostSequence) Iterate() starlark.Iterator {
	return &hostIterator{
		next: func(i int) (starlark.Value, bool) {
			if i >= s.value.Len() {
				return nil, false
			}
			return s.Index(i), true
		},
	}
}

func (s *HostSequence) SetIndex(i int, v starlark.Value) error {
	elem := s.value.Index(i)
	if !elem.CanSet() {
		return &foreign.Exception{
			Type: "TypeError",
			Msg:  fmt.Sprintf("%s does not support item assignment", s.Type()),
		}
	}
	x, err := s.bridge.toHost(v, elem.Type())
	if err != nil {
		return raise(err)
	}
	elem.Set(x)
	return nil
}

// elem converts an element. Conversion of a Go value has no failure path
// other than building frozen dicts, which toForeign never does.
func (h *HostObject) elem(v reflect.Value) starlark.Value {
	ret, err := h.bridge.toForeign(v.Interface())
	if err != nil {
		return starlark.None
	}
	return ret
}

// HostMapping exposes a Go map as a foreign mapping. Keys iterate in sorted
// order.
type HostMapping struct {
	*HostObject
}

var (
	_ starlark.IterableMapping = new(HostMapping)
	_ starlark.Sequence        = new(HostMapping)
	_ starlark.HasSetKey       = new(HostMapping)
)

func (m *HostMapping) Truth() starlark.Bool {
	return m.Len() > 0
}

func (m *HostMapping) Len() int {
	return m.value.Len()
}

func (m *HostMapping) Get(k starlark.Value) (starlark.Value, bool, error) {
	key, err := m.bridge.toHost(k, m.value.Type().Key())
	if err != nil {
		// no key of another type is present
		return nil, false, nil
	}
	v := m.value.MapIndex(key)
	if !v.IsValid() {
		return nil, false, nil
	}
	return m.elem(v), true, nil
}

func (m *HostMapping) SetKey(k, v starlark.Value) error {
	key, err := m.bridge.toHost(k, m.value.Type().Key())
	if err != nil {
		return raise(err)
	}
	value, err := m.bridge.toHost(v, m.value.Type().Elem())
	if err != nil {
		return raise(err)
	}
	m.value.SetMapIndex(key, value)
	return nil
}

func (m *HostMapping) keys() []reflect.Value {
	keys := m.value.MapKeys()
	slices.SortFunc(keys, compareKeys)
	return keys
}

func (m *HostMapping) Items() []starlark.Tuple {
	keys := m.keys()
	ret := make([]starlark.Tuple, 0, len(keys))
	for _, k := range keys {
		ret = append(ret, starlark.Tuple{
			m.elem(k),
			m.elem(m.value.MapIndex(k)),
		})
	}
	return ret
}

// Iterate yields the keys present when iteration started.
func (m *HostMapping) Iterate() starlark.Iterator {
	keys := m.keys()
	return &hostIterator{
		next: func(i int) (starlark.Value, bool) {
			if i >= len(keys) {
				return nil, false
			}
			return m.elem(keys[i]), true
		},
	}
}

func compareKeys(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	}
	return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
}

type hostIterator struct {
	next func(i int) (starlark.Value, bool)
	i    int
}

var _ starlark.Iterator = new(hostIterator)

func (it *hostIterator) Next(p *starlark.Value) bool {
	v, ok := it.next(it.i)
	if !ok {
		return false
	}
	it.i++
	*p = v
	return true
}

func (it *hostIterator) Done() {}

// hostObjectOf returns the host object behind a host value of any shape.
func hostObjectOf(v starlark.Value) (*HostObject, bool) {
	switch v := v.(type) {
	case *HostObject:
		return v, true
	case *HostSequence:
		return v.HostObject, true
	case *HostMapping:
		return v.HostObject, true
	}
	return nil, false
}
