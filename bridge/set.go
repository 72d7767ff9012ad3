package bridge

import (
	"iter"

	"github.com/reusee/starbridge/foreign"
	"go.starlark.net/starlark"
)

// Set presents a foreign set as a host set.
type Set struct {
	obj *Object
}

func NewSet(o *Object) (*Set, error) {
	if err := o.do(func(_ *starlark.Thread, v starlark.Value) error {
		if !supportsIn(v) {
			return noAttribute(v.Type(), "__contains__")
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
	return &Set{
		obj: o,
	}, nil
}

func (s *Set) Object() *Object {
	return s.obj
}

func (s *Set) Len() (int, error) {
	return s.obj.Len()
}

func (s *Set) Contains(x any) (ret bool, err error) {
	err = s.obj.do(func(_ *starlark.Thread, v starlark.Value) error {
		return containsValue(s.obj.bridge, v, x, &ret)
	})
	return
}

// Add inserts x and reports whether it was absent before.
func (s *Set) Add(x any) (added bool, err error) {
	err = s.obj.do(func(thread *starlark.Thread, v starlark.Value) error {
		add, found, err := getAttr(v, "add")
		if err != nil {
			return err
		}
		if !found {
			return noAttribute(v.Type(), "add")
		}
		var present bool
		if err := containsValue(s.obj.bridge, v, x, &present); err != nil {
			return err
		}
		fx, err := s.obj.bridge.toForeign(x)
		if err != nil {
			return err
		}
		if _, err := s.obj.bridge.runtime.Call(thread, add, []foreign.Arg{{Value: fx}}); err != nil {
			return err
		}
		added = !present
		return nil
	})
	return
}

// Remove deletes x and reports whether it was present. An absent element
// is not a failure.
func (s *Set) Remove(x any) (removed bool, err error) {
	err = s.obj.do(func(thread *starlark.Thread, v starlark.Value) error {
		_, err := callMethod(s.obj.bridge, thread, v, "remove", x)
		if isMissingKey(err) {
			return nil
		}
		if err != nil {
			return err
		}
		removed = true
		return nil
	})
	return
}

func (s *Set) Clear() error {
	return s.obj.do(func(thread *starlark.Thread, v starlark.Value) error {
		_, err := callMethod(s.obj.bridge, thread, v, "clear")
		return err
	})
}

func (s *Set) Iterator() (*Iterator[*Object], error) {
	return newIterator(s.obj, func(v starlark.Value) (*Object, error) {
		return s.obj.bridge.wrap(v), nil
	})
}

func (s *Set) All() iter.Seq2[*Object, error] {
	return func(yield func(*Object, error) bool) {
		it, err := s.Iterator()
		if err != nil {
			yield(nil, err)
			return
		}
		for elem, err := range it.All() {
			if !yield(elem, err) {
				return
			}
		}
	}
}
