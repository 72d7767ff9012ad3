package bridge

import (
	"iter"

	"go.starlark.net/starlark"
)

// List presents a foreign sequence as a host list.
type List struct {
	obj *Object
}

func NewList(o *Object) (*List, error) {
	if err := o.do(func(_ *starlark.Thread, v starlark.Value) error {
		if _, ok := v.(starlark.Indexable); !ok {
			return noAttribute(v.Type(), "__getitem__")
		}
		if starlark.Len(v) < 0 {
			return noAttribute(v.Type(), "__len__")
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &List{
		obj: o,
	}, nil
}

func (l *List) Object() *Object {
	return l.obj
}

func (l *List) Len() (int, error) {
	return l.obj.Len()
}

func checkIndex(v starlark.Value, i int, n int) error {
	if i < 0 || i >= n {
		return &BoundsError{
			Type:  v.Type(),
			Index: i,
			Len:   n,
		}
	}
	return nil
}

// Get returns element i. Negative indexes are out of range.
func (l *List) Get(i int) (ret *Object, err error) {
	err = l.obj.do(func(_ *starlark.Thread, v starlark.Value) error {
		seq := v.(starlark.Indexable)
		if err := checkIndex(v, i, seq.Len()); err != nil {
			return err
		}
		ret = l.obj.bridge.wrap(seq.Index(i))
		return nil
	})
	return
}

// Set replaces element i and returns the previous one.
func (l *List) Set(i int, x any) (ret *Object, err error) {
	err = l.obj.do(func(_ *starlark.Thread, v starlark.Value) error {
		seq, ok := v.(starlark.HasSetIndex)
		if !ok {
			return noAttribute(v.Type(), "__setitem__")
		}
		if err := checkIndex(v, i, seq.Len()); err != nil {
			return err
		}
		fx, err := l.obj.bridge.toForeign(x)
		if err != nil {
			return err
		}
		prev := seq.Index(i)
		if err := seq.SetIndex(i, fx); err != nil {
			return err
		}
		ret = l.obj.bridge.wrap(prev)
		return nil
	})
	return
}

// callMethod calls a mutating method by name. It runs under the lock.
func (l *List) callMethod(thread *starlark.Thread, v starlark.Value, name string, args ...any) (starlark.Value, error) {
	return callMethod(l.obj.bridge, thread, v, name, args...)
}

func callMethod(b *Bridge, thread *starlark.Thread, v starlark.Value, name string, args ...any) (starlark.Value, error) {
	method, found, err := getAttr(v, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, noAttribute(v.Type(), name)
	}
	fargs, err := b.callArgs(args)
	if err != nil {
		return nil, err
	}
	return b.runtime.Call(thread, method, fargs)
}

// Add appends x.
func (l *List) Add(x any) error {
	return l.obj.do(func(thread *starlark.Thread, v starlark.Value) error {
		_, err := l.callMethod(thread, v, "insert", starlark.Len(v), x)
		return err
	})
}

// Insert inserts x before index i. i may equal the length.
func (l *List) Insert(i int, x any) error {
	return l.obj.do(func(thread *starlark.Thread, v starlark.Value) error {
		n := starlark.Len(v)
		if i < 0 || i > n {
			return &BoundsError{
				Type:  v.Type(),
				Index: i,
				Len:   n,
			}
		}
		_, err := l.callMethod(thread, v, "insert", i, x)
		return err
	})
}

// Remove removes element i and returns it.
func (l *List) Remove(i int) (ret *Object, err error) {
	err = l.obj.do(func(thread *starlark.Thread, v starlark.Value) error {
		if err := checkIndex(v, i, starlark.Len(v)); err != nil {
			return err
		}
		removed, err := l.callMethod(thread, v, "pop", i)
		if err != nil {
			return err
		}
		ret = l.obj.bridge.wrap(removed)
		return nil
	})
	return
}

func (l *List) Clear() error {
	return l.obj.do(func(thread *starlark.Thread, v starlark.Value) error {
		_, err := l.callMethod(thread, v, "clear")
		return err
	})
}

// Contains reports whether x is an element, by foreign ==.
func (l *List) Contains(x any) (ret bool, err error) {
	err = l.obj.do(func(_ *starlark.Thread, v starlark.Value) error {
		return containsValue(l.obj.bridge, v, x, &ret)
	})
	return
}

func (l *List) Iterator() (*Iterator[*Object], error) {
	return newIterator(l.obj, l.obj.bridge.wrapElem)
}

// All ranges over index and element. The length is read on every step, so
// elements may be replaced while ranging.
func (l *List) All() iter.Seq2[int, *Object] {
	return func(yield func(int, *Object) bool) {
		for i := 0; ; i++ {
			n, err := l.Len()
			if err != nil || i >= n {
				return
			}
			elem, err := l.Get(i)
			if err != nil {
				return
			}
			if !yield(i, elem) {
				return
			}
		}
	}
}
