package bridge

import (
	"errors"
	"io"
	"iter"

	"github.com/reusee/starbridge/foreign"
	"go.starlark.net/starlark"
)

var ErrExhausted = errors.New("iterator exhausted")

// Iterator walks a foreign iteration with one element of look-ahead, so
// HasNext never calls into the foreign runtime. It is single-pass and not
// safe for concurrent use.
type Iterator[T any] struct {
	bridge  *Bridge
	iter    *foreign.Iterator
	convert func(starlark.Value) (T, error)
	next    T
	has     bool
	err     error
}

func newIterator[T any](
	o *Object,
	convert func(starlark.Value) (T, error),
) (*Iterator[T], error) {
	return iterate(o, func(_ *starlark.Thread, v starlark.Value) (starlark.Value, error) {
		return v, nil
	}, convert)
}

// iterate iterates the value produced by source, which runs under the lock.
func iterate[T any](
	o *Object,
	source func(*starlark.Thread, starlark.Value) (starlark.Value, error),
	convert func(starlark.Value) (T, error),
) (*Iterator[T], error) {
	i := &Iterator[T]{
		bridge:  o.bridge,
		convert: convert,
	}
	if err := o.do(func(thread *starlark.Thread, v starlark.Value) error {
		iterable, err := source(thread, v)
		if err != nil {
			return err
		}
		i.iter, err = o.bridge.runtime.Iterate(iterable)
		if err != nil {
			return err
		}
		return i.pull()
	}); err != nil {
		return nil, err
	}
	return i, nil
}

// pull fetches the following element. It runs under the lock.
func (i *Iterator[T]) pull() error {
	var zero T
	i.next = zero
	i.has = false
	v, ok, err := i.iter.Next()
	if err != nil || !ok {
		return err
	}
	i.next, err = i.convert(v)
	if err != nil {
		i.iter.Done()
		return err
	}
	i.has = true
	return nil
}

// HasNext reports whether Next returns an element or a pending failure.
func (i *Iterator[T]) HasNext() bool {
	return i.has || i.err != nil
}

func (i *Iterator[T]) Next() (ret T, err error) {
	if i.err != nil {
		err, i.err = i.err, nil
		return
	}
	if !i.has {
		return ret, ErrExhausted
	}
	ret = i.next
	if err := i.bridge.do(func(*starlark.Thread) error {
		return i.pull()
	}); err != nil {
		// reported by the following Next
		i.err = err
	}
	return ret, nil
}

// Remove is not supported: the foreign runtime forbids structural mutation
// during iteration.
func (i *Iterator[T]) Remove() error {
	return errIterationRemove
}

// Close releases the foreign iterator before exhaustion.
func (i *Iterator[T]) Close() error {
	var err error
	if i.has {
		// the look-ahead element was never handed out
		if closer, ok := any(i.next).(io.Closer); ok {
			err = closer.Close()
		}
		var zero T
		i.next = zero
	}
	i.has = false
	i.err = nil
	return errors.Join(err, i.bridge.do(func(*starlark.Thread) error {
		i.iter.Done()
		return nil
	}))
}

// All ranges over the remaining elements. A failure is yielded once and
// ends the iteration.
func (i *Iterator[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer i.Close()
		for i.HasNext() {
			v, err := i.Next()
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}
