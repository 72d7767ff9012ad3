package foreign

import (
	"fmt"

	"go.starlark.net/starlark"
)

// Arg is one call argument. A non-empty Name makes it a keyword argument.
type Arg struct {
	Name  string
	Value starlark.Value
}

// Call is the callForeign primitive. Keyword arguments must follow positional
// ones and may not repeat. It must be called inside Do.
func (r *Runtime) Call(thread *starlark.Thread, fn starlark.Value, args []Arg) (starlark.Value, error) {
	if _, ok := fn.(starlark.Callable); !ok {
		return nil, &Exception{
			Type: "TypeError",
			Msg:  fmt.Sprintf("'%s' object is not callable", fn.Type()),
		}
	}
	var positional starlark.Tuple
	var kwargs []starlark.Tuple
	seen := make(map[string]bool)
	for _, arg := range args {
		if arg.Name == "" {
			if len(kwargs) > 0 {
				return nil, &Exception{
					Type: "SyntaxError",
					Msg:  "positional argument follows keyword argument",
				}
			}
			positional = append(positional, arg.Value)
			continue
		}
		if seen[arg.Name] {
			return nil, &Exception{
				Type: "SyntaxError",
				Msg:  fmt.Sprintf("keyword argument repeated: %s", arg.Name),
			}
		}
		seen[arg.Name] = true
		kwargs = append(kwargs, starlark.Tuple{
			starlark.String(arg.Name),
			arg.Value,
		})
	}
	return starlark.Call(thread, fn, positional, kwargs)
}

// Iterator is the host side of a foreign iteration.
type Iterator struct {
	iter starlark.Iterator
}

// Iterate is the iterForeign primitive. It must be called inside Do, and the
// returned iterator used and released inside Do as well.
func (r *Runtime) Iterate(v starlark.Value) (*Iterator, error) {
	iter := starlark.Iterate(v)
	if iter == nil {
		return nil, &Exception{
			Type: "TypeError",
			Msg:  fmt.Sprintf("'%s' object is not iterable", v.Type()),
		}
	}
	return &Iterator{
		iter: iter,
	}, nil
}

type errIterator interface {
	Err() error
}

// Next returns the next element. ok is false once the iteration is
// exhausted or failed; err reports the failure.
func (i *Iterator) Next() (v starlark.Value, ok bool, err error) {
	if i.iter == nil {
		return nil, false, nil
	}
	if i.iter.Next(&v) {
		return v, true, nil
	}
	if e, is := i.iter.(errIterator); is {
		err = e.Err()
	}
	i.Done()
	return nil, false, err
}

// Done releases the foreign iterator. It is safe to call more than once.
func (i *Iterator) Done() {
	if i.iter != nil {
		i.iter.Done()
		i.iter = nil
	}
}
