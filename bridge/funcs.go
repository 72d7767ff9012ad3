package bridge

import (
	"reflect"
	"strconv"

	"go.starlark.net/starlark"
)

// resultTypes returns the out types of ft without a trailing error.
func resultTypes(ft reflect.Type) (types []reflect.Type, hasError bool) {
	n := ft.NumOut()
	if n > 0 && ft.Out(n-1) == errorType {
		hasError = true
		n--
	}
	for i := range n {
		types = append(types, ft.Out(i))
	}
	return
}

// argsOf flattens Go call arguments, expanding a variadic tail.
func argsOf(ft reflect.Type, in []reflect.Value) []any {
	args := make([]any, 0, len(in))
	for i, v := range in {
		if ft.IsVariadic() && i == len(in)-1 {
			for j := range v.Len() {
				args = append(args, v.Index(j).Interface())
			}
			continue
		}
		args = append(args, v.Interface())
	}
	return args
}

// coerce converts a foreign result to the declared result types. It runs
// under the lock.
func (b *Bridge) coerce(types []reflect.Type, result starlark.Value) ([]reflect.Value, error) {
	switch len(types) {
	case 0:
		return nil, nil
	case 1:
		v, err := b.toHost(result, types[0])
		if err != nil {
			return nil, err
		}
		return []reflect.Value{v}, nil
	}
	tuple, ok := result.(starlark.Tuple)
	if !ok || len(tuple) != len(types) {
		return nil, cannotConvert(result.Type(), "tuple of "+strconv.Itoa(len(types)))
	}
	values := make([]reflect.Value, len(types))
	for i, t := range types {
		v, err := b.toHost(tuple[i], t)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// dispatch calls the callable picked by target with Go arguments and
// coerces the result to the results of ft.
func (b *Bridge) dispatch(
	ft reflect.Type,
	target func(thread *starlark.Thread) (starlark.Value, error),
	args []any,
) (values []reflect.Value, err error) {
	types, _ := resultTypes(ft)
	err = b.do(func(thread *starlark.Thread) error {
		fn, err := target(thread)
		if err != nil {
			return err
		}
		fargs, err := b.callArgs(args)
		if err != nil {
			return err
		}
		result, err := b.runtime.Call(thread, fn, fargs)
		if err != nil {
			return err
		}
		values, err = b.coerce(types, result)
		return err
	})
	return
}

// fill builds the results of a generated func. Without an error result a
// failure panics.
func fill(ft reflect.Type, values []reflect.Value, err error) []reflect.Value {
	types, hasError := resultTypes(ft)
	if err != nil && !hasError {
		panic(err)
	}
	ret := make([]reflect.Value, 0, ft.NumOut())
	for i, t := range types {
		if err != nil {
			ret = append(ret, reflect.Zero(t))
			continue
		}
		ret = append(ret, values[i])
	}
	if hasError {
		errValue := reflect.New(errorType).Elem()
		if err != nil {
			errValue.Set(reflect.ValueOf(err))
		}
		ret = append(ret, errValue)
	}
	return ret
}

// makeFunc builds a Go func of type t calling the foreign callable fn.
func (b *Bridge) makeFunc(t reflect.Type, fn starlark.Value) reflect.Value {
	return reflect.MakeFunc(t, func(in []reflect.Value) []reflect.Value {
		values, err := b.dispatch(t, func(*starlark.Thread) (starlark.Value, error) {
			return fn, nil
		}, argsOf(t, in))
		return fill(t, values, err)
	})
}
