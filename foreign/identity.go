package foreign

import (
	"reflect"

	"go.starlark.net/starlark"
)

// Identity returns a key that is equal for two references to the same foreign
// object. Reference-shaped values are keyed by pointer, comparable immutable
// values by value. Other values have no stable identity.
// Floats are never cached: NaN is unequal to itself and -0 equals 0.
func Identity(v starlark.Value) (any, bool) {
	if v == nil {
		return nil, false
	}
	if _, ok := v.(starlark.Float); ok {
		return nil, false
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return v, true
	}
	if !t.Comparable() {
		return nil, false
	}
	return v, true
}
