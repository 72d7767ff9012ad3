package bridge

import (
	"reflect"
	"unicode/utf8"

	"github.com/reusee/starbridge/reflects"
	"go.starlark.net/starlark"
)

// widening order of a foreign int
var intRanks = map[reflect.Kind]int{
	reflect.Int32:   1,
	reflect.Int16:   2,
	reflect.Int8:    3,
	reflect.Uint:    4,
	reflect.Uint64:  4,
	reflect.Uint32:  5,
	reflect.Uint16:  6,
	reflect.Uint8:   7,
	reflect.Float64: 8,
	reflect.Float32: 9,
}

// widening of typed primitives: a source kind converts to each listed kind
// without loss, in order of preference
var primitiveWidening = map[reflect.Kind][]reflect.Kind{
	reflect.Int8:    {reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int, reflect.Float32, reflect.Float64},
	reflect.Int16:   {reflect.Int32, reflect.Int64, reflect.Int, reflect.Float32, reflect.Float64},
	reflect.Int32:   {reflect.Int64, reflect.Int, reflect.Float64, reflect.Float32},
	reflect.Int64:   {reflect.Int, reflect.Float64, reflect.Float32},
	reflect.Float32: {reflect.Float64},
}

// score rates how well v converts to t. Lower is better.
func score(v starlark.Value, t reflect.Type) (int, bool) {
	if t == nil || t == voidType {
		return 0, false
	}

	if host, ok := hostObjectOf(v); ok {
		if s, ok := scoreHost(host.value.Type(), t); ok {
			return s, true
		}
		if _, opaque := v.(*HostObject); opaque {
			return 0, false
		}
		// host sequences and mappings also convert element-wise
	}

	switch v := v.(type) {
	case *HostFunc:
		return scoreHost(v.value.Type(), t)
	case *Primitive:
		return scorePrimitive(v, t)
	}

	if t == objectType {
		return reflects.Reference, true
	}
	if t == anyType {
		return reflects.Reference + 1, true
	}
	if vt := reflect.TypeOf(v); vt == t {
		return reflects.Exact, true
	} else if vt.AssignableTo(t) {
		return reflects.Reference, true
	}

	if v == starlark.None {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflects.Reference, true
		}
		return 0, false
	}

	if t.Kind() == reflect.Pointer {
		inner, ok := score(v, t.Elem())
		if !ok {
			return 0, false
		}
		return reflects.Boxing + inner, true
	}

	if t == charType {
		if s, ok := v.(starlark.String); ok && utf8.RuneCountInString(string(s)) == 1 {
			return reflects.Widening + 1, true
		}
		return 0, false
	}

	switch v := v.(type) {

	case starlark.Bool:
		if t.Kind() == reflect.Bool {
			return reflects.Exact, true
		}

	case starlark.Int:
		switch t.Kind() {
		case reflect.Int, reflect.Int64:
			return reflects.Exact, true
		}
		if rank, ok := intRanks[t.Kind()]; ok {
			return reflects.Widening + rank, true
		}

	case starlark.Float:
		switch t.Kind() {
		case reflect.Float64:
			return reflects.Exact, true
		case reflect.Float32:
			return reflects.Widening + 1, true
		}

	case starlark.String:
		if t.Kind() == reflect.String {
			return reflects.Exact, true
		}

	case starlark.Bytes:
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return reflects.Exact, true
		}

	case starlark.IterableMapping:
		if t.Kind() == reflect.Map {
			return reflects.Widening + 10, true
		}

	case starlark.Indexable:
		switch t.Kind() {
		case reflect.Slice:
			return reflects.Widening + 10, true
		case reflect.Array:
			if v.Len() == t.Len() {
				return reflects.Widening + 10, true
			}
		}

	}

	if t.Kind() == reflect.Func {
		if _, ok := v.(starlark.Callable); ok {
			return reflects.Widening + 10, true
		}
	}
	if t.Kind() == reflect.Interface && objectType.Implements(t) {
		return reflects.Reference + 2, true
	}

	return 0, false
}

func scoreHost(vt reflect.Type, t reflect.Type) (int, bool) {
	switch {
	case vt == t:
		return reflects.Exact, true
	case vt.Kind() == reflect.Pointer && vt.Elem() == t:
		return reflects.Boxing, true
	case t == anyType:
		return reflects.Reference + 1, true
	case vt.AssignableTo(t):
		return reflects.Reference, true
	}
	return 0, false
}

func scorePrimitive(p *Primitive, t reflect.Type) (int, bool) {
	from := p.value.Type()
	if from == t {
		return reflects.Exact, true
	}
	if t == anyType {
		return reflects.Reference + 1, true
	}
	if from.Kind() == t.Kind() && from.ConvertibleTo(t) {
		return reflects.Widening, true
	}
	if t.Kind() == reflect.Pointer {
		inner, ok := scorePrimitive(p, t.Elem())
		if !ok {
			return 0, false
		}
		return reflects.Boxing + inner, true
	}
	if from == charType && t.Kind() == reflect.String {
		return reflects.Widening + 1, true
	}
	for rank, kind := range primitiveWidening[from.Kind()] {
		if kind == t.Kind() {
			return reflects.Widening + 1 + rank, true
		}
	}
	return 0, false
}

func argTypes(args []starlark.Value) []string {
	types := make([]string, len(args))
	for i, arg := range args {
		types[i] = arg.Type()
	}
	return types
}

// resolve picks the overload for foreign arguments.
func resolve(set *reflects.OverloadSet, args []starlark.Value) (*reflects.Match, error) {
	return set.Resolve(argTypes(args), func(i int, t reflect.Type) (int, bool) {
		return score(args[i], t)
	})
}
