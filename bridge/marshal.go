package bridge

import (
	"math"
	"math/big"
	"reflect"
	"unicode/utf8"

	"go.starlark.net/starlark"
)

// Char is a single character. It crosses to the foreign runtime as a
// length-1 string.
type Char rune

// Void is a conversion target that always fails.
type Void struct{}

// Kwarg is a keyword argument. Kwargs follow positional arguments.
type Kwarg struct {
	Key   string
	Value any
}

var (
	objectType = reflect.TypeFor[*Object]()
	charType   = reflect.TypeFor[Char]()
	voidType   = reflect.TypeFor[Void]()
	anyType    = reflect.TypeFor[any]()
	errorType  = reflect.TypeFor[error]()
)

// FromHost converts v to a foreign value and returns its wrapper.
func (b *Bridge) FromHost(v any) (ret *Object, err error) {
	err = b.do(func(*starlark.Thread) error {
		fv, err := b.toForeign(v)
		if err != nil {
			return err
		}
		ret = b.wrap(fv)
		return nil
	})
	return
}

func (b *Bridge) toForeign(v any) (starlark.Value, error) {
	switch v := v.(type) {

	case nil:
		return starlark.None, nil

	case *Object:
		if v == nil {
			return starlark.None, nil
		}
		return v.handle.Use()
	case *Proxy:
		if v == nil {
			return starlark.None, nil
		}
		return v.handler.handle.Use()
	case starlark.Value:
		return v, nil

	case bool:
		return starlark.Bool(v), nil

	case Char:
		return starlark.String(string(rune(v))), nil
	case []byte:
		return starlark.Bytes(v), nil
	case string:
		return starlark.String(v), nil

	case int:
		return starlark.MakeInt(v), nil
	case int8:
		return starlark.MakeInt(int(v)), nil
	case int16:
		return starlark.MakeInt(int(v)), nil
	case int32:
		return starlark.MakeInt(int(v)), nil
	case int64:
		return starlark.MakeInt64(v), nil

	case uint:
		return starlark.MakeUint(v), nil
	case uint8:
		return starlark.MakeUint(uint(v)), nil
	case uint16:
		return starlark.MakeUint(uint(v)), nil
	case uint32:
		return starlark.MakeUint(uint(v)), nil
	case uint64:
		return starlark.MakeUint64(v), nil

	case float32:
		return starlark.Float(v), nil
	case float64:
		return starlark.Float(v), nil

	case *big.Int:
		return starlark.MakeBigInt(v), nil

	case []any:
		elems := make([]starlark.Value, len(v))
		for i, e := range v {
			elem, err := b.toForeign(e)
			if err != nil {
				return nil, err
			}
			elems[i] = elem
		}
		return starlark.NewList(elems), nil

	case map[string]any:
		d := starlark.NewDict(len(v))
		for k, val := range v {
			elem, err := b.toForeign(val)
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(starlark.String(k), elem); err != nil {
				return nil, err
			}
		}
		return d, nil

	}

	value := reflect.ValueOf(v)
	switch value.Kind() {

	case reflect.Bool:
		return starlark.Bool(value.Bool()), nil

	case reflect.String:
		return starlark.String(value.String()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return starlark.MakeInt64(value.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return starlark.MakeUint64(value.Uint()), nil

	case reflect.Float32, reflect.Float64:
		return starlark.Float(value.Float()), nil

	case reflect.Func:
		if value.IsNil() {
			return starlark.None, nil
		}
		return b.newHostFunc("", value), nil

	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan:
		if value.IsNil() {
			return starlark.None, nil
		}

	}

	// no native foreign equivalent
	return b.newHost(value), nil
}

// toHost converts a foreign value to t. It must be called inside a locked
// section.
func (b *Bridge) toHost(v starlark.Value, t reflect.Type) (reflect.Value, error) {
	if t == nil || t == voidType {
		return reflect.Value{}, cannotConvert(v.Type(), "void")
	}

	// opaque host values come back as themselves
	if host, ok := hostObjectOf(v); ok {
		if host.value.Type().AssignableTo(t) {
			return host.value, nil
		}
		if t.Kind() != reflect.Pointer && host.value.Kind() == reflect.Pointer &&
			host.value.Type().Elem().AssignableTo(t) && !host.value.IsNil() {
			return host.value.Elem(), nil
		}
	}
	if fn, ok := v.(*HostFunc); ok && fn.value.Type().AssignableTo(t) {
		return fn.value, nil
	}
	if prim, ok := v.(*Primitive); ok {
		if prim.value.Type() == t {
			return prim.value, nil
		}
		v = prim.plain()
	}

	if t == objectType {
		return reflect.ValueOf(b.wrap(v)), nil
	}
	if reflect.TypeOf(v).AssignableTo(t) && t != anyType {
		return reflect.ValueOf(v).Convert(t), nil
	}

	if v == starlark.None {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, cannotConvert(v.Type(), t.String())
	}

	if t == charType {
		s, ok := v.(starlark.String)
		if !ok || utf8.RuneCountInString(string(s)) != 1 {
			return reflect.Value{}, cannotConvert(v.Type(), t.String())
		}
		r, _ := utf8.DecodeRuneInString(string(s))
		return reflect.ValueOf(Char(r)), nil
	}

	switch t.Kind() {

	case reflect.Bool:
		bv, ok := v.(starlark.Bool)
		if !ok {
			return reflect.Value{}, cannotConvert(v.Type(), t.String())
		}
		return reflect.ValueOf(bool(bv)).Convert(t), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := v.(starlark.Int)
		if !ok {
			return reflect.Value{}, cannotConvert(v.Type(), t.String())
		}
		n, ok := i.Int64()
		ret := reflect.New(t).Elem()
		if !ok || ret.OverflowInt(n) {
			return reflect.Value{}, tooLarge(v.Type(), t.String())
		}
		ret.SetInt(n)
		return ret, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		i, ok := v.(starlark.Int)
		if !ok {
			return reflect.Value{}, cannotConvert(v.Type(), t.String())
		}
		n, ok := i.Uint64()
		ret := reflect.New(t).Elem()
		if !ok || ret.OverflowUint(n) {
			return reflect.Value{}, tooLarge(v.Type(), t.String())
		}
		ret.SetUint(n)
		return ret, nil

	case reflect.Float32, reflect.Float64:
		var f float64
		switch x := v.(type) {
		case starlark.Float:
			f = float64(x)
		case starlark.Int:
			f = float64(x.Float())
			if math.IsInf(f, 0) {
				return reflect.Value{}, tooLarge(v.Type(), t.String())
			}
		default:
			return reflect.Value{}, cannotConvert(v.Type(), t.String())
		}
		ret := reflect.New(t).Elem()
		if !math.IsInf(f, 0) && ret.OverflowFloat(f) {
			return reflect.Value{}, tooLarge(v.Type(), t.String())
		}
		ret.SetFloat(f)
		return ret, nil

	case reflect.String:
		s, ok := v.(starlark.String)
		if !ok {
			return reflect.Value{}, cannotConvert(v.Type(), t.String())
		}
		return reflect.ValueOf(string(s)).Convert(t), nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			if bs, ok := v.(starlark.Bytes); ok {
				return reflect.ValueOf([]byte(bs)).Convert(t), nil
			}
		}
		seq, ok := sequenceOf(v)
		if !ok {
			return reflect.Value{}, cannotConvert(v.Type(), t.String())
		}
		ret := reflect.MakeSlice(t, seq.Len(), seq.Len())
		for i := range seq.Len() {
			elem, err := b.toHost(seq.Index(i), t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			ret.Index(i).Set(elem)
		}
		return ret, nil

	case reflect.Array:
		seq, ok := sequenceOf(v)
		if !ok || seq.Len() != t.Len() {
			return reflect.Value{}, cannotConvert(v.Type(), t.String())
		}
		ret := reflect.New(t).Elem()
		for i := range seq.Len() {
			elem, err := b.toHost(seq.Index(i), t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			ret.Index(i).Set(elem)
		}
		return ret, nil

	case reflect.Map:
		mapping, ok := v.(starlark.IterableMapping)
		if !ok {
			return reflect.Value{}, cannotConvert(v.Type(), t.String())
		}
		items := mapping.Items()
		ret := reflect.MakeMapWithSize(t, len(items))
		for _, item := range items {
			key, err := b.toHost(item[0], t.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			value, err := b.toHost(item[1], t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			ret.SetMapIndex(key, value)
		}
		return ret, nil

	case reflect.Pointer:
		elem, err := b.toHost(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ret := reflect.New(t.Elem())
		ret.Elem().Set(elem)
		return ret, nil

	case reflect.Func:
		if _, ok := v.(starlark.Callable); !ok {
			return reflect.Value{}, cannotConvert(v.Type(), t.String())
		}
		return b.makeFunc(t, v), nil

	case reflect.Interface:
		if t == anyType {
			ret := reflect.New(t).Elem()
			if natural := b.natural(v); natural != nil {
				ret.Set(reflect.ValueOf(natural))
			}
			return ret, nil
		}
		if objectType.Implements(t) {
			return reflect.ValueOf(b.wrap(v)), nil
		}

	}

	return reflect.Value{}, cannotConvert(v.Type(), t.String())
}

// sequenceOf accepts indexable values other than strings.
func sequenceOf(v starlark.Value) (starlark.Indexable, bool) {
	switch v.(type) {
	case starlark.String, starlark.Bytes:
		return nil, false
	}
	seq, ok := v.(starlark.Indexable)
	return seq, ok
}

// natural maps a foreign value to the closest plain Go value. Values with
// no plain equivalent are wrapped and must be closed by the receiver.
func (b *Bridge) natural(v starlark.Value) any {
	switch v := v.(type) {

	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(v)
	case starlark.Int:
		if n, ok := v.Int64(); ok {
			return n
		}
		return v.BigInt()
	case starlark.Float:
		return float64(v)
	case starlark.String:
		return string(v)
	case starlark.Bytes:
		return []byte(v)

	case *starlark.List, starlark.Tuple:
		seq := v.(starlark.Indexable)
		ret := make([]any, seq.Len())
		for i := range ret {
			ret[i] = b.natural(seq.Index(i))
		}
		return ret

	case *starlark.Dict:
		items := v.Items()
		for _, item := range items {
			if _, ok := item[0].(starlark.String); !ok {
				return b.wrap(v)
			}
		}
		ret := make(map[string]any, len(items))
		for _, item := range items {
			ret[string(item[0].(starlark.String))] = b.natural(item[1])
		}
		return ret

	case *HostObject:
		return v.value.Interface()
	case *HostSequence:
		return v.value.Interface()
	case *HostMapping:
		return v.value.Interface()
	case *HostFunc:
		return v.value.Interface()
	case *Primitive:
		return v.value.Interface()

	}

	return b.wrap(v)
}
