package bridge

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"unicode/utf8"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Primitive is a foreign value carrying an explicitly typed Go number, bool
// or char. Foreign code creates them with host.int16(x) and friends to pick
// a specific overload.
type Primitive struct {
	value reflect.Value
}

var _ starlark.Comparable = new(Primitive)

func (p *Primitive) Value() any {
	return p.value.Interface()
}

func (p *Primitive) String() string {
	return fmt.Sprintf("%s(%v)", p.Type(), p.value.Interface())
}

func (p *Primitive) Type() string {
	if p.value.Type() == charType {
		return "char"
	}
	return p.value.Type().String()
}

func (p *Primitive) Freeze() {}

func (p *Primitive) Truth() starlark.Bool {
	return !starlark.Bool(p.value.IsZero())
}

func (p *Primitive) Hash() (uint32, error) {
	return p.plain().Hash()
}

func (p *Primitive) CompareSameType(op syntax.Token, y starlark.Value, depth int) (bool, error) {
	return starlark.CompareDepth(op, p.plain(), y.(*Primitive).plain(), depth)
}

// plain returns the untyped foreign value.
func (p *Primitive) plain() starlark.Value {
	switch p.value.Kind() {
	case reflect.Bool:
		return starlark.Bool(p.value.Bool())
	case reflect.Float32, reflect.Float64:
		return starlark.Float(p.value.Float())
	}
	if p.value.Type() == charType {
		return starlark.String(string(rune(p.value.Int())))
	}
	return starlark.MakeInt64(p.value.Int())
}

var primitiveTypes = map[string]reflect.Type{
	"int8":    reflect.TypeFor[int8](),
	"int16":   reflect.TypeFor[int16](),
	"int32":   reflect.TypeFor[int32](),
	"int64":   reflect.TypeFor[int64](),
	"float32": reflect.TypeFor[float32](),
	"float64": reflect.TypeFor[float64](),
	"char":    charType,
	"boolean": reflect.TypeFor[bool](),
}

func (b *Bridge) hostMembers() starlark.StringDict {
	members := make(starlark.StringDict)
	for name, t := range primitiveTypes {
		members[name] = starlark.NewBuiltin(name, makePrimitive(t))
	}
	return members
}

// makePrimitive builds the constructor of a typed primitive. Out of range
// values fail unless truncate is set.
func makePrimitive(t reflect.Type) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var x starlark.Value
		var truncate bool
		if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "x", &x, "truncate?", &truncate); err != nil {
			return nil, err
		}
		if p, ok := x.(*Primitive); ok {
			x = p.plain()
		}
		ret := reflect.New(t).Elem()

		if t == charType {
			s, ok := x.(starlark.String)
			if !ok || utf8.RuneCountInString(string(s)) != 1 {
				return nil, raise(cannotConvert(x.Type(), "char"))
			}
			r, _ := utf8.DecodeRuneInString(string(s))
			ret.SetInt(int64(r))
			return &Primitive{value: ret}, nil
		}

		switch t.Kind() {

		case reflect.Bool:
			bv, ok := x.(starlark.Bool)
			if !ok {
				return nil, raise(cannotConvert(x.Type(), "boolean"))
			}
			ret.SetBool(bool(bv))

		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			i, ok := x.(starlark.Int)
			if !ok {
				return nil, raise(cannotConvert(x.Type(), t.String()))
			}
			n, exact := i.Int64()
			if !exact || ret.OverflowInt(n) {
				if !truncate {
					return nil, raise(tooLarge(x.Type(), t.String()))
				}
				n = lowBits(i.BigInt())
			}
			// Convert wraps to the target width
			ret.Set(reflect.ValueOf(n).Convert(t))

		case reflect.Float32, reflect.Float64:
			f, ok := starlark.AsFloat(x)
			if !ok {
				return nil, raise(cannotConvert(x.Type(), t.String()))
			}
			if !math.IsInf(f, 0) && ret.OverflowFloat(f) && !truncate {
				return nil, raise(tooLarge(x.Type(), t.String()))
			}
			ret.SetFloat(f)

		}

		return &Primitive{value: ret}, nil
	}
}

// lowBits returns the low 64 bits of x in two's complement.
func lowBits(x *big.Int) int64 {
	mask := new(big.Int).SetUint64(math.MaxUint64)
	return int64(new(big.Int).And(x, mask).Uint64())
}
