package reflects

import (
	"reflect"
	"strings"
)

type ParamKind uint8

const (
	Plain ParamKind = iota
	// Rest absorbs zero or more trailing arguments
	Rest
)

// Param describes one parameter position.
type Param struct {
	Kind ParamKind
	// Type is the element type for Rest
	Type reflect.Type
	// Slice is the declared slice type for Rest
	Slice reflect.Type
}

type Signature struct {
	Name     string
	Func     reflect.Value
	Params   []Param
	Variadic bool
	// Static signatures take no receiver
	Static bool
	// Pointer methods are called on the address of a value receiver
	Pointer bool
	Out     []reflect.Type
}

func newSignature(name string, fn reflect.Value, static bool) *Signature {
	ft := fn.Type()
	sig := &Signature{
		Name:     name,
		Func:     fn,
		Variadic: ft.IsVariadic(),
		Static:   static,
	}
	first := 0
	if !static {
		first = 1
	}
	for i := first; i < ft.NumIn(); i++ {
		t := ft.In(i)
		if sig.Variadic && i == ft.NumIn()-1 {
			sig.Params = append(sig.Params, Param{
				Kind:  Rest,
				Type:  t.Elem(),
				Slice: t,
			})
			continue
		}
		sig.Params = append(sig.Params, Param{
			Kind: Plain,
			Type: t,
		})
	}
	for i := 0; i < ft.NumOut(); i++ {
		sig.Out = append(sig.Out, ft.Out(i))
	}
	return sig
}

func (s *Signature) String() string {
	b := new(strings.Builder)
	b.WriteString(s.Name)
	b.WriteString("(")
	for i, param := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if param.Kind == Rest {
			b.WriteString("...")
		}
		b.WriteString(param.Type.String())
	}
	b.WriteString(")")
	return b.String()
}

// ParamType returns the type an argument at position i is converted to.
// spread means the last argument is passed as the variadic slice itself.
func (s *Signature) ParamType(i int, spread bool) reflect.Type {
	if i < len(s.Params)-1 || !s.Variadic {
		return s.Params[i].Type
	}
	last := s.Params[len(s.Params)-1]
	if spread {
		return last.Slice
	}
	return last.Type
}

// Call invokes the signature. recv is ignored for static signatures. A
// pointer method called on an unaddressable value runs on a copy.
func (s *Signature) Call(recv reflect.Value, args []reflect.Value, spread bool) []reflect.Value {
	if !s.Static {
		if s.Pointer && recv.Kind() != reflect.Pointer {
			if recv.CanAddr() {
				recv = recv.Addr()
			} else {
				ptr := reflect.New(recv.Type())
				ptr.Elem().Set(recv)
				recv = ptr
			}
		}
		args = append([]reflect.Value{recv}, args...)
	}
	if spread {
		return s.Func.CallSlice(args)
	}
	return s.Func.Call(args)
}

// FuncSet wraps a plain func as a single-candidate static overload set.
func FuncSet(name string, fn reflect.Value) *OverloadSet {
	return &OverloadSet{
		Name: name,
		Signatures: []*Signature{
			newSignature(name, fn, true),
		},
	}
}
