package bridge

import (
	"fmt"
	"hash/maphash"
	"reflect"

	"github.com/reusee/starbridge/foreign"
	"github.com/reusee/starbridge/reflects"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// HostObject exposes a Go value to foreign code: exported methods, fields
// and nested types become attributes.
type HostObject struct {
	bridge *Bridge
	value  reflect.Value
	class  *reflects.Class
}

var (
	_ starlark.HasAttrs    = new(HostObject)
	_ starlark.HasSetField = new(HostObject)
	_ starlark.Comparable  = new(HostObject)
)

func (b *Bridge) newHostObject(value reflect.Value) *HostObject {
	switch value.Kind() {
	case reflect.Struct, reflect.Array:
		if !value.CanAddr() {
			// the foreign side owns an addressable copy, so fields and
			// pointer methods can mutate it
			copied := reflect.New(value.Type()).Elem()
			copied.Set(value)
			value = copied
		}
	}
	return &HostObject{
		bridge: b,
		value:  value,
		class:  reflects.ClassOf(value.Type()),
	}
}

// newHost wraps a Go value with no native foreign equivalent. Slices and
// arrays become sequences, maps become mappings.
func (b *Bridge) newHost(value reflect.Value) starlark.Value {
	obj := b.newHostObject(value)
	switch value.Kind() {
	case reflect.Slice, reflect.Array:
		return &HostSequence{
			HostObject: obj,
		}
	case reflect.Map:
		return &HostMapping{
			HostObject: obj,
		}
	}
	return obj
}

// Value returns the wrapped Go value.
func (h *HostObject) Value() any {
	return h.value.Interface()
}

func (h *HostObject) String() string {
	return fmt.Sprintf("<host %s>", h.value.Type())
}

func (h *HostObject) Type() string {
	return h.value.Type().String()
}

func (h *HostObject) Freeze() {}

func (h *HostObject) Truth() starlark.Bool {
	return starlark.True
}

var hashSeed = maphash.MakeSeed()

func (h *HostObject) Hash() (uint32, error) {
	if !h.value.Type().Comparable() {
		return 0, fmt.Errorf("unhashable type: %s", h.Type())
	}
	return uint32(maphash.Comparable(hashSeed, h.value.Interface())), nil
}

func (h *HostObject) CompareSameType(op syntax.Token, y starlark.Value, depth int) (bool, error) {
	other, ok := hostObjectOf(y)
	var eq bool
	if ok && h.value.Type() == other.value.Type() && h.value.Type().Comparable() {
		eq = h.value.Interface() == other.value.Interface()
	}
	switch op {
	case syntax.EQL:
		return eq, nil
	case syntax.NEQ:
		return !eq, nil
	}
	return false, fmt.Errorf("%s %s %s not implemented", h.Type(), op, y.Type())
}

func (h *HostObject) Attr(name string) (starlark.Value, error) {
	if set, ok := h.class.Method(name); ok {
		return &HostMethod{
			bridge: h.bridge,
			name:   name,
			recv:   h.value,
			set:    set,
		}, nil
	}
	if field, ok := h.class.Field(name); ok {
		fv, err := h.structValue().FieldByIndexErr(field.Index)
		if err != nil {
			return nil, raise(err)
		}
		v, err := h.bridge.toForeign(fv.Interface())
		if err != nil {
			return nil, raise(err)
		}
		return v, nil
	}
	if nested, ok := h.class.Nested(name); ok {
		return h.bridge.newHostClass(name, nested), nil
	}
	// missing
	return nil, nil
}

func (h *HostObject) AttrNames() []string {
	names := h.class.MethodNames()
	names = append(names, h.class.FieldNames()...)
	return names
}

func (h *HostObject) SetField(name string, v starlark.Value) error {
	field, ok := h.class.Field(name)
	if !ok {
		return &foreign.Exception{
			Type: "AttributeError",
			Msg:  fmt.Sprintf("%s object has no attribute '%s'", h.Type(), name),
		}
	}
	fv, err := h.structValue().FieldByIndexErr(field.Index)
	if err != nil {
		return raise(err)
	}
	if !fv.CanSet() {
		return &foreign.Exception{
			Type: "AttributeError",
			Msg:  fmt.Sprintf("cannot set field %s of non-pointer %s", name, h.Type()),
		}
	}
	value, err := h.bridge.toHost(v, field.Type)
	if err != nil {
		return raise(err)
	}
	fv.Set(value)
	return nil
}

func (h *HostObject) structValue() reflect.Value {
	if h.value.Kind() == reflect.Pointer {
		return h.value.Elem()
	}
	return h.value
}

// HostMethod is a method bound to its receiver.
type HostMethod struct {
	bridge *Bridge
	name   string
	recv   reflect.Value
	set    *reflects.OverloadSet
}

var _ starlark.Callable = new(HostMethod)

func (m *HostMethod) String() string {
	return fmt.Sprintf("<host method %s>", m.set.Name)
}

func (m *HostMethod) Type() string {
	return "host_method"
}

func (m *HostMethod) Freeze() {}

func (m *HostMethod) Truth() starlark.Bool {
	return starlark.True
}

func (m *HostMethod) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: %s", m.Type())
}

func (m *HostMethod) Name() string {
	return m.name
}

func (m *HostMethod) CallInternal(thread *starlark.Thread, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, noKeywords(m.name)
	}
	return m.bridge.invoke(m.set, m.recv, args)
}

// HostFunc exposes a Go func.
type HostFunc struct {
	bridge *Bridge
	name   string
	value  reflect.Value
	set    *reflects.OverloadSet
}

var _ starlark.Callable = new(HostFunc)

func (b *Bridge) newHostFunc(name string, value reflect.Value) *HostFunc {
	return &HostFunc{
		bridge: b,
		name:   name,
		value:  value,
		set:    reflects.FuncSet(name, value),
	}
}

func (f *HostFunc) String() string {
	return fmt.Sprintf("<host func %s>", f.value.Type())
}

func (f *HostFunc) Type() string {
	return "host_func"
}

func (f *HostFunc) Freeze() {}

func (f *HostFunc) Truth() starlark.Bool {
	return starlark.True
}

func (f *HostFunc) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: %s", f.Type())
}

func (f *HostFunc) Name() string {
	return f.name
}

func (f *HostFunc) CallInternal(thread *starlark.Thread, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, noKeywords(f.name)
	}
	return f.bridge.invoke(f.set, reflect.Value{}, args)
}

// HostClass exposes the constructors and nested types of a Go type.
type HostClass struct {
	bridge *Bridge
	name   string
	typ    reflect.Type
	class  *reflects.Class
}

var (
	_ starlark.Callable = new(HostClass)
	_ starlark.HasAttrs = new(HostClass)
)

func (b *Bridge) newHostClass(name string, t reflect.Type) *HostClass {
	return &HostClass{
		bridge: b,
		name:   name,
		typ:    t,
		class:  reflects.ClassOf(t),
	}
}

// DefineClass registers constructors of t and exposes the class as
// host.<name> to foreign code.
func (b *Bridge) DefineClass(name string, t reflect.Type, ctors ...any) *HostClass {
	reflects.Define(t, ctors...)
	class := b.newHostClass(name, t)
	foreign.ExecLock().Acquire()
	b.host.Members[name] = class
	foreign.ExecLock().Release()
	b.logger.Debug("class defined",
		"name", name,
		"type", t.String(),
	)
	return class
}

func (c *HostClass) String() string {
	return fmt.Sprintf("<host class %s>", c.typ)
}

func (c *HostClass) Type() string {
	return "host_class"
}

func (c *HostClass) Freeze() {}

func (c *HostClass) Truth() starlark.Bool {
	return starlark.True
}

func (c *HostClass) Hash() (uint32, error) {
	return uint32(maphash.Comparable(hashSeed, c.typ)), nil
}

func (c *HostClass) Name() string {
	return c.name
}

func (c *HostClass) CallInternal(thread *starlark.Thread, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, noKeywords(c.name)
	}
	set, ok := c.class.Constructors()
	if !ok {
		return nil, &foreign.Exception{
			Type: "TypeError",
			Msg:  fmt.Sprintf("%s has no constructor", c.name),
		}
	}
	return c.bridge.invoke(set, reflect.Value{}, args)
}

func (c *HostClass) Attr(name string) (starlark.Value, error) {
	if nested, ok := c.class.Nested(name); ok {
		return c.bridge.newHostClass(name, nested), nil
	}
	return nil, nil
}

func (c *HostClass) AttrNames() []string {
	return c.class.NestedNames()
}

func noKeywords(name string) error {
	return &foreign.Exception{
		Type: "TypeError",
		Msg:  fmt.Sprintf("%s: host functions take no keyword arguments", name),
	}
}

// invoke resolves and calls a host overload from foreign code. Arguments
// are converted under the execution lock; the Go call runs without it.
func (b *Bridge) invoke(set *reflects.OverloadSet, recv reflect.Value, args starlark.Tuple) (starlark.Value, error) {
	match, err := resolve(set, args)
	if err != nil {
		return nil, raise(err)
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := b.toHost(arg, match.ParamType(i, match.Spread))
		if err != nil {
			return nil, raise(err)
		}
		in[i] = v
	}

	var out []reflect.Value
	b.runtime.Unlocked(func() {
		out, err = safeCall(func() []reflect.Value {
			return match.Call(recv, in, match.Spread)
		})
	})
	if err != nil {
		return nil, raise(err)
	}

	if n := len(match.Out); n > 0 && match.Out[n-1] == errorType {
		if e := out[n-1]; !e.IsNil() {
			return nil, raise(e.Interface().(error))
		}
		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return starlark.None, nil
	case 1:
		v, err := b.toForeign(out[0].Interface())
		if err != nil {
			return nil, raise(err)
		}
		return v, nil
	}
	tuple := make(starlark.Tuple, len(out))
	for i, o := range out {
		v, err := b.toForeign(o.Interface())
		if err != nil {
			return nil, raise(err)
		}
		tuple[i] = v
	}
	return tuple, nil
}

func safeCall(fn func() []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = e
				return
			}
			err = &foreign.Panicked{
				Value: p,
			}
		}
	}()
	return fn(), nil
}
