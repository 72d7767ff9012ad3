package bridge

import (
	"reflect"
	"sort"

	"github.com/reusee/starbridge/foreign"
	"github.com/reusee/starbridge/handles"
	"go.starlark.net/starlark"
)

// Object is the host-side wrapper of one foreign value.
type Object struct {
	bridge *Bridge
	handle *handles.Handle[Object]
}

// ID identifies the foreign object. Two wrappers of the same foreign object
// share an ID while either is open.
func (o *Object) ID() int64 {
	return o.handle.ID()
}

// Close releases one reference to the foreign value.
func (o *Object) Close() error {
	return o.handle.Close()
}

// Value returns the underlying foreign value.
func (o *Object) Value() (starlark.Value, error) {
	return o.handle.Use()
}

// Type returns the foreign type name.
func (o *Object) Type() (string, error) {
	v, err := o.handle.Use()
	if err != nil {
		return "", err
	}
	return v.Type(), nil
}

func (o *Object) do(fn func(thread *starlark.Thread, v starlark.Value) error) error {
	return o.bridge.do(func(thread *starlark.Thread) error {
		v, err := o.handle.Use()
		if err != nil {
			return err
		}
		return fn(thread, v)
	})
}

func (o *Object) Repr() (ret string, err error) {
	err = o.do(func(_ *starlark.Thread, v starlark.Value) error {
		ret = v.String()
		return nil
	})
	return
}

// String returns the str() form: strings unquoted, other values as Repr.
func (o *Object) String() string {
	var ret string
	if err := o.do(func(_ *starlark.Thread, v starlark.Value) error {
		if s, ok := v.(starlark.String); ok {
			ret = string(s)
		} else {
			ret = v.String()
		}
		return nil
	}); err != nil {
		return "<" + err.Error() + ">"
	}
	return ret
}

// Equal compares with the foreign == operator.
func (o *Object) Equal(other any) (ret bool, err error) {
	err = o.do(func(_ *starlark.Thread, v starlark.Value) error {
		ov, err := o.bridge.toForeign(other)
		if err != nil {
			return err
		}
		ret, err = starlark.Equal(v, ov)
		return err
	})
	return
}

func (o *Object) Hash() (ret uint32, err error) {
	err = o.do(func(_ *starlark.Thread, v starlark.Value) error {
		ret, err = v.Hash()
		return err
	})
	return
}

func (o *Object) Truth() (ret bool, err error) {
	err = o.do(func(_ *starlark.Thread, v starlark.Value) error {
		ret = bool(v.Truth())
		return nil
	})
	return
}

// Len returns the foreign len(), failing for values without one.
func (o *Object) Len() (ret int, err error) {
	err = o.do(func(_ *starlark.Thread, v starlark.Value) error {
		ret = starlark.Len(v)
		if ret < 0 {
			return noAttribute(v.Type(), "__len__")
		}
		return nil
	})
	return
}

// getAttr looks name up. found is false for a missing attribute.
func getAttr(v starlark.Value, name string) (attr starlark.Value, found bool, err error) {
	hasAttrs, ok := v.(starlark.HasAttrs)
	if !ok {
		return nil, false, nil
	}
	attr, err = hasAttrs.Attr(name)
	if err != nil {
		if _, ok := err.(starlark.NoSuchAttrError); ok {
			return nil, false, nil
		}
		return nil, false, err
	}
	return attr, attr != nil, nil
}

func missingAttr(v starlark.Value, name string) error {
	return &foreign.Exception{
		Type: "AttributeError",
		Msg:  v.Type() + " object has no attribute '" + name + "'",
	}
}

// Get returns the named attribute, or nil when it does not exist.
func (o *Object) Get(name string) (ret *Object, err error) {
	err = o.do(func(_ *starlark.Thread, v starlark.Value) error {
		attr, found, err := getAttr(v, name)
		if err != nil || !found {
			return err
		}
		ret = o.bridge.wrap(attr)
		return nil
	})
	return
}

// Attr returns the named attribute, failing when it does not exist.
func (o *Object) Attr(name string) (ret *Object, err error) {
	err = o.do(func(_ *starlark.Thread, v starlark.Value) error {
		attr, found, err := getAttr(v, name)
		if err != nil {
			return err
		}
		if !found {
			return missingAttr(v, name)
		}
		ret = o.bridge.wrap(attr)
		return nil
	})
	return
}

// ContainsKey reports whether the attribute exists.
func (o *Object) ContainsKey(name string) (ret bool, err error) {
	err = o.do(func(_ *starlark.Thread, v starlark.Value) error {
		_, ret, err = getAttr(v, name)
		return err
	})
	return
}

// Put sets the named attribute.
func (o *Object) Put(name string, value any) error {
	return o.do(func(_ *starlark.Thread, v starlark.Value) error {
		setter, ok := v.(starlark.HasSetField)
		if !ok {
			return missingAttr(v, name)
		}
		fv, err := o.bridge.toForeign(value)
		if err != nil {
			return err
		}
		return setter.SetField(name, fv)
	})
}

// Remove deletes the named attribute.
func (o *Object) Remove(name string) error {
	return o.do(func(_ *starlark.Thread, v starlark.Value) error {
		deleter, ok := v.(foreign.HasDelField)
		if !ok {
			return missingAttr(v, name)
		}
		return deleter.DelField(name)
	})
}

// Dir returns the sorted attribute names.
func (o *Object) Dir() (ret []string, err error) {
	err = o.do(func(_ *starlark.Thread, v starlark.Value) error {
		if hasAttrs, ok := v.(starlark.HasAttrs); ok {
			ret = hasAttrs.AttrNames()
			sort.Strings(ret)
		}
		return nil
	})
	return
}

func (b *Bridge) callArgs(args []any) ([]foreign.Arg, error) {
	ret := make([]foreign.Arg, 0, len(args))
	for _, arg := range args {
		if kw, ok := arg.(Kwarg); ok {
			v, err := b.toForeign(kw.Value)
			if err != nil {
				return nil, err
			}
			ret = append(ret, foreign.Arg{
				Name:  kw.Key,
				Value: v,
			})
			continue
		}
		v, err := b.toForeign(arg)
		if err != nil {
			return nil, err
		}
		ret = append(ret, foreign.Arg{
			Value: v,
		})
	}
	return ret, nil
}

// Call calls the foreign value. Kwarg arguments are passed by keyword.
func (o *Object) Call(args ...any) (ret *Object, err error) {
	err = o.do(func(thread *starlark.Thread, v starlark.Value) error {
		fargs, err := o.bridge.callArgs(args)
		if err != nil {
			return err
		}
		result, err := o.bridge.runtime.Call(thread, v, fargs)
		if err != nil {
			return err
		}
		ret = o.bridge.wrap(result)
		return nil
	})
	return
}

// CallAttr calls the named method.
func (o *Object) CallAttr(name string, args ...any) (ret *Object, err error) {
	err = o.do(func(thread *starlark.Thread, v starlark.Value) error {
		attr, found, err := getAttr(v, name)
		if err != nil {
			return err
		}
		if !found {
			return missingAttr(v, name)
		}
		fargs, err := o.bridge.callArgs(args)
		if err != nil {
			return err
		}
		result, err := o.bridge.runtime.Call(thread, attr, fargs)
		if err != nil {
			return err
		}
		ret = o.bridge.wrap(result)
		return nil
	})
	return
}

// ToHost converts the foreign value to t. Asking for *Object returns o.
func (o *Object) ToHost(t reflect.Type) (ret any, err error) {
	if t == objectType {
		if _, err := o.handle.Use(); err != nil {
			return nil, err
		}
		return o, nil
	}
	err = o.do(func(_ *starlark.Thread, v starlark.Value) error {
		rv, err := o.bridge.toHost(v, t)
		if err != nil {
			return err
		}
		ret = rv.Interface()
		return nil
	})
	return
}

// To converts o to T.
func To[T any](o *Object) (ret T, err error) {
	v, err := o.ToHost(reflect.TypeFor[T]())
	if err != nil {
		return ret, err
	}
	if v != nil {
		ret = v.(T)
	}
	return ret, nil
}

func (o *Object) AsList() (*List, error) {
	return NewList(o)
}

func (o *Object) AsMap() (*Map, error) {
	return NewMap(o)
}

func (o *Object) AsSet() (*Set, error) {
	return NewSet(o)
}

// Iterate iterates the foreign value.
func (o *Object) Iterate() (*Iterator[*Object], error) {
	return newIterator(o, o.bridge.wrapElem)
}
