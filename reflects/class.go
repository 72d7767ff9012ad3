package reflects

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"
)

// Overloads groups Go methods under one foreign name. Go has no method
// overloading, so a type lists the methods that act as one.
type Overloads map[string][]string

// Overloaded is implemented by types that group methods.
type Overloaded interface {
	BridgeOverloads() Overloads
}

// InitName names the constructor set.
const InitName = "<init>"

type Field struct {
	Name  string
	Index []int
	Type  reflect.Type
}

// Class is the per-type index of methods, fields and nested types. Each
// index is built on first use.
type Class struct {
	Type reflect.Type

	methodsOnce sync.Once
	methods     map[string]*OverloadSet
	ctors       *OverloadSet

	fieldsOnce sync.Once
	fields     map[string]*Field
	fieldsMode string

	nestedOnce sync.Once
	nested     map[string]reflect.Type
}

var classes sync.Map

var registry struct {
	sync.Mutex
	ctors  map[reflect.Type][]reflect.Value
	nested map[reflect.Type]map[string]reflect.Type
}

// ClassOf returns the cached class of t.
func ClassOf(t reflect.Type) *Class {
	if v, ok := classes.Load(t); ok {
		return v.(*Class)
	}
	v, _ := classes.LoadOrStore(t, &Class{
		Type: t,
	})
	return v.(*Class)
}

// Define registers constructors for t. Each must be a func returning t,
// optionally followed by an error. Registering a func again is a no-op.
func Define(t reflect.Type, ctors ...any) {
	registry.Lock()
	defer registry.Unlock()
	if registry.ctors == nil {
		registry.ctors = make(map[reflect.Type][]reflect.Value)
	}
	for _, ctor := range ctors {
		fn := reflect.ValueOf(ctor)
		ft := fn.Type()
		if ft.Kind() != reflect.Func ||
			ft.NumOut() < 1 || ft.NumOut() > 2 ||
			ft.Out(0) != t {
			panic(fmt.Errorf("bad constructor for %v: %v", t, ft))
		}
		if slices.ContainsFunc(registry.ctors[t], func(v reflect.Value) bool {
			return v.Pointer() == fn.Pointer()
		}) {
			continue
		}
		registry.ctors[t] = append(registry.ctors[t], fn)
	}
	classes.Delete(t)
}

// DefineNested registers a nested type of t under name.
func DefineNested(t reflect.Type, name string, nested reflect.Type) {
	registry.Lock()
	defer registry.Unlock()
	if registry.nested == nil {
		registry.nested = make(map[reflect.Type]map[string]reflect.Type)
	}
	if registry.nested[t] == nil {
		registry.nested[t] = make(map[string]reflect.Type)
	}
	registry.nested[t][name] = nested
	classes.Delete(t)
}

func (c *Class) Name() string {
	return c.Type.String()
}

func (c *Class) initMethods() {
	c.methodsOnce.Do(func() {
		c.methods = make(map[string]*OverloadSet)
		add := func(name string, sig *Signature) {
			set, ok := c.methods[name]
			if !ok {
				set = &OverloadSet{
					Name: c.Name() + "." + name,
				}
				c.methods[name] = set
			}
			set.Signatures = append(set.Signatures, sig)
		}

		byName := make(map[string]*Signature)
		for i := 0; i < c.Type.NumMethod(); i++ {
			method := c.Type.Method(i)
			if !method.IsExported() || !method.Func.IsValid() {
				continue
			}
			if method.Name == "BridgeOverloads" {
				continue
			}
			sig := newSignature(method.Name, method.Func, false)
			byName[method.Name] = sig
			add(method.Name, sig)
		}

		// methods of *t, called on the address of the value
		if kind := c.Type.Kind(); kind != reflect.Pointer && kind != reflect.Interface {
			ptr := reflect.PointerTo(c.Type)
			for i := 0; i < ptr.NumMethod(); i++ {
				method := ptr.Method(i)
				if !method.IsExported() || method.Name == "BridgeOverloads" {
					continue
				}
				if _, ok := byName[method.Name]; ok {
					continue
				}
				sig := newSignature(method.Name, method.Func, false)
				sig.Pointer = true
				byName[method.Name] = sig
				add(method.Name, sig)
			}
		}

		groups := overloadsOf(c.Type)
		for _, name := range sortedKeys(groups) {
			for _, goName := range groups[name] {
				sig, ok := byName[goName]
				if !ok || goName == name {
					continue
				}
				add(name, sig)
			}
		}

		registry.Lock()
		fns := registry.ctors[c.Type]
		registry.Unlock()
		if len(fns) > 0 {
			c.ctors = &OverloadSet{
				Name: c.Name() + "." + InitName,
			}
			for _, fn := range fns {
				c.ctors.Signatures = append(c.ctors.Signatures,
					newSignature(InitName, fn, true))
			}
		}
	})
}

func overloadsOf(t reflect.Type) (ret Overloads) {
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface &&
		!t.Implements(reflect.TypeFor[Overloaded]()) {
		t = reflect.PointerTo(t)
	}
	if !t.Implements(reflect.TypeFor[Overloaded]()) {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			// a method on a nil pointer receiver; no grouping
			ret = nil
		}
	}()
	var v reflect.Value
	if t.Kind() == reflect.Pointer {
		v = reflect.New(t.Elem())
	} else {
		v = reflect.New(t).Elem()
	}
	return v.Interface().(Overloaded).BridgeOverloads()
}

// Method returns the overload set bound to a foreign method name.
func (c *Class) Method(name string) (*OverloadSet, bool) {
	c.initMethods()
	set, ok := c.methods[name]
	return set, ok
}

// Constructors returns the constructor set, if any was defined.
func (c *Class) Constructors() (*OverloadSet, bool) {
	c.initMethods()
	return c.ctors, c.ctors != nil
}

func (c *Class) MethodNames() []string {
	c.initMethods()
	return sortedKeys(c.methods)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
