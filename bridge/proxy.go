package bridge

import (
	"fmt"
	"reflect"

	"go.starlark.net/starlark"
)

// Proxy forwards calls of interface methods to a foreign handler by name.
// Go cannot generate interface implementations at run time, so a proxy
// exposes Invoke and Bind for thin adapter types to delegate to.
type Proxy struct {
	bridge  *Bridge
	handler *Object
	ifaces  []reflect.Type
	methods map[string]reflect.Type
}

func (b *Bridge) NewProxy(handler *Object, ifaces ...reflect.Type) (*Proxy, error) {
	if _, err := handler.handle.Use(); err != nil {
		return nil, err
	}
	methods := make(map[string]reflect.Type)
	names := make([]string, 0, len(ifaces))
	for _, t := range ifaces {
		if t == nil || t.Kind() != reflect.Interface {
			return nil, fmt.Errorf("proxy: %v is not an interface", t)
		}
		names = append(names, t.String())
		for i := range t.NumMethod() {
			method := t.Method(i)
			if prev, ok := methods[method.Name]; ok && prev != method.Type {
				return nil, fmt.Errorf("proxy: method %s has conflicting signatures %v and %v",
					method.Name, prev, method.Type)
			}
			methods[method.Name] = method.Type
		}
	}
	b.logger.Debug("proxy created",
		"interfaces", names,
		"handler", handler.ID(),
	)
	return &Proxy{
		bridge:  b,
		handler: handler,
		ifaces:  ifaces,
		methods: methods,
	}, nil
}

func (p *Proxy) Handler() *Object {
	return p.handler
}

// Implements reports whether every method of t is proxied.
func (p *Proxy) Implements(t reflect.Type) bool {
	if t.Kind() != reflect.Interface {
		return false
	}
	for i := range t.NumMethod() {
		method := t.Method(i)
		if p.methods[method.Name] != method.Type {
			return false
		}
	}
	return true
}

func (p *Proxy) target(name string) func(*starlark.Thread) (starlark.Value, error) {
	return func(*starlark.Thread) (starlark.Value, error) {
		v, err := p.handler.handle.Use()
		if err != nil {
			return nil, err
		}
		method, found, err := getAttr(v, name)
		if err != nil {
			return nil, err
		}
		if !found {
			// unimplemented methods fail only when called
			return nil, missingAttr(v, name)
		}
		return method, nil
	}
}

// Invoke calls an interface method. Results are converted to the declared
// result types; a failure is returned as the error.
func (p *Proxy) Invoke(name string, args ...any) ([]any, error) {
	ft, ok := p.methods[name]
	if !ok {
		return nil, fmt.Errorf("proxy: %s is not a method of the proxied interfaces", name)
	}
	values, err := p.bridge.dispatch(ft, p.target(name), args)
	if err != nil {
		return nil, err
	}
	ret := make([]any, len(values))
	for i, v := range values {
		ret[i] = v.Interface()
	}
	return ret, nil
}

// Invoke calls a proxied method with a single result of type R.
func Invoke[R any](p *Proxy, name string, args ...any) (ret R, err error) {
	results, err := p.Invoke(name, args...)
	if err != nil {
		return ret, err
	}
	if len(results) > 0 && results[0] != nil {
		ret = results[0].(R)
	}
	return ret, nil
}

// Bind sets *fnPtr to a func dispatching to the handler method name.
func (p *Proxy) Bind(name string, fnPtr any) error {
	ptr := reflect.ValueOf(fnPtr)
	if ptr.Kind() != reflect.Pointer || ptr.Elem().Kind() != reflect.Func {
		return fmt.Errorf("proxy: bind target must be a pointer to func, got %T", fnPtr)
	}
	ft := ptr.Elem().Type()
	if declared, ok := p.methods[name]; ok && declared != ft {
		return fmt.Errorf("proxy: %s is declared as %v, not %v", name, declared, ft)
	}
	target := p.target(name)
	ptr.Elem().Set(reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		values, err := p.bridge.dispatch(ft, target, argsOf(ft, in))
		return fill(ft, values, err)
	}))
	return nil
}
