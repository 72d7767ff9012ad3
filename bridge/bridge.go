package bridge

import (
	"github.com/reusee/starbridge/foreign"
	"github.com/reusee/starbridge/handles"
	"github.com/reusee/starbridge/logs"
	"github.com/reusee/starbridge/vars"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

type Config struct {
	TraceLimit       *int  `json:"trace_limit"`
	CollapseInternal *bool `json:"collapse_internal"`
	Cleanup          *bool `json:"cleanup"`
}

// Bridge connects Go code to one foreign runtime.
type Bridge struct {
	runtime    *foreign.Runtime
	handles    *handles.Manager[Object]
	logger     logs.Logger
	traceLimit int
	collapse   bool
	host       *starlarkstruct.Module
}

func New(runtime *foreign.Runtime, logger logs.Logger, config Config) *Bridge {
	logger = logs.Component(logger, "bridge")
	b := &Bridge{
		runtime:    runtime,
		logger:     logger,
		traceLimit: vars.DerefOrZero(config.TraceLimit),
		collapse:   vars.DerefOr(config.CollapseInternal, true),
	}
	b.handles = handles.NewManager[Object](
		handles.WithCleanup(vars.DerefOr(config.Cleanup, true)),
		handles.OnRelease(func(id int64, value starlark.Value) {
			logger.Debug("handle released",
				"id", id,
				"type", value.Type(),
			)
		}),
	)
	b.host = &starlarkstruct.Module{
		Name:    "host",
		Members: b.hostMembers(),
	}
	runtime.Predeclare("host", b.host)
	return b
}

func (b *Bridge) Runtime() *foreign.Runtime {
	return b.runtime
}

// CachedHandles returns the number of identity cache entries.
func (b *Bridge) CachedHandles() int {
	return b.handles.Len()
}

// LiveHandles returns the number of handles not yet released.
func (b *Bridge) LiveHandles() int {
	return b.handles.Live()
}

func (b *Bridge) wrap(v starlark.Value) *Object {
	return b.handles.Wrap(v, func(h *handles.Handle[Object]) *Object {
		return &Object{
			bridge: b,
			handle: h,
		}
	})
}

// wrapElem is wrap shaped as an iterator conversion.
func (b *Bridge) wrapElem(v starlark.Value) (*Object, error) {
	return b.wrap(v), nil
}

// do runs fn under the execution lock and translates its failure.
func (b *Bridge) do(fn func(thread *starlark.Thread) error) error {
	return b.translate(b.runtime.Do(fn))
}

// Exec runs src as a module and returns the module object.
func (b *Bridge) Exec(name string, src any) (ret *Object, err error) {
	err = b.do(func(thread *starlark.Thread) error {
		globals, err := b.runtime.Exec(thread, name, src)
		if err != nil {
			return err
		}
		ret = b.wrap(&starlarkstruct.Module{
			Name:    name,
			Members: globals,
		})
		return nil
	})
	return
}

// Module returns an executed module by name.
func (b *Bridge) Module(name string) (ret *Object, err error) {
	err = b.do(func(*starlark.Thread) error {
		globals, ok := b.runtime.Module(name)
		if !ok {
			return &foreign.Exception{
				Type: "ImportError",
				Msg:  "no module named '" + name + "'",
			}
		}
		ret = b.wrap(&starlarkstruct.Module{
			Name:    name,
			Members: globals,
		})
		return nil
	})
	return
}

// Global returns a predeclared or universal name, such as a builtin.
func (b *Bridge) Global(name string) (ret *Object, err error) {
	err = b.do(func(*starlark.Thread) error {
		v, ok := b.runtime.Global(name)
		if !ok {
			return &foreign.Exception{
				Type: "NameError",
				Msg:  "name '" + name + "' is not defined",
			}
		}
		ret = b.wrap(v)
		return nil
	})
	return
}

// Eval evaluates a single expression against the predeclared names.
func (b *Bridge) Eval(expr string) (ret *Object, err error) {
	err = b.do(func(thread *starlark.Thread) error {
		v, err := b.runtime.Eval(thread, expr)
		if err != nil {
			return err
		}
		ret = b.wrap(v)
		return nil
	})
	return
}

// Predeclare exposes a Go value under name to modules executed afterwards.
func (b *Bridge) Predeclare(name string, v any) error {
	var fv starlark.Value
	if err := b.do(func(*starlark.Thread) error {
		var err error
		fv, err = b.toForeign(v)
		return err
	}); err != nil {
		return err
	}
	b.runtime.Predeclare(name, fv)
	return nil
}
