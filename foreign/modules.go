package foreign

import (
	"github.com/reusee/starlarkutil"
	"go.starlark.net/starlark"
)

// Exec runs src as the module name and registers its globals for load() and
// Module. Unlike starlark.ExecFile the globals are not frozen. It must be
// called inside Do.
func (r *Runtime) Exec(thread *starlark.Thread, name string, src any) (starlark.StringDict, error) {
	r.logger.Info("exec module", "name", name, "thread", thread.Name)
	_, program, err := starlark.SourceProgramOptions(r.fileOptions, name, src, r.predeclared.Has)
	if err != nil {
		return nil, err
	}
	// globals stay unfrozen so host code can mutate module-level containers
	globals, err := program.Init(thread, r.predeclared)
	if err != nil {
		return nil, err
	}
	r.modules[name] = globals
	return globals, nil
}

// Module returns the globals of an executed module. It must be called inside Do.
func (r *Runtime) Module(name string) (starlark.StringDict, bool) {
	globals, ok := r.modules[name]
	return globals, ok
}

// Global looks name up in the predeclared names, then in the universe. It
// must be called inside Do.
func (r *Runtime) Global(name string) (starlark.Value, bool) {
	if v, ok := r.predeclared[name]; ok {
		return v, true
	}
	if v, ok := starlark.Universe[name]; ok {
		return v, true
	}
	return nil, false
}

// Predeclare makes v visible to every module executed afterwards.
func (r *Runtime) Predeclare(name string, v starlark.Value) {
	execLock.Acquire()
	defer execLock.Release()
	r.predeclared[name] = v
}

// DefineFunc predeclares a plain Go function as a builtin.
func (r *Runtime) DefineFunc(name string, fn any) {
	r.Predeclare(name, starlarkutil.MakeFunc(name, fn))
}

// Eval evaluates an expression against the predeclared names. It must be
// called inside Do.
func (r *Runtime) Eval(thread *starlark.Thread, expr string) (starlark.Value, error) {
	return starlark.EvalOptions(r.fileOptions, thread, "<expr>", expr, r.predeclared)
}
