package foreign

import (
	"os"
	"time"

	"github.com/reusee/starlarkutil"
	"go.starlark.net/starlark"
)

func (r *Runtime) defineBuiltins() {
	r.predeclared["throw"] = starlark.NewBuiltin("throw", throw)
	r.predeclared["namespace"] = starlark.NewBuiltin("namespace", namespace)
	r.predeclared["sleep"] = starlark.NewBuiltin("sleep", sleep)
	r.predeclared["env"] = starlarkutil.MakeFunc("env", func(name string) string {
		return os.Getenv(name)
	})
}

// throw(type, msg) raises a typed foreign exception.
func throw(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var typ, msg string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "type", &typ, "msg?", &msg); err != nil {
		return nil, err
	}
	return nil, &Exception{
		Type: typ,
		Msg:  msg,
	}
}

func namespace(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(args) > 0 {
		return nil, &Exception{
			Type: "TypeError",
			Msg:  "namespace: unexpected positional arguments",
		}
	}
	attrs := make(starlark.StringDict, len(kwargs))
	for _, kv := range kwargs {
		attrs[string(kv[0].(starlark.String))] = kv[1]
	}
	return NewNamespace(attrs), nil
}

// sleep holds the execution lock while sleeping, like any other foreign call.
func sleep(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var seconds starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &seconds); err != nil {
		return nil, err
	}
	f, ok := starlark.AsFloat(seconds)
	if !ok {
		return nil, &Exception{
			Type: "TypeError",
			Msg:  "sleep: want a number, got " + seconds.Type(),
		}
	}
	time.Sleep(time.Duration(f * float64(time.Second)))
	return starlark.None, nil
}
