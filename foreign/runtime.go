package foreign

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/petermattis/goid"
	"github.com/reusee/starbridge/logs"
	"github.com/reusee/starbridge/syncs"
	"github.com/reusee/starbridge/vars"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// execLock serializes every execution of foreign code in the process.
var execLock = syncs.NewExecLock()

// ExecLock returns the process-wide execution lock.
func ExecLock() *syncs.ExecLock {
	return execLock
}

type Config struct {
	ThreadName *string `json:"thread_name"`
	MaxSteps   *uint64 `json:"max_steps"`
	AllowSet   *bool   `json:"allow_set"`
}

// Runtime is the host view of one Starlark interpreter: its predeclared
// names, executed modules and the threads of goroutines currently running
// foreign code. All mutable state is guarded by the execution lock.
type Runtime struct {
	logger      logs.Logger
	threadName  string
	maxSteps    uint64
	fileOptions *syntax.FileOptions
	output      io.Writer

	predeclared starlark.StringDict
	modules     map[string]starlark.StringDict
	threads     map[int64]*starlark.Thread
	serial      atomic.Int64
}

func New(logger logs.Logger, config Config) *Runtime {
	r := &Runtime{
		logger:     logs.Component(logger, "foreign"),
		threadName: vars.FirstNonZero(vars.DerefOrZero(config.ThreadName), "starbridge"),
		maxSteps:   vars.DerefOrZero(config.MaxSteps),
		fileOptions: &syntax.FileOptions{
			Set:             vars.DerefOr(config.AllowSet, true),
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		},
		output:      os.Stdout,
		predeclared: make(starlark.StringDict),
		modules:     make(map[string]starlark.StringDict),
		threads:     make(map[int64]*starlark.Thread),
	}
	r.defineBuiltins()
	return r
}

// SetOutput redirects the print builtin.
func (r *Runtime) SetOutput(w io.Writer) {
	execLock.Acquire()
	defer execLock.Release()
	r.output = w
}

// Do runs fn holding the execution lock. Nested calls on the same goroutine
// reuse the lock and the thread of the outermost call.
func (r *Runtime) Do(fn func(thread *starlark.Thread) error) error {
	return execLock.Do(func() error {
		id := goid.Get()
		thread, ok := r.threads[id]
		if !ok {
			thread = r.newThread()
			r.threads[id] = thread
			defer delete(r.threads, id)
		}
		return fn(thread)
	})
}

// Unlocked runs host code with the execution lock released, so that it may
// block or call back into the runtime from other goroutines.
func (r *Runtime) Unlocked(fn func()) {
	execLock.Unlocked(fn)
}

func (r *Runtime) newThread() *starlark.Thread {
	name := fmt.Sprintf("%s-%d", r.threadName, r.serial.Add(1))
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(r.output, msg)
		},
		Load: r.load,
	}
	if r.maxSteps > 0 {
		thread.SetMaxExecutionSteps(r.maxSteps)
	}
	return thread
}

func (r *Runtime) load(_ *starlark.Thread, module string) (starlark.StringDict, error) {
	globals, ok := r.modules[module]
	if !ok {
		return nil, &Exception{
			Type: "ImportError",
			Msg:  fmt.Sprintf("no module named '%s'", module),
		}
	}
	return globals, nil
}
