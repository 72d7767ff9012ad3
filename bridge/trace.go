package bridge

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"runtime"
	"strings"

	"go.starlark.net/starlark"
)

type Frame struct {
	Function string
	File     string
	Line     int
	Foreign  bool
}

func (f Frame) String() string {
	if f.Function == collapsedFunction {
		return collapsedFunction
	}
	return fmt.Sprintf("%s (%s:%d)", f.Function, f.File, f.Line)
}

const collapsedFunction = "..."

const builtinFile = "<builtin>"

var internalPrefixes = func() []string {
	root := path.Dir(reflect.TypeFor[Bridge]().PkgPath())
	return []string{
		root + "/bridge.",
		root + "/foreign.",
		root + "/syncs.",
		root + "/handles.",
		root + "/reflects.",
		"go.starlark.net/",
	}
}()

func isInternal(f Frame) bool {
	if f.Foreign {
		return f.File == builtinFile
	}
	if strings.HasSuffix(f.File, "_test.go") {
		return false
	}
	for _, prefix := range internalPrefixes {
		if strings.HasPrefix(f.Function, prefix) {
			return true
		}
	}
	return false
}

// trace merges the foreign call stack of err, innermost first, with the
// host stack of the caller.
func (b *Bridge) trace(err error) []Frame {
	var frames []Frame

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		stack := evalErr.CallStack
		for i := len(stack) - 1; i >= 0; i-- {
			frames = append(frames, Frame{
				Function: stack[i].Name,
				File:     stack[i].Pos.Filename(),
				Line:     int(stack[i].Pos.Line),
				Foreign:  true,
			})
		}
	}

	pcs := make([]uintptr, 64)
	n := runtime.Callers(3, pcs)
	callers := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := callers.Next()
		frames = append(frames, Frame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more {
			break
		}
	}

	if b.collapse {
		frames = collapse(frames)
	}
	if b.traceLimit > 0 && len(frames) > b.traceLimit {
		frames = frames[:b.traceLimit]
	}
	return frames
}

// collapse replaces each run of internal frames with one "..." frame.
func collapse(frames []Frame) []Frame {
	var ret []Frame
	for _, frame := range frames {
		if !isInternal(frame) {
			ret = append(ret, frame)
			continue
		}
		if len(ret) > 0 && ret[len(ret)-1].Function == collapsedFunction {
			continue
		}
		ret = append(ret, Frame{
			Function: collapsedFunction,
		})
	}
	return ret
}

// FormatTrace renders a trace one frame per line.
func FormatTrace(frames []Frame) string {
	b := new(strings.Builder)
	for _, frame := range frames {
		b.WriteString(frame.String())
		b.WriteString("\n")
	}
	return b.String()
}
