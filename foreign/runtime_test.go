package foreign

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/starbridge/modes"
	"go.starlark.net/starlark"
)

func testScope(t *testing.T) dscope.Scope {
	return dscope.New(new(Module), modes.ForTest(t))
}

func TestExec(t *testing.T) {
	testScope(t).Call(func(
		r *Runtime,
	) {
		out := new(bytes.Buffer)
		r.SetOutput(out)
		if err := r.Do(func(thread *starlark.Thread) error {
			globals, err := r.Exec(thread, "a.star", `
xs = [1, 2]
print("hello")
def f(n):
  return n * 2
`)
			if err != nil {
				return err
			}
			// module globals are mutable
			if err := globals["xs"].(*starlark.List).Append(starlark.MakeInt(3)); err != nil {
				return err
			}
			if _, ok := r.Module("a.star"); !ok {
				t.Fatal("module not registered")
			}
			if _, ok := r.Global("len"); !ok {
				t.Fatal("universe not visible")
			}
			if _, ok := r.Global("throw"); !ok {
				t.Fatal("builtins not visible")
			}
			return nil
		}); err != nil {
			t.Fatal(err)
		}
		if out.String() != "hello\n" {
			t.Fatalf("got %q", out.String())
		}
	})
}

func TestLoad(t *testing.T) {
	testScope(t).Call(func(
		r *Runtime,
	) {
		if err := r.Do(func(thread *starlark.Thread) error {
			if _, err := r.Exec(thread, "lib", `x = 42`); err != nil {
				return err
			}
			globals, err := r.Exec(thread, "main", `
load("lib", "x")
y = x + 1
`)
			if err != nil {
				return err
			}
			if globals["y"].String() != "43" {
				t.Fatalf("got %v", globals["y"])
			}
			_, err = r.Exec(thread, "bad", `load("nope", "x")`)
			if err == nil || !strings.Contains(err.Error(), "no module named 'nope'") {
				t.Fatalf("got %v", err)
			}
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	})
}

func TestCallArgs(t *testing.T) {
	testScope(t).Call(func(
		r *Runtime,
	) {
		if err := r.Do(func(thread *starlark.Thread) error {
			globals, err := r.Exec(thread, "m", `
def f(a, b=2, **kwargs):
  return a + b + len(kwargs)
`)
			if err != nil {
				return err
			}
			fn := globals["f"]

			v, err := r.Call(thread, fn, []Arg{
				{Value: starlark.MakeInt(1)},
				{Name: "b", Value: starlark.MakeInt(10)},
				{Name: "c", Value: starlark.None},
			})
			if err != nil {
				return err
			}
			if v.String() != "12" {
				t.Fatalf("got %v", v)
			}

			_, err = r.Call(thread, fn, []Arg{
				{Name: "b", Value: starlark.MakeInt(10)},
				{Value: starlark.MakeInt(1)},
			})
			var exception *Exception
			if !errors.As(err, &exception) || exception.Type != "SyntaxError" {
				t.Fatalf("got %v", err)
			}
			if exception.Msg != "positional argument follows keyword argument" {
				t.Fatalf("got %q", exception.Msg)
			}

			_, err = r.Call(thread, fn, []Arg{
				{Value: starlark.MakeInt(1)},
				{Name: "c", Value: starlark.None},
				{Name: "c", Value: starlark.None},
			})
			if !errors.As(err, &exception) || exception.Type != "SyntaxError" {
				t.Fatalf("got %v", err)
			}
			if !strings.Contains(exception.Msg, "keyword argument repeated") {
				t.Fatalf("got %q", exception.Msg)
			}

			_, err = r.Call(thread, starlark.MakeInt(1), nil)
			if !errors.As(err, &exception) || exception.Type != "TypeError" {
				t.Fatalf("got %v", err)
			}
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	})
}

func TestIterate(t *testing.T) {
	testScope(t).Call(func(
		r *Runtime,
	) {
		if err := r.Do(func(thread *starlark.Thread) error {
			dict := starlark.NewDict(2)
			_ = dict.SetKey(starlark.String("a"), starlark.MakeInt(1))
			_ = dict.SetKey(starlark.String("b"), starlark.MakeInt(2))
			iter, err := r.Iterate(dict)
			if err != nil {
				return err
			}
			defer iter.Done()
			var keys []string
			for {
				v, ok, err := iter.Next()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				keys = append(keys, string(v.(starlark.String)))
			}
			if strings.Join(keys, ",") != "a,b" {
				t.Fatalf("got %v", keys)
			}
			// exhausted iterators stay exhausted
			if _, ok, _ := iter.Next(); ok {
				t.Fatal("should be exhausted")
			}

			_, err = r.Iterate(starlark.MakeInt(1))
			var exception *Exception
			if !errors.As(err, &exception) || exception.Type != "TypeError" {
				t.Fatalf("got %v", err)
			}
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	})
}

func TestThrow(t *testing.T) {
	testScope(t).Call(func(
		r *Runtime,
	) {
		err := r.Do(func(thread *starlark.Thread) error {
			_, err := r.Exec(thread, "m", `
def f():
  throw("ValueError", "bad input")
f()
`)
			return err
		})
		var exception *Exception
		if !errors.As(err, &exception) {
			t.Fatalf("got %v", err)
		}
		if exception.Type != "ValueError" || exception.Msg != "bad input" {
			t.Fatalf("got %#v", exception)
		}
		var evalErr *starlark.EvalError
		if !errors.As(err, &evalErr) {
			t.Fatal("expected eval error")
		}
		if len(evalErr.CallStack) < 2 {
			t.Fatalf("got %v", evalErr.CallStack)
		}
	})
}

func TestHostErrorPassesThrough(t *testing.T) {
	sentinel := errors.New("host failure")
	testScope(t).Call(func(
		r *Runtime,
	) {
		r.Predeclare("fail", starlark.NewBuiltin("fail", func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
			return nil, &HostError{Err: sentinel}
		}))
		err := r.Do(func(thread *starlark.Thread) error {
			_, err := r.Exec(thread, "m", `fail()`)
			return err
		})
		if !errors.Is(err, sentinel) {
			t.Fatalf("got %v", err)
		}
		var hostErr *HostError
		if !errors.As(err, &hostErr) || hostErr.Err != sentinel {
			t.Fatalf("got %v", err)
		}
		if !strings.HasPrefix(hostErr.Error(), "*errors.errorString: ") {
			t.Fatalf("got %q", hostErr.Error())
		}
	})
}

func TestNestedDo(t *testing.T) {
	testScope(t).Call(func(
		r *Runtime,
	) {
		if err := r.Do(func(outer *starlark.Thread) error {
			return r.Do(func(inner *starlark.Thread) error {
				if inner != outer {
					t.Fatal("nested section should reuse the thread")
				}
				return nil
			})
		}); err != nil {
			t.Fatal(err)
		}
	})
}

func TestUnlocked(t *testing.T) {
	testScope(t).Call(func(
		r *Runtime,
	) {
		if err := r.Do(func(thread *starlark.Thread) error {
			var wg sync.WaitGroup
			r.Unlocked(func() {
				wg.Add(1)
				go func() {
					defer wg.Done()
					// would deadlock if the lock were still held
					_ = r.Do(func(*starlark.Thread) error {
						return nil
					})
				}()
				wg.Wait()
			})
			if !ExecLock().Held() {
				t.Fatal("lock not restored")
			}
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	})
}

func TestMaxSteps(t *testing.T) {
	steps := uint64(1000)
	testScope(t).Fork(
		func() Config {
			return Config{
				MaxSteps: &steps,
			}
		},
	).Call(func(
		r *Runtime,
	) {
		err := r.Do(func(thread *starlark.Thread) error {
			_, err := r.Exec(thread, "loop", `
while True:
  pass
`)
			return err
		})
		if err == nil {
			t.Fatal("should fail")
		}
		if typ, _ := Classify(err); typ != "RuntimeError" {
			t.Fatalf("got %v", err)
		}
	})
}
