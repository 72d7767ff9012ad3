package reflects

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type calc struct{}

func (calc) AddInt(a, b int) int { return a + b }
func (calc) AddFloat(a, b float64) float64 { return a + b }
func (calc) AddString(a, b string) string { return a + b }
func (calc) Sum(xs ...int) int { return len(xs) }
func (calc) One(x int) int { return x }
func (calc) Join(sep string, parts ...string) string {
	return strings.Join(parts, sep)
}

func (calc) BridgeOverloads() Overloads {
	return Overloads{
		"Add":   {"AddInt", "AddFloat", "AddString"},
		"Total": {"Sum", "One"},
	}
}

var (
	intType    = reflect.TypeFor[int]()
	floatType  = reflect.TypeFor[float64]()
	stringType = reflect.TypeFor[string]()
)

// scoreArgs scores Go values the way the bridge scores foreign ones:
// same type is exact, int widens to float64.
func scoreArgs(args ...any) ([]string, ScoreFunc) {
	var types []string
	for _, arg := range args {
		types = append(types, reflect.TypeOf(arg).String())
	}
	return types, func(i int, t reflect.Type) (int, bool) {
		at := reflect.TypeOf(args[i])
		switch {
		case at == t:
			return Exact, true
		case at == intType && t == floatType:
			return Widening + 8, true
		}
		return 0, false
	}
}

func resolve(t *testing.T, name string, args ...any) (*Match, error) {
	t.Helper()
	set, ok := ClassOf(reflect.TypeFor[calc]()).Method(name)
	if !ok {
		t.Fatalf("no method %s", name)
	}
	types, score := scoreArgs(args...)
	return set.Resolve(types, score)
}

func TestOverloadSelection(t *testing.T) {
	for _, c := range []struct {
		args []any
		want string
	}{
		{[]any{1, 2}, "AddInt"},
		{[]any{1.5, 2.5}, "AddFloat"},
		{[]any{"a", "b"}, "AddString"},
		// int widens to float
		{[]any{1, 2.5}, "AddFloat"},
	} {
		m, err := resolve(t, "Add", c.args...)
		if err != nil {
			t.Fatal(err)
		}
		if m.Name != c.want {
			t.Fatalf("%v: got %s", c.args, m.Name)
		}
	}

	m, _ := resolve(t, "Add", 1, 2)
	out := m.Call(reflect.ValueOf(calc{}), []reflect.Value{
		reflect.ValueOf(1), reflect.ValueOf(2),
	}, false)
	if out[0].Int() != 3 {
		t.Fatalf("got %v", out[0])
	}

	// grouped methods stay reachable by their own names
	if _, ok := ClassOf(reflect.TypeFor[calc]()).Method("AddInt"); !ok {
		t.Fatal("AddInt should be visible")
	}
}

func TestResolutionError(t *testing.T) {
	_, err := resolve(t, "Add", true, false)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("got %v", err)
	}
	if resErr.Ambiguous {
		t.Fatal("should not be ambiguous")
	}
	if len(resErr.Candidates) != 3 {
		t.Fatalf("got %v", resErr.Candidates)
	}
	if !strings.Contains(err.Error(), "(bool, bool)") {
		t.Fatalf("got %v", err)
	}

	_, err = resolve(t, "Add", 1)
	if !errors.As(err, &resErr) {
		t.Fatalf("arity mismatch should fail, got %v", err)
	}

	set, _ := ClassOf(reflect.TypeFor[calc]()).Method("Add")
	_, err = set.Resolve([]string{"any", "any"}, func(int, reflect.Type) (int, bool) {
		return Reference, true
	})
	if !errors.As(err, &resErr) || !resErr.Ambiguous {
		t.Fatalf("got %v", err)
	}
}

func TestVariadic(t *testing.T) {
	m, err := resolve(t, "Sum")
	if err != nil {
		t.Fatal(err)
	}
	if m.Spread {
		t.Fatal("no arguments should not spread")
	}
	m, err = resolve(t, "Sum", 1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	out := m.Call(reflect.ValueOf(calc{}), []reflect.Value{
		reflect.ValueOf(1), reflect.ValueOf(2), reflect.ValueOf(3),
	}, m.Spread)
	if out[0].Int() != 3 {
		t.Fatalf("got %v", out[0])
	}

	m, err = resolve(t, "Sum", []int{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if !m.Spread {
		t.Fatal("slice argument should spread")
	}
	out = m.Call(reflect.ValueOf(calc{}), []reflect.Value{
		reflect.ValueOf([]int{1, 2}),
	}, m.Spread)
	if out[0].Int() != 2 {
		t.Fatalf("got %v", out[0])
	}

	m, err = resolve(t, "Join", ",", "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if m.ParamType(0, false) != stringType || m.ParamType(2, false) != stringType {
		t.Fatal("bad param types")
	}

	_, err = resolve(t, "Join")
	if err == nil {
		t.Fatal("missing fixed argument should fail")
	}
}

func TestFixedArityWins(t *testing.T) {
	m, err := resolve(t, "Total", 5)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "One" {
		t.Fatalf("got %s", m.Name)
	}
	m, err = resolve(t, "Total", 5, 6)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "Sum" {
		t.Fatalf("got %s", m.Name)
	}
}

func TestSignatureString(t *testing.T) {
	set, _ := ClassOf(reflect.TypeFor[calc]()).Method("Join")
	var got []string
	for _, sig := range set.Signatures {
		got = append(got, sig.String())
	}
	if diff := cmp.Diff([]string{"Join(string, ...string)"}, got); diff != "" {
		t.Fatal(diff)
	}
}
