package configs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/reusee/dscope"
	"github.com/reusee/starbridge/modes"
)

var testSchema = `
str?: string
list?: [...int]
bridge?: {
	trace_limit?: int
}
`

var testSources = []Source{
	{
		Name: "test.cue",
		Content: []byte(`
str: "bar"
list: [1, 2, 3]
bridge: trace_limit: 8
`),
	},
	{
		Name: "test2.cue",
		Content: []byte(`
str: "foo"
`),
	},
}

func TestLoaderAssignFirst(t *testing.T) {
	loader := NewSourceLoader(testSources, testSchema)

	var str string
	if err := loader.AssignFirst("str", &str); err != nil {
		t.Fatal(err)
	}
	if str != "bar" {
		t.Fatalf("got %q", str)
	}

	var list []int
	if err := loader.AssignFirst("list", &list); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, list); diff != "" {
		t.Fatal(diff)
	}

	var limit int
	if err := loader.AssignFirst("bridge.trace_limit", &limit); err != nil {
		t.Fatal(err)
	}
	if limit != 8 {
		t.Fatalf("got %v", limit)
	}

	err := loader.AssignFirst("not", &list)
	if !errors.Is(err, ErrValueNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestLoaderIterCueValues(t *testing.T) {
	loader := NewSourceLoader(testSources, testSchema)

	var strs []string
	for value, err := range loader.IterCueValues("str") {
		if err != nil {
			t.Fatal(err)
		}
		var s string
		if err := value.Decode(&s); err != nil {
			t.Fatal(err)
		}
		strs = append(strs, s)
	}
	if diff := cmp.Diff([]string{"bar", "foo"}, strs); diff != "" {
		t.Fatal(diff)
	}

	strs = strs[:0]
	for str := range All[string](loader, "str") {
		strs = append(strs, str)
	}
	if diff := cmp.Diff([]string{"bar", "foo"}, strs); diff != "" {
		t.Fatal(diff)
	}
}

func TestUnknownField(t *testing.T) {
	loader := NewSourceLoader([]Source{
		{
			Name:    "bad.cue",
			Content: []byte(`unknown_field: "x"`),
		},
	}, testSchema)
	var str string
	err := loader.AssignFirst("unknown_field", &str)
	if err == nil {
		t.Fatal("should error")
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "starbridge.cue")
	if err := os.WriteFile(path, []byte(`bridge: cleanup: false`), 0644); err != nil {
		t.Fatal(err)
	}
	loader := NewLoader([]string{path}, Schema)
	var cleanup bool = true
	if err := loader.AssignFirst("bridge.cleanup", &cleanup); err != nil {
		t.Fatal(err)
	}
	if cleanup {
		t.Fatal("should be false")
	}
	paths, err := loader.Paths()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{path}, paths); diff != "" {
		t.Fatal(diff)
	}

	_, err = NewLoader([]string{filepath.Join(dir, "missing.cue")}, Schema).Paths()
	if err == nil {
		t.Fatal("should error")
	}
}

func TestModuleLoaderForTest(t *testing.T) {
	dscope.New(new(Module), modes.ForTest(t)).Call(func(
		loader Loader,
	) {
		paths, err := loader.Paths()
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) != 0 {
			t.Fatalf("got %v", paths)
		}
		var steps uint64
		if err := loader.AssignFirst("foreign.max_steps", &steps); !errors.Is(err, ErrValueNotFound) {
			t.Fatalf("got %v", err)
		}
	})
}
