package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/starbridge/bridge"
	"github.com/reusee/starbridge/modes"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.star")
	second := filepath.Join(dir, "second.star")
	if err := os.WriteFile(first, []byte(`greeting = "hello"`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte(`
load("`+first+`", "greeting")
out = greeting + " " + basename("`+second+`")
files.Write("`+filepath.Join(dir, "out.txt")+`", out)
`), 0644); err != nil {
		t.Fatal(err)
	}

	dscope.New(new(Module), modes.ForTest(t)).Call(func(
		run Run,
	) {
		out := new(strings.Builder)
		if err := run(context.Background(), []string{first, second}, []string{
			`basename("/a/b.txt")`,
			"1 + 2",
		}, 1, out); err != nil {
			t.Fatal(err)
		}
		if got := out.String(); got != "b.txt\n3\n" {
			t.Fatalf("got %q", got)
		}
		content, err := os.ReadFile(filepath.Join(dir, "out.txt"))
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "hello second.star" {
			t.Fatalf("got %q", content)
		}
	})
}

func TestRunFailure(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.star")
	if err := os.WriteFile(bad, []byte(`throw("ValueError", "bad input")`), 0644); err != nil {
		t.Fatal(err)
	}

	dscope.New(new(Module), modes.ForTest(t)).Call(func(
		run Run,
	) {
		err := run(context.Background(), []string{bad}, nil, 1, new(strings.Builder))
		var foreignErr *bridge.ForeignError
		if !errors.As(err, &foreignErr) || foreignErr.Type != "ValueError" {
			t.Fatalf("got %v", err)
		}
		if !strings.HasPrefix(err.Error(), bad+": ") {
			t.Fatalf("got %v", err)
		}

		err = run(context.Background(), nil, []string{"undefined_name"}, 1, new(strings.Builder))
		if !errors.As(err, &foreignErr) {
			t.Fatalf("got %v", err)
		}
	})
}
