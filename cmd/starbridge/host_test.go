package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/starbridge/bridge"
	"github.com/reusee/starbridge/modes"
)

func TestHostGlobals(t *testing.T) {
	dir := t.TempDir()
	dscope.New(new(Module), modes.ForTest(t)).Call(func(
		b *bridge.Bridge,
	) {
		if err := defineHost(b); err != nil {
			t.Fatal(err)
		}
		mod, err := b.Exec("m", `
path = "`+filepath.Join(dir, "out.txt")+`"
buf = host.Buffer()
buf.WriteString("hello")
files.Write(path, buf.String())
content = files.Read(path)
name = basename(path)
matches = files.Glob("`+filepath.Join(dir, "*.txt")+`")
`)
		if err != nil {
			t.Fatal(err)
		}
		defer mod.Close()

		for name, expected := range map[string]string{
			"content": "hello",
			"name":    "out.txt",
		} {
			o, err := mod.Attr(name)
			if err != nil {
				t.Fatal(err)
			}
			if s := o.String(); s != expected {
				t.Fatalf("%s: got %q", name, s)
			}
		}

		matches, err := mod.Attr("matches")
		if err != nil {
			t.Fatal(err)
		}
		paths, err := bridge.To[[]string](matches)
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) != 1 {
			t.Fatalf("got %v", paths)
		}

		_, err = b.Exec("m2", `files.Read("`+filepath.Join(dir, "missing")+`")`)
		if !os.IsNotExist(err) {
			t.Fatalf("got %v", err)
		}
	})
}
