package bridge

import (
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/starbridge/modes"
)

func testScope(t *testing.T) dscope.Scope {
	return dscope.New(new(Module), modes.ForTest(t))
}

func withBridge(t *testing.T, fn func(b *Bridge)) {
	t.Helper()
	testScope(t).Call(func(
		b *Bridge,
	) {
		fn(b)
	})
}

// exec runs src as module m and returns its attribute name.
func exec(t *testing.T, b *Bridge, src string, name string) *Object {
	t.Helper()
	mod, err := b.Exec("m", src)
	if err != nil {
		t.Fatal(err)
	}
	defer mod.Close()
	o, err := mod.Attr(name)
	if err != nil {
		t.Fatal(err)
	}
	return o
}
