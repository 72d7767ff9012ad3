package modes

import (
	"testing"

	"github.com/reusee/dscope"
)

func TestForProduction(t *testing.T) {
	dscope.New(ForProduction()).Call(func(
		scopeT *testing.T,
		mode Mode,
	) {
		if scopeT != nil {
			t.Fatal("unexpected *testing.T")
		}
		if mode != ModeProduction {
			t.Fatalf("got %v", mode)
		}
	})
}

func TestForTest(t *testing.T) {
	dscope.New(ForTest(t)).Call(func(
		scopeT *testing.T,
		mode Mode,
	) {
		if scopeT != t {
			t.Fatal("expected the test")
		}
		if mode.String() != "development" {
			t.Fatalf("got %v", mode)
		}
	})
}
