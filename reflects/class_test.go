package reflects

import (
	"reflect"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type Base struct {
	ID   int
	note string
}

func (b Base) Describe() string {
	return "base"
}

type Point struct {
	Base
	X, Y int
}

func (p *Point) Move(dx, dy int) {
	p.X += dx
	p.Y += dy
}

type Color int

func newPoint(x, y int) *Point {
	return &Point{X: x, Y: y}
}

func newOrigin() (*Point, error) {
	return &Point{}, nil
}

func TestFields(t *testing.T) {
	class := ClassOf(reflect.TypeFor[*Point]())
	if diff := cmp.Diff([]string{"Base", "ID", "X", "Y"}, class.FieldNames()); diff != "" {
		t.Fatal(diff)
	}
	if class.FieldsMode() != "visible" {
		t.Fatalf("got %s", class.FieldsMode())
	}
	f, ok := class.Field("ID")
	if !ok {
		t.Fatal("promoted field not found")
	}
	p := newPoint(1, 2)
	p.ID = 42
	if reflect.ValueOf(p).Elem().FieldByIndex(f.Index).Int() != 42 {
		t.Fatal("bad index")
	}
	if _, ok := class.Field("note"); ok {
		t.Fatal("unexported field visible")
	}
}

func TestFallbackScanners(t *testing.T) {
	st := reflect.TypeFor[Point]()
	var names []string
	for _, f := range embeddedFields(st) {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"Base", "ID", "note"}, names); diff != "" {
		t.Fatal(diff)
	}
	_, ok := tryScan(func(reflect.Type) []reflect.StructField {
		panic("no metadata")
	}, st)
	if ok {
		t.Fatal("panicking scanner should report failure")
	}
}

func TestMethods(t *testing.T) {
	class := ClassOf(reflect.TypeFor[*Point]())
	if diff := cmp.Diff([]string{"Describe", "Move"}, class.MethodNames()); diff != "" {
		t.Fatal(diff)
	}

	// a value class also carries the methods of its pointer
	set, ok := ClassOf(reflect.TypeFor[Point]()).Method("Move")
	if !ok {
		t.Fatal("Move not found")
	}
	sig := set.Signatures[0]
	if !sig.Pointer {
		t.Fatal("Move should be called through a pointer")
	}
	v := reflect.New(reflect.TypeFor[Point]()).Elem()
	sig.Call(v, []reflect.Value{reflect.ValueOf(1), reflect.ValueOf(2)}, false)
	if p := v.Interface().(Point); p.X != 1 || p.Y != 2 {
		t.Fatalf("got %+v", p)
	}
	// unaddressable receivers run on a copy
	sig.Call(reflect.ValueOf(Point{}), []reflect.Value{reflect.ValueOf(1), reflect.ValueOf(2)}, false)
}

func TestNested(t *testing.T) {
	pointType := reflect.TypeFor[Point]()
	DefineNested(pointType, "Color", reflect.TypeFor[Color]())
	class := ClassOf(pointType)
	if diff := cmp.Diff([]string{"Base", "Color"}, class.NestedNames()); diff != "" {
		t.Fatal(diff)
	}
	nested, ok := class.Nested("Base")
	if !ok || nested != reflect.TypeFor[Base]() {
		t.Fatalf("got %v", nested)
	}
}

func TestConstructors(t *testing.T) {
	pointPtr := reflect.TypeFor[*Point]()
	Define(pointPtr, newPoint, newOrigin)
	Define(pointPtr, newPoint)
	set, ok := ClassOf(pointPtr).Constructors()
	if !ok {
		t.Fatal("constructors not defined")
	}
	if len(set.Signatures) != 2 || !set.Signatures[0].Static {
		t.Fatalf("got %v", set.Signatures)
	}
	m, err := set.Resolve([]string{}, func(int, reflect.Type) (int, bool) {
		return Exact, true
	})
	if err != nil {
		t.Fatal(err)
	}
	out := m.Call(reflect.Value{}, nil, false)
	if len(out) != 2 {
		t.Fatalf("got %v", out)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("bad constructor should panic")
			}
		}()
		Define(pointPtr, func() int { return 0 })
	}()
}

func TestClassOfConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	classes := make([]*Class, 16)
	for i := range classes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			class := ClassOf(reflect.TypeFor[calc]())
			class.MethodNames()
			classes[i] = class
		}()
	}
	wg.Wait()
	for _, class := range classes {
		if class != classes[0] {
			t.Fatal("class should be cached")
		}
	}
}
