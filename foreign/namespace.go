package foreign

import (
	"fmt"
	"sort"
	"strings"

	"go.starlark.net/starlark"
)

// Namespace is a mutable bag of attributes.
type Namespace struct {
	attrs  map[string]starlark.Value
	frozen bool
}

var _ starlark.HasSetField = new(Namespace)

// HasDelField is implemented by values whose attributes can be removed.
type HasDelField interface {
	starlark.HasAttrs
	DelField(name string) error
}

var _ HasDelField = new(Namespace)

func NewNamespace(attrs starlark.StringDict) *Namespace {
	n := &Namespace{
		attrs: make(map[string]starlark.Value, len(attrs)),
	}
	for k, v := range attrs {
		n.attrs[k] = v
	}
	return n
}

func (n *Namespace) String() string {
	b := new(strings.Builder)
	b.WriteString("namespace(")
	for i, name := range n.AttrNames() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(" = ")
		b.WriteString(n.attrs[name].String())
	}
	b.WriteString(")")
	return b.String()
}

func (n *Namespace) Type() string {
	return "namespace"
}

func (n *Namespace) Freeze() {
	if n.frozen {
		return
	}
	n.frozen = true
	for _, v := range n.attrs {
		v.Freeze()
	}
}

func (n *Namespace) Truth() starlark.Bool {
	return starlark.True
}

func (n *Namespace) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: namespace")
}

func (n *Namespace) Attr(name string) (starlark.Value, error) {
	// nil, nil reports a missing attribute
	return n.attrs[name], nil
}

func (n *Namespace) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for name := range n.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (n *Namespace) SetField(name string, v starlark.Value) error {
	if n.frozen {
		return fmt.Errorf("cannot set field %s of frozen namespace", name)
	}
	n.attrs[name] = v
	return nil
}

func (n *Namespace) DelField(name string) error {
	if n.frozen {
		return fmt.Errorf("cannot delete field %s of frozen namespace", name)
	}
	if _, ok := n.attrs[name]; !ok {
		return &Exception{
			Type: "AttributeError",
			Msg:  fmt.Sprintf("namespace object has no attribute '%s'", name),
		}
	}
	delete(n.attrs, name)
	return nil
}
