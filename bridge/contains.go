package bridge

import (
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// containsValue evaluates `x in v`. It runs under the lock.
func containsValue(b *Bridge, v starlark.Value, x any, ret *bool) error {
	fx, err := b.toForeign(x)
	if err != nil {
		return err
	}
	result, err := starlark.Binary(syntax.IN, fx, v)
	if err != nil {
		return err
	}
	*ret = bool(result.Truth())
	return nil
}

// supportsIn reports whether v is a right operand of `in`.
func supportsIn(v starlark.Value) bool {
	switch v.(type) {
	case *starlark.List, starlark.Tuple, starlark.Mapping, *starlark.Set,
		starlark.String, starlark.Bytes:
		return true
	}
	_, ok := v.(starlark.HasBinary)
	return ok
}
