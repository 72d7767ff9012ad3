package foreign

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Exception is a failure raised as a native foreign value with a foreign
// type name, such as KeyError or ValueError.
type Exception struct {
	Type string
	Msg  string
}

func (e *Exception) Error() string {
	return e.Type + ": " + e.Msg
}

// HostError carries a host failure through foreign frames. Unwrap yields the
// original error, unchanged.
type HostError struct {
	Err error
}

func (e *HostError) Error() string {
	return HostTypeName(e.Err) + ": " + e.Err.Error()
}

func (e *HostError) Unwrap() error {
	return e.Err
}

// HostTypeName names the dynamic type of a host error.
func HostTypeName(err error) string {
	if err == nil {
		return "nil"
	}
	return reflect.TypeOf(err).String()
}

// Panicked is the host error for a recovered panic.
type Panicked struct {
	Value any
}

func (p *Panicked) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

var classes = []struct {
	typ      string
	patterns []string
}{
	{"KeyError", []string{"not in dict", "not in map", "missing key", "key not found", "not found in"}},
	{"IndexError", []string{"index out of range", "out of range"}},
	{"AttributeError", []string{"has no .", "has no attribute", "no such field"}},
	{"ZeroDivisionError", []string{"division by zero", "modulo by zero"}},
	{"NameError", []string{"undefined:", "not defined"}},
	{"RuntimeError", []string{"during iteration", "frozen", "too many steps", "called recursively", "cancelled"}},
	{"TypeError", []string{"unsupported", "not callable", "not iterable", "has no len", "unhashable", "missing argument", "unexpected keyword", "got ", "want "}},
	{"ValueError", []string{"invalid", "empty"}},
}

// Classify returns the foreign type name of err. Exceptions keep their own
// type; other failures are classified by message.
func Classify(err error) (typ string, msg string) {
	var exception *Exception
	if errors.As(err, &exception) {
		return exception.Type, exception.Msg
	}
	msg = err.Error()
	for _, class := range classes {
		for _, pattern := range class.patterns {
			if strings.Contains(msg, pattern) {
				return class.typ, msg
			}
		}
	}
	return "Error", msg
}
