package bridge

import (
	"errors"
	"fmt"

	"github.com/reusee/starbridge/foreign"
	"github.com/reusee/starbridge/handles"
	"github.com/reusee/starbridge/reflects"
)

// ConversionError reports a type mismatch or numeric overflow.
type ConversionError struct {
	From string
	To   string
	Msg  string
}

func (c *ConversionError) Error() string {
	return c.Msg
}

func cannotConvert(from string, to string) *ConversionError {
	return &ConversionError{
		From: from,
		To:   to,
		Msg:  fmt.Sprintf("Cannot convert %s object to %s", from, to),
	}
}

func tooLarge(from string, to string) *ConversionError {
	return &ConversionError{
		From: from,
		To:   to,
		Msg:  fmt.Sprintf("value too large to convert to %s", to),
	}
}

// UnsupportedOperationError reports a missing capability or a forbidden mutation.
type UnsupportedOperationError struct {
	Msg string
}

func (u *UnsupportedOperationError) Error() string {
	return u.Msg
}

func noAttribute(typ string, name string) *UnsupportedOperationError {
	return &UnsupportedOperationError{
		Msg: fmt.Sprintf("%s object has no attribute '%s'", typ, name),
	}
}

const iterationRemoveMessage = "foreign runtime does not support removing from a container while iterating over it"

var errIterationRemove = &UnsupportedOperationError{
	Msg: iterationRemoveMessage,
}

type BoundsError struct {
	Type  string
	Index int
	Len   int
}

func (b *BoundsError) Error() string {
	return fmt.Sprintf("%s index out of range", b.Type)
}

type ClosedHandleError = handles.ClosedError

type ResolutionError = reflects.ResolutionError

// ForeignError is a failure raised by foreign code.
type ForeignError struct {
	Type    string
	Message string
	Trace   []Frame
	cause   error
}

func (f *ForeignError) Error() string {
	return f.Type + ": " + f.Message
}

func (f *ForeignError) Unwrap() error {
	return f.cause
}

// translate turns a failure from a locked section into the error seen by
// host code. Host errors raised through foreign frames come back unchanged.
func (b *Bridge) translate(err error) error {
	if err == nil {
		return nil
	}

	var hostErr *foreign.HostError
	if errors.As(err, &hostErr) {
		return hostErr.Err
	}

	switch err.(type) {
	case *ConversionError,
		*UnsupportedOperationError,
		*BoundsError,
		*ClosedHandleError,
		*ResolutionError,
		*ForeignError:
		return err
	}

	typ, msg := foreign.Classify(err)
	foreignErr := &ForeignError{
		Type:    typ,
		Message: msg,
		Trace:   b.trace(err),
		cause:   err,
	}
	b.logger.Debug("foreign error",
		"type", typ,
		"message", msg,
	)
	return foreignErr
}

// raise wraps a host failure so that it crosses foreign frames intact.
func raise(err error) error {
	if err == nil {
		return nil
	}
	var hostErr *foreign.HostError
	if errors.As(err, &hostErr) {
		return err
	}
	return &foreign.HostError{
		Err: err,
	}
}
