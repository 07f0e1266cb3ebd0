// Package eval compiles parsed expressions into an executable plan and
// walks that plan once per row.
package eval

import (
	"fmt"

	"github.com/mmrzaf/dumpgen/internal/ast"
)

// TypeError reports an operand of the wrong kind, e.g. a string fed to a
// bitwise operator. Type errors are fatal: the worker aborts its segment.
type TypeError struct {
	Name string
	Msg  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Msg)
}

// ValueRangeError reports a value outside its permitted domain, e.g. an
// array subscript below one or a series longer than 2^64 elements.
type ValueRangeError struct {
	Name string
	Msg  string
}

func (e *ValueRangeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Msg)
}

// PanicError is raised by debug.panic; the message carries the numbered
// display form of every argument.
type PanicError struct {
	Message string
}

func (e *PanicError) Error() string {
	return "panic" + e.Message
}

// InvalidTimestampError reports an unparsable timestamp literal or an
// unknown time zone.
type InvalidTimestampError struct {
	Input string
	Cause error
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: %s", e.Input, e.Cause)
}

func (e *InvalidTimestampError) Unwrap() error { return e.Cause }

// SpannedError attaches the template source position of the expression
// that failed.
type SpannedError struct {
	Span ast.Span
	Err  error
}

func (e *SpannedError) Error() string {
	if e.Span.Line > 0 {
		return fmt.Sprintf("line %d column %d: %s", e.Span.Line, e.Span.Col, e.Err)
	}
	return e.Err.Error()
}

func (e *SpannedError) Unwrap() error { return e.Err }

func spanned(span ast.Span, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*SpannedError); ok {
		return err
	}
	return &SpannedError{Span: span, Err: err}
}
