// Package ast defines the typed expression tree produced by the template
// parser and consumed by the compiler.
package ast

import "github.com/mmrzaf/dumpgen/internal/value"

// Span locates a node in the template source for error reporting.
type Span struct {
	Offset int
	Line   int
	Col    int
}

// Expr is a parsed expression node.
type Expr interface {
	Pos() Span
}

// RowNum is the `rownum` symbol.
type RowNum struct{ Span Span }

// SubRowNum is the `subrownum` symbol.
type SubRowNum struct{ Span Span }

// CurrentTimestamp is the `current_timestamp` symbol, constant for the
// lifetime of one invocation.
type CurrentTimestamp struct{ Span Span }

// Literal is a constant value.
type Literal struct {
	Span  Span
	Value value.Value
}

// GetVar reads a local variable `@x`. Slots are assigned by the parser's
// allocator and shared across all expressions of a table group.
type GetVar struct {
	Span Span
	Name string
	Slot int
}

// SetVar is the assignment `@x := e`; it yields the assigned value.
type SetVar struct {
	Span Span
	Name string
	Slot int
	Expr Expr
}

// Call is a function application. Operators parse into calls with their
// symbol as the name ("+", "||", "and", …); the compiler decides which of
// them become dedicated plan nodes.
type Call struct {
	Span Span
	Name string
	Args []Expr
}

// When is one WHEN…THEN arm of a CASE expression.
type When struct {
	Cond   Expr
	Result Expr
}

// Case is the `CASE [value] WHEN … THEN … [ELSE …] END` form. Value and
// Else may be nil.
type Case struct {
	Span  Span
	Value Expr
	Whens []When
	Else  Expr
}

func (e *RowNum) Pos() Span           { return e.Span }
func (e *SubRowNum) Pos() Span        { return e.Span }
func (e *CurrentTimestamp) Pos() Span { return e.Span }
func (e *Literal) Pos() Span          { return e.Span }
func (e *GetVar) Pos() Span           { return e.Span }
func (e *SetVar) Pos() Span           { return e.Span }
func (e *Call) Pos() Span             { return e.Span }
func (e *Case) Pos() Span             { return e.Span }
