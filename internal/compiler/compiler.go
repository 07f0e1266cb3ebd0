// Package compiler lowers a parsed template into the per-table evaluation
// plans the scheduler runs: one plan per column expression, one per
// derivation count, and one for the global init block.
package compiler

import (
	"fmt"

	"github.com/mmrzaf/dumpgen/internal/eval"
	"github.com/mmrzaf/dumpgen/internal/parser"
)

// Derived is a compiled derived-table edge.
type Derived struct {
	// ChildIndex indexes Template.Tables.
	ChildIndex int
	// Count is the per-parent row-count plan, evaluated in the parent
	// row's variable context.
	Count eval.Node
}

// Table is one compiled table of the group.
type Table struct {
	Name parser.QName
	// Content is the CREATE TABLE body for schema emission.
	Content string
	// ColumnNames lists the expression-bearing columns, in order.
	ColumnNames []string
	// Row holds one plan per generated column.
	Row []eval.Node
	// Derived lists the child tables in declaration order.
	Derived []Derived
}

// Template is a compiled table group. Everything in it is immutable after
// compilation and safe to share across workers.
type Template struct {
	// Globals run once per output file to populate the slot vector.
	Globals []eval.Node
	// VariableCount is the size of the shared slot vector.
	VariableCount int
	Tables        []Table
	// TopLevel indexes the tables that are not derived from a parent.
	TopLevel []int
}

// Compile lowers every expression of the template against one shared
// compile context.
func Compile(tmpl *parser.Template, ctx *eval.CompileContext) (*Template, error) {
	out := &Template{VariableCount: tmpl.VariableCount}

	for i, g := range tmpl.GlobalExprs {
		node, err := ctx.Compile(g)
		if err != nil {
			return nil, fmt.Errorf("compiling global expression %d: %w", i+1, err)
		}
		out.Globals = append(out.Globals, node)
	}

	for ti := range tmpl.Tables {
		src := &tmpl.Tables[ti]
		table := Table{
			Name:        src.Name,
			Content:     src.Content,
			ColumnNames: src.ExprColumnNames(),
		}
		for _, expr := range src.Exprs() {
			node, err := ctx.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compiling table %s: %w", src.Name.TableName(false), err)
			}
			table.Row = append(table.Row, node)
		}
		for _, d := range src.Derived {
			count, err := ctx.Compile(d.Count)
			if err != nil {
				return nil, fmt.Errorf("compiling row count for table %s: %w", src.Name.TableName(false), err)
			}
			table.Derived = append(table.Derived, Derived{ChildIndex: d.ChildIndex, Count: count})
		}
		out.Tables = append(out.Tables, table)
	}

	for i := range tmpl.Tables {
		if !tmpl.IsDerived(i) {
			out.TopLevel = append(out.TopLevel, i)
		}
	}
	return out, nil
}
