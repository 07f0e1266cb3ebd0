package eval

import (
	"fmt"
	"time"

	"github.com/mmrzaf/dumpgen/internal/ast"
	"github.com/mmrzaf/dumpgen/internal/value"
)

// Function specializes a built-in against concrete argument values. Pure
// functions return a constant node; the rand.* family returns a sampler
// node that draws from the worker's PRNG on every evaluation.
type Function interface {
	Compile(span ast.Span, args []value.Value) (Node, error)
}

type funcOf func(span ast.Span, args []value.Value) (Node, error)

func (f funcOf) Compile(span ast.Span, args []value.Value) (Node, error) {
	return f(span, args)
}

// CompileContext carries the per-invocation constants of compilation.
type CompileContext struct {
	// Now is the value of current_timestamp, fixed for the whole run.
	Now time.Time
}

// Compile lowers a parsed expression into a plan node, folding constant
// subtrees as it goes: a pure function whose arguments are all literals
// runs once here and never again.
func (ctx *CompileContext) Compile(expr ast.Expr) (Node, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return Const(e.Value), nil
	case *ast.RowNum:
		return rowNumNode{}, nil
	case *ast.SubRowNum:
		return subRowNumNode{}, nil
	case *ast.CurrentTimestamp:
		return Const(value.Timestamp(ctx.Now)), nil
	case *ast.GetVar:
		return getVarNode{slot: e.Slot}, nil
	case *ast.SetVar:
		child, err := ctx.Compile(e.Expr)
		if err != nil {
			return nil, err
		}
		return setVarNode{slot: e.Slot, child: child}, nil
	case *ast.Case:
		return ctx.compileCase(e)
	case *ast.Call:
		return ctx.compileCall(e)
	}
	return nil, fmt.Errorf("unsupported expression node %T", expr)
}

func (ctx *CompileContext) compileCase(e *ast.Case) (Node, error) {
	node := caseNode{span: e.Span}
	if e.Value != nil {
		v, err := ctx.Compile(e.Value)
		if err != nil {
			return nil, err
		}
		node.value = v
	}
	for _, when := range e.Whens {
		cond, err := ctx.Compile(when.Cond)
		if err != nil {
			return nil, err
		}
		result, err := ctx.Compile(when.Result)
		if err != nil {
			return nil, err
		}
		node.whens = append(node.whens, caseWhen{cond: cond, result: result})
	}
	if e.Else != nil {
		fallback, err := ctx.Compile(e.Else)
		if err != nil {
			return nil, err
		}
		node.fallback = fallback
	}
	return node, nil
}

func (ctx *CompileContext) compileCall(e *ast.Call) (Node, error) {
	args := make([]Node, len(e.Args))
	allConst := true
	for i, arg := range e.Args {
		n, err := ctx.Compile(arg)
		if err != nil {
			return nil, err
		}
		args[i] = n
		if _, ok := constValue(n); !ok {
			allConst = false
		}
	}

	// AND, OR, CASE and the statement sequence are plan shapes, not
	// functions: the evaluator must be able to skip their operands.
	switch e.Name {
	case "and", "or":
		node := logicNode{span: e.Span, identity: e.Name == "and", args: args}
		if allConst {
			return foldNode(node, e.Span)
		}
		return node, nil
	case ";":
		if allConst {
			return args[len(args)-1], nil
		}
		return seqNode{parts: args}, nil
	}

	fn, ok := builtins[e.Name]
	if !ok {
		return nil, spanned(e.Span, &TypeError{Name: e.Name, Msg: "unknown function"})
	}
	// debug.panic must only fire when evaluation actually reaches it, so
	// it is never specialized early, even with constant arguments.
	if e.Name == "debug.panic" {
		allConst = false
	}
	if allConst {
		values := make([]value.Value, len(args))
		for i, arg := range args {
			values[i], _ = constValue(arg)
		}
		node, err := fn.Compile(e.Span, values)
		if err != nil {
			return nil, spanned(e.Span, err)
		}
		return node, nil
	}
	return callNode{span: e.Span, name: e.Name, fn: fn, args: args}, nil
}

// foldNode runs a state-independent node once at compile time.
func foldNode(n Node, span ast.Span) (Node, error) {
	v, err := n.Eval(nil)
	if err != nil {
		return nil, spanned(span, err)
	}
	return Const(v), nil
}
