package eval

import (
	"math"

	"github.com/mmrzaf/dumpgen/internal/ast"
	"github.com/mmrzaf/dumpgen/internal/value"
)

func fnNeg(_ ast.Span, args []value.Value) (Node, error) {
	n, err := argNumber("-", args, 0)
	if err != nil {
		return nil, err
	}
	return Const(value.NewNumber(n.Neg())), nil
}

func fnBitNot(_ ast.Span, args []value.Value) (Node, error) {
	n, err := argNumber("~", args, 0)
	if err != nil {
		return nil, err
	}
	i, ok := n.BitsInt64()
	if !ok {
		return nil, &TypeError{Name: "~", Msg: "operand is not an integer"}
	}
	return Const(value.Int(^i)), nil
}

func bitwise(name string, op func(a, b int64) int64) funcOf {
	return func(_ ast.Span, args []value.Value) (Node, error) {
		a, err := argNumber(name, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := argNumber(name, args, 1)
		if err != nil {
			return nil, err
		}
		ai, aok := a.BitsInt64()
		bi, bok := b.BitsInt64()
		if !aok || !bok {
			return nil, &TypeError{Name: name, Msg: "operands are not integers"}
		}
		return Const(value.Int(op(ai, bi))), nil
	}
}

// compare implements the six comparison operators through one ordering
// check. Any NULL operand or incomparable pair yields NULL.
func compare(name string, lt, eq, gt bool) funcOf {
	return func(_ ast.Span, args []value.Value) (Node, error) {
		if len(args) < 2 {
			return nil, errNotEnoughArgs(name)
		}
		ord, null, err := args[0].Cmp(args[1])
		if err != nil {
			return nil, &TypeError{Name: name, Msg: err.Error()}
		}
		if null {
			return Const(value.Null), nil
		}
		var res bool
		switch {
		case ord < 0:
			res = lt
		case ord == 0:
			res = eq
		default:
			res = gt
		}
		return Const(value.Bool(res)), nil
	}
}

func identical(name string, want bool) funcOf {
	return func(_ ast.Span, args []value.Value) (Node, error) {
		if len(args) < 2 {
			return nil, errNotEnoughArgs(name)
		}
		return Const(value.Bool(args[0].Identical(args[1]) == want)), nil
	}
}

func fnNot(_ ast.Span, args []value.Value) (Node, error) {
	if len(args) < 1 {
		return nil, errNotEnoughArgs("not")
	}
	b, null, err := args[0].SQLBool()
	if err != nil {
		return nil, &TypeError{Name: "not", Msg: err.Error()}
	}
	return Const(value.NullableBool(!b, null)), nil
}

func arith(name string, op func(a, b value.Value) (value.Value, error)) funcOf {
	return func(_ ast.Span, args []value.Value) (Node, error) {
		if len(args) < 2 {
			return nil, errNotEnoughArgs(name)
		}
		res, err := op(args[0], args[1])
		if err != nil {
			return nil, &TypeError{Name: name, Msg: err.Error()}
		}
		return Const(res), nil
	}
}

func fnConcat(_ ast.Span, args []value.Value) (Node, error) {
	res, err := value.Concat(args...)
	if err != nil {
		return nil, &TypeError{Name: "||", Msg: err.Error()}
	}
	return Const(res), nil
}

func fnDiv(_ ast.Span, args []value.Value) (Node, error) {
	a, err := argNumber("div", args, 0)
	if err != nil {
		return nil, err
	}
	b, err := argNumber("div", args, 1)
	if err != nil {
		return nil, err
	}
	q, ok := a.Div(b)
	if !ok {
		return Const(value.Null), nil
	}
	return Const(value.NewNumber(q)), nil
}

func fnMod(_ ast.Span, args []value.Value) (Node, error) {
	a, err := argNumber("mod", args, 0)
	if err != nil {
		return nil, err
	}
	b, err := argNumber("mod", args, 1)
	if err != nil {
		return nil, err
	}
	r, ok := a.Mod(b)
	if !ok {
		return Const(value.Null), nil
	}
	return Const(value.NewNumber(r)), nil
}

func fnRound(_ ast.Span, args []value.Value) (Node, error) {
	x, err := argF64("round", args, 0)
	if err != nil {
		return nil, err
	}
	zero := int64(0)
	digits, err := argI64("round", args, 1, &zero)
	if err != nil {
		return nil, err
	}
	scale := math.Pow(10, float64(digits))
	return Const(value.Float(math.Round(x*scale) / scale)), nil
}

// extremum implements greatest/least. All arguments are evaluated; NULLs
// are skipped, and an all-NULL argument list yields NULL.
func extremum(name string, order int) funcOf {
	return func(_ ast.Span, args []value.Value) (Node, error) {
		res := value.Null
		for _, v := range args {
			ord, null, err := v.Cmp(res)
			if err != nil {
				return nil, &TypeError{Name: name, Msg: err.Error()}
			}
			if null {
				if res.IsNull() && !v.IsNull() {
					res = v
				}
				continue
			}
			if ord == order {
				res = v
			}
		}
		return Const(res), nil
	}
}

// fnCoalesce returns the first non-NULL argument. All arguments have been
// evaluated by the time this runs; coalesce is deliberately not lazy.
func fnCoalesce(_ ast.Span, args []value.Value) (Node, error) {
	for _, v := range args {
		if !v.IsNull() {
			return Const(v), nil
		}
	}
	return Const(value.Null), nil
}
