package eval

import (
	"time"

	"github.com/mmrzaf/dumpgen/internal/ast"
	"github.com/mmrzaf/dumpgen/internal/rng"
	"github.com/mmrzaf/dumpgen/internal/value"
)

// State is the mutable per-worker context threaded through evaluation:
// the row counters, the variable slot vector and the PRNG stream.
type State struct {
	RowNum    uint64
	SubRowNum uint64
	Rand      *rng.State
	Vars      []value.Value
}

// NewState creates a state with the given number of variable slots, all
// initialized to NULL.
func NewState(variableCount int, src *rng.State) *State {
	return &State{
		SubRowNum: 1,
		Rand:      src,
		Vars:      make([]value.Value, variableCount),
	}
}

// Node is one step of a compiled evaluation plan.
type Node interface {
	Eval(s *State) (value.Value, error)
}

// constNode is a value fixed at compile time.
type constNode struct {
	v value.Value
}

func (n constNode) Eval(*State) (value.Value, error) { return n.v, nil }

// Const wraps a value into a plan node.
func Const(v value.Value) Node { return constNode{v: v} }

// constValue extracts the value of a constant node, if the node is one.
func constValue(n Node) (value.Value, bool) {
	c, ok := n.(constNode)
	return c.v, ok
}

type rowNumNode struct{}

func (rowNumNode) Eval(s *State) (value.Value, error) {
	return value.Uint(s.RowNum), nil
}

type subRowNumNode struct{}

func (subRowNumNode) Eval(s *State) (value.Value, error) {
	return value.Uint(s.SubRowNum), nil
}

type getVarNode struct {
	slot int
}

func (n getVarNode) Eval(s *State) (value.Value, error) {
	return s.Vars[n.slot], nil
}

type setVarNode struct {
	slot  int
	child Node
}

func (n setVarNode) Eval(s *State) (value.Value, error) {
	v, err := n.child.Eval(s)
	if err != nil {
		return value.Null, err
	}
	s.Vars[n.slot] = v
	return v, nil
}

// seqNode is the `a; b; c` statement: all parts run in order and the last
// value wins.
type seqNode struct {
	parts []Node
}

func (n seqNode) Eval(s *State) (value.Value, error) {
	var last value.Value
	for _, part := range n.parts {
		v, err := part.Eval(s)
		if err != nil {
			return value.Null, err
		}
		last = v
	}
	return last, nil
}

// logicNode is the short-circuiting AND/OR over trinary logic. identity
// is true for AND and false for OR: once an operand evaluates to the
// negation of the identity, the remaining operands are skipped.
type logicNode struct {
	span     ast.Span
	identity bool
	args     []Node
}

func (n logicNode) Eval(s *State) (value.Value, error) {
	sawNull := false
	for _, arg := range n.args {
		v, err := arg.Eval(s)
		if err != nil {
			return value.Null, err
		}
		b, null, err := v.SQLBool()
		if err != nil {
			return value.Null, spanned(n.span, err)
		}
		switch {
		case null:
			sawNull = true
		case b != n.identity:
			return value.Bool(b), nil
		}
	}
	if sawNull {
		return value.Null, nil
	}
	return value.Bool(n.identity), nil
}

// caseNode is CASE…WHEN with mandatory short-circuit: search expressions
// run in order, and only the chosen branch is evaluated.
type caseNode struct {
	span     ast.Span
	value    Node // nil for the searched CASE form
	whens    []caseWhen
	fallback Node
}

type caseWhen struct {
	cond   Node
	result Node
}

func (n caseNode) Eval(s *State) (value.Value, error) {
	var matchAgainst value.Value
	hasValue := n.value != nil
	if hasValue {
		v, err := n.value.Eval(s)
		if err != nil {
			return value.Null, err
		}
		matchAgainst = v
	}
	for _, when := range n.whens {
		cond, err := when.cond.Eval(s)
		if err != nil {
			return value.Null, err
		}
		matched := false
		if hasValue {
			ord, null, err := matchAgainst.Cmp(cond)
			if err != nil {
				return value.Null, spanned(n.span, err)
			}
			matched = !null && ord == 0
		} else {
			b, null, err := cond.SQLBool()
			if err != nil {
				return value.Null, spanned(n.span, err)
			}
			matched = !null && b
		}
		if matched {
			return when.result.Eval(s)
		}
	}
	if n.fallback == nil {
		return value.Null, nil
	}
	return n.fallback.Eval(s)
}

// callNode is a strict function application. Arguments evaluate left to
// right; the function is then specialized against the evaluated values
// and the resulting node runs immediately. Functions whose arguments were
// all constant never produce a callNode: they specialize at compile time.
// debug.panic is the exception and always compiles to a callNode.
type callNode struct {
	span ast.Span
	name string
	fn   Function
	args []Node
}

func (n callNode) Eval(s *State) (value.Value, error) {
	args := make([]value.Value, len(n.args))
	for i, arg := range n.args {
		v, err := arg.Eval(s)
		if err != nil {
			return value.Null, err
		}
		args[i] = v
	}
	node, err := n.fn.Compile(n.span, args)
	if err != nil {
		return value.Null, spanned(n.span, err)
	}
	v, err := node.Eval(s)
	return v, spanned(n.span, err)
}

// Sampler nodes: created when a rand.* function specializes against its
// (constant) parameters; each Eval draws from the worker's PRNG.

type randRangeU64Node struct {
	lo, hi    uint64
	inclusive bool
}

func (n randRangeU64Node) Eval(s *State) (value.Value, error) {
	if n.inclusive {
		return value.Uint(s.Rand.RangeInclusiveU64(n.lo, n.hi)), nil
	}
	return value.Uint(s.Rand.RangeU64(n.lo, n.hi)), nil
}

type randRangeI64Node struct {
	lo, hi    int64
	inclusive bool
}

func (n randRangeI64Node) Eval(s *State) (value.Value, error) {
	if n.inclusive {
		return value.Int(s.Rand.RangeInclusiveI64(n.lo, n.hi)), nil
	}
	return value.Int(s.Rand.RangeI64(n.lo, n.hi)), nil
}

type randUniformNode struct {
	lo, hi float64
}

func (n randUniformNode) Eval(s *State) (value.Value, error) {
	return value.Float(s.Rand.UniformF64(n.lo, n.hi)), nil
}

type randBoolNode struct {
	p float64
}

func (n randBoolNode) Eval(s *State) (value.Value, error) {
	return value.Bool(s.Rand.Bool(n.p)), nil
}

type randZipfNode struct {
	n uint64
	e float64
}

func (n randZipfNode) Eval(s *State) (value.Value, error) {
	return value.Uint(s.Rand.Zipf(n.n, n.e)), nil
}

type randLogNormalNode struct {
	mu, sigma float64
}

func (n randLogNormalNode) Eval(s *State) (value.Value, error) {
	return value.Float(s.Rand.LogNormal(n.mu, n.sigma)), nil
}

type randFiniteF32Node struct{}

func (randFiniteF32Node) Eval(s *State) (value.Value, error) {
	return value.Float(float64(s.Rand.FiniteF32())), nil
}

type randFiniteF64Node struct{}

func (randFiniteF64Node) Eval(s *State) (value.Value, error) {
	return value.Float(s.Rand.FiniteF64()), nil
}

type randU31TimestampNode struct{}

func (randU31TimestampNode) Eval(s *State) (value.Value, error) {
	secs := s.Rand.RangeU64(1, 1<<31)
	return value.Timestamp(time.Unix(int64(secs), 0).UTC()), nil
}
