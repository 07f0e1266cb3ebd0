package eval

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/mmrzaf/dumpgen/internal/ast"
	"github.com/mmrzaf/dumpgen/internal/regexgen"
	"github.com/mmrzaf/dumpgen/internal/value"
)

func requireArgs(name string, cond bool, format string, a ...interface{}) error {
	if cond {
		return nil
	}
	return &ValueRangeError{Name: name, Msg: fmt.Sprintf(format, a...)}
}

// randRange builds rand.range / rand.range_inclusive. The bounds pick the
// widest integer domain that holds them: unsigned when both fit u64,
// signed otherwise.
func randRange(name string, inclusive bool) funcOf {
	return func(_ ast.Span, args []value.Value) (Node, error) {
		lower, err := argNumber(name, args, 0)
		if err != nil {
			return nil, err
		}
		upper, err := argNumber(name, args, 1)
		if err != nil {
			return nil, err
		}
		ord, cmpOK := lower.Cmp(upper)
		if !cmpOK {
			return nil, &ValueRangeError{Name: name, Msg: "bounds are not comparable"}
		}
		if inclusive {
			if err := requireArgs(name, ord <= 0, "assertion failed: %s <= %s", lower, upper); err != nil {
				return nil, err
			}
		} else {
			if err := requireArgs(name, ord < 0, "assertion failed: %s < %s", lower, upper); err != nil {
				return nil, err
			}
		}
		if lo, ok := lower.Uint64(); ok {
			if hi, ok := upper.Uint64(); ok {
				return randRangeU64Node{lo: lo, hi: hi, inclusive: inclusive}, nil
			}
		}
		if lo, ok := lower.Int64(); ok {
			if hi, ok := upper.Int64(); ok {
				return randRangeI64Node{lo: lo, hi: hi, inclusive: inclusive}, nil
			}
		}
		return nil, &ValueRangeError{Name: name, Msg: fmt.Sprintf("integer range %s(%s, %s) is too big", name, lower, upper)}
	}
}

func randUniform(name string, inclusive bool) funcOf {
	return func(_ ast.Span, args []value.Value) (Node, error) {
		lower, err := argF64(name, args, 0)
		if err != nil {
			return nil, err
		}
		upper, err := argF64(name, args, 1)
		if err != nil {
			return nil, err
		}
		if inclusive {
			if err := requireArgs(name, lower <= upper, "assertion failed: %v <= %v", lower, upper); err != nil {
				return nil, err
			}
		} else {
			if err := requireArgs(name, lower < upper, "assertion failed: %v < %v", lower, upper); err != nil {
				return nil, err
			}
		}
		return randUniformNode{lo: lower, hi: upper}, nil
	}
}

func fnRandBool(_ ast.Span, args []value.Value) (Node, error) {
	p, err := argF64("rand.bool", args, 0)
	if err != nil {
		return nil, err
	}
	if err := requireArgs("rand.bool", p >= 0 && p <= 1, "probability %v is not between 0 and 1", p); err != nil {
		return nil, err
	}
	return randBoolNode{p: p}, nil
}

func fnRandZipf(_ ast.Span, args []value.Value) (Node, error) {
	n, err := argU64("rand.zipf", args, 0)
	if err != nil {
		return nil, err
	}
	e, err := argF64("rand.zipf", args, 1)
	if err != nil {
		return nil, err
	}
	if err := requireArgs("rand.zipf", n > 0 && e > 0, "count (%d) and exponent (%v) must be positive", n, e); err != nil {
		return nil, err
	}
	return randZipfNode{n: n, e: e}, nil
}

func fnRandLogNormal(_ ast.Span, args []value.Value) (Node, error) {
	mu, err := argF64("rand.log_normal", args, 0)
	if err != nil {
		return nil, err
	}
	sigma, err := argF64("rand.log_normal", args, 1)
	if err != nil {
		return nil, err
	}
	sigma = math.Abs(sigma)
	return randLogNormalNode{mu: mu, sigma: sigma}, nil
}

func fnRandFiniteF32(ast.Span, []value.Value) (Node, error) {
	return randFiniteF32Node{}, nil
}

func fnRandFiniteF64(ast.Span, []value.Value) (Node, error) {
	return randFiniteF64Node{}, nil
}

func fnRandU31Timestamp(ast.Span, []value.Value) (Node, error) {
	return randU31TimestampNode{}, nil
}

// randUUIDNode draws a version-4 UUID from the worker's PRNG bytes.
type randUUIDNode struct{}

func (randUUIDNode) Eval(s *State) (value.Value, error) {
	var raw [16]byte
	s.Rand.Fill(raw[:])
	raw[6] = raw[6]&0x0f | 0x40
	raw[8] = raw[8]&0x3f | 0x80
	u, err := uuid.FromBytes(raw[:])
	if err != nil {
		return value.Null, err
	}
	return value.String(u.String()), nil
}

func fnRandUUID(ast.Span, []value.Value) (Node, error) {
	return randUUIDNode{}, nil
}

// randRegexNode samples a string matching the compiled pattern.
type randRegexNode struct {
	gen *regexgen.Generator
}

func (n randRegexNode) Eval(s *State) (value.Value, error) {
	return value.Bytes(n.gen.Generate(s.Rand)), nil
}

func fnRandRegex(_ ast.Span, args []value.Value) (Node, error) {
	const name = "rand.regex"
	pattern, err := argText(name, args, 0, nil)
	if err != nil {
		return nil, err
	}
	empty := ""
	flags, err := argText(name, args, 1, &empty)
	if err != nil {
		return nil, err
	}
	maxRepeat := int64(100)
	repeat, err := argI64(name, args, 2, &maxRepeat)
	if err != nil {
		return nil, err
	}
	gen, err := regexgen.Compile(pattern, flags, int(repeat))
	if err != nil {
		return nil, &ValueRangeError{Name: name, Msg: err.Error()}
	}
	return randRegexNode{gen: gen}, nil
}
