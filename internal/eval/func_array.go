package eval

import (
	"fmt"
	"math"

	"github.com/mmrzaf/dumpgen/internal/ast"
	"github.com/mmrzaf/dumpgen/internal/value"
)

func fnArray(_ ast.Span, args []value.Value) (Node, error) {
	values := make([]value.Value, len(args))
	copy(values, args)
	return Const(value.NewArray(value.ArrayFromValues(values))), nil
}

// fnSubscript is the 1-based `x[i]` operator. An index below one is a
// range error; an index beyond the end is NULL.
func fnSubscript(_ ast.Span, args []value.Value) (Node, error) {
	if len(args) < 2 {
		return nil, errNotEnoughArgs("[]")
	}
	if args[0].IsNull() || args[1].IsNull() {
		return Const(value.Null), nil
	}
	arr, err := argArray("[]", args, 0)
	if err != nil {
		return nil, err
	}
	n, err := argNumber("[]", args, 1)
	if err != nil {
		return nil, err
	}
	index, ok := n.Uint64()
	if !ok || index < 1 {
		return nil, &ValueRangeError{Name: "[]", Msg: fmt.Sprintf("array subscript %s is below 1", n)}
	}
	if index > arr.Len() {
		return Const(value.Null), nil
	}
	return Const(arr.Get(index - 1)), nil
}

// fnGenerateSeries builds the lazy series start, start+step, … up to and
// including stop. The default step is 1.
func fnGenerateSeries(_ ast.Span, args []value.Value) (Node, error) {
	const name = "generate_series"
	start, err := argValue(name, args, 0, nil)
	if err != nil {
		return nil, err
	}
	stop, err := argValue(name, args, 1, nil)
	if err != nil {
		return nil, err
	}
	one := value.Int(1)
	step, err := argValue(name, args, 2, &one)
	if err != nil {
		return nil, err
	}
	length, err := seriesLength(start, stop, step)
	if err != nil {
		return nil, err
	}
	return Const(value.NewArray(value.NewSeries(start, step, length))), nil
}

// seriesLength computes floor((stop-start)/step)+1, clamped at zero for a
// step pointing away from stop.
func seriesLength(start, stop, step value.Value) (uint64, error) {
	span, err := stop.Sub(start)
	if err != nil {
		return 0, &TypeError{Name: "generate_series", Msg: err.Error()}
	}
	var ratio float64
	switch {
	case span.Kind() == value.KindNumber && step.Kind() == value.KindNumber:
		spanNum, _ := span.Number()
		stepNum, _ := step.Number()
		if stepNum.Sign() == 0 {
			return 0, &ValueRangeError{Name: "generate_series", Msg: "step must not be zero"}
		}
		if spanNum.Sign() != 0 && spanNum.Sign() != stepNum.Sign() {
			return 0, nil
		}
		if q, ok := spanNum.Div(stepNum); ok {
			if u, exact := q.Uint64(); exact && q.Sign() >= 0 {
				return addSeriesOne(u)
			}
		}
		ratio = spanNum.Float64() / stepNum.Float64()
	case span.Kind() == value.KindInterval && step.Kind() == value.KindInterval:
		spanMicros, _ := span.Micros()
		stepMicros, _ := step.Micros()
		if stepMicros == 0 {
			return 0, &ValueRangeError{Name: "generate_series", Msg: "step must not be zero"}
		}
		if spanMicros != 0 && (spanMicros < 0) != (stepMicros < 0) {
			return 0, nil
		}
		q := spanMicros / stepMicros
		if q < 0 {
			return 0, nil
		}
		return addSeriesOne(uint64(q))
	default:
		return 0, &TypeError{Name: "generate_series", Msg: fmt.Sprintf(
			"cannot step %s by %s", span.Kind(), step.Kind())}
	}
	if ratio < 0 {
		return 0, nil
	}
	if ratio >= math.MaxUint64 {
		return 0, &ValueRangeError{Name: "generate_series", Msg: "series is longer than 2^64 elements"}
	}
	return addSeriesOne(uint64(ratio))
}

func addSeriesOne(q uint64) (uint64, error) {
	if q == math.MaxUint64 {
		return 0, &ValueRangeError{Name: "generate_series", Msg: "series is longer than 2^64 elements"}
	}
	return q + 1, nil
}

// randShuffleNode reshuffles the array's permutation on every evaluation,
// drawing the permutation seed from the worker's PRNG.
type randShuffleNode struct {
	inner *value.Array
}

func (n randShuffleNode) Eval(s *State) (value.Value, error) {
	perm := value.PreparePermutation(n.inner.Len())
	perm.Shuffle(s.Rand)
	return value.NewArray(n.inner.Permuted(perm)), nil
}

func fnRandShuffle(_ ast.Span, args []value.Value) (Node, error) {
	arr, err := argArray("rand.shuffle", args, 0)
	if err != nil {
		return nil, err
	}
	if arr.Len() == 0 {
		return Const(value.NewArray(arr)), nil
	}
	return randShuffleNode{inner: arr}, nil
}

// randWeightedNode samples an index according to the compiled cumulative
// weights. The result is the 0-based index, matching the original's
// weighted sampler.
type randWeightedNode struct {
	cumulative []float64
}

func (n randWeightedNode) Eval(s *State) (value.Value, error) {
	total := n.cumulative[len(n.cumulative)-1]
	r := s.Rand.Float01() * total
	for i, c := range n.cumulative {
		if r < c {
			return value.Int(int64(i)), nil
		}
	}
	return value.Int(int64(len(n.cumulative) - 1)), nil
}

func fnRandWeighted(_ ast.Span, args []value.Value) (Node, error) {
	const name = "rand.weighted"
	arr, err := argArray(name, args, 0)
	if err != nil {
		return nil, err
	}
	if arr.Len() == 0 {
		return nil, &ValueRangeError{Name: name, Msg: "no weights provided"}
	}
	cumulative := make([]float64, 0, arr.Len())
	total := 0.0
	for i := uint64(0); i < arr.Len(); i++ {
		w, ok := arr.Get(i).Number()
		if !ok {
			return nil, &TypeError{Name: name, Msg: fmt.Sprintf("weight %d is not a number", i+1)}
		}
		f := w.Float64()
		if f < 0 || math.IsNaN(f) {
			return nil, &ValueRangeError{Name: name, Msg: fmt.Sprintf("weight %d is negative", i+1)}
		}
		total += f
		cumulative = append(cumulative, total)
	}
	if total == 0 {
		return nil, &ValueRangeError{Name: name, Msg: "total weight is zero"}
	}
	return randWeightedNode{cumulative: cumulative}, nil
}
