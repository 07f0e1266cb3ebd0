package value

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NumberKind identifies the concrete representation of a Number.
type NumberKind uint8

const (
	// NumberInt is a 64-bit integer (signed or unsigned).
	NumberInt NumberKind = iota
	// NumberFloat is an IEEE-754 binary64 value.
	NumberFloat
	// NumberDecimal is an exact decimal (integer mantissa plus scale).
	NumberDecimal
)

// Number is an SQL number. Integers are kept in sign-magnitude form so the
// full literal range 0..2^64-1 is representable alongside negative values
// down to -2^63. Arithmetic that overflows the integer range degrades to
// float, like most SQL engines do.
type Number struct {
	kind NumberKind
	neg  bool
	mag  uint64
	f    float64
	dec  decimal.Decimal
}

// NewInt creates an integer Number from a signed value.
func NewInt(v int64) Number {
	if v < 0 {
		// math.MinInt64 negates onto itself; the magnitude is 1<<63.
		return Number{kind: NumberInt, neg: true, mag: uint64(-(v + 1)) + 1}
	}
	return Number{kind: NumberInt, mag: uint64(v)}
}

// NewUint creates an integer Number from an unsigned value.
func NewUint(v uint64) Number {
	return Number{kind: NumberInt, mag: v}
}

// NewFloat creates a float Number.
func NewFloat(v float64) Number {
	return Number{kind: NumberFloat, f: v}
}

// NewDecimal creates an exact-decimal Number.
func NewDecimal(d decimal.Decimal) Number {
	return Number{kind: NumberDecimal, dec: d}
}

// NewBool creates 1 for true and 0 for false.
func NewBool(b bool) Number {
	if b {
		return NewInt(1)
	}
	return NewInt(0)
}

// Kind reports the concrete representation.
func (n Number) Kind() NumberKind { return n.kind }

// IsInt reports whether the number holds an integer.
func (n Number) IsInt() bool { return n.kind == NumberInt }

// Int64 returns the value as int64 if it fits exactly.
func (n Number) Int64() (int64, bool) {
	switch n.kind {
	case NumberInt:
		if n.neg {
			if n.mag > 1<<63 {
				return 0, false
			}
			return -int64(n.mag-1) - 1, true
		}
		if n.mag > math.MaxInt64 {
			return 0, false
		}
		return int64(n.mag), true
	case NumberFloat:
		if n.f != math.Trunc(n.f) || n.f < math.MinInt64 || n.f >= math.MaxInt64 {
			return 0, false
		}
		return int64(n.f), true
	case NumberDecimal:
		if n.dec.Exponent() >= 0 || n.dec.Truncate(0).Equal(n.dec) {
			i := n.dec.IntPart()
			if decimal.NewFromInt(i).Equal(n.dec.Truncate(0)) {
				return i, true
			}
		}
		return 0, false
	}
	return 0, false
}

// Uint64 returns the value as uint64 if it fits exactly.
func (n Number) Uint64() (uint64, bool) {
	switch n.kind {
	case NumberInt:
		if n.neg && n.mag != 0 {
			return 0, false
		}
		return n.mag, true
	case NumberFloat:
		if n.f != math.Trunc(n.f) || n.f < 0 || n.f >= math.MaxUint64 {
			return 0, false
		}
		return uint64(n.f), true
	case NumberDecimal:
		i, ok := n.Int64()
		if !ok || i < 0 {
			return 0, false
		}
		return uint64(i), true
	}
	return 0, false
}

// Float64 returns the value converted to float64, possibly losing precision.
func (n Number) Float64() float64 {
	switch n.kind {
	case NumberInt:
		f := float64(n.mag)
		if n.neg {
			return -f
		}
		return f
	case NumberFloat:
		return n.f
	default:
		f, _ := n.dec.Float64()
		return f
	}
}

// Decimal returns the value as an exact decimal. Floats convert through
// their shortest representation; infinities and NaN report ok=false.
func (n Number) Decimal() (decimal.Decimal, bool) {
	switch n.kind {
	case NumberInt:
		if !n.neg && n.mag > math.MaxInt64 {
			return decimal.NewFromBigInt(new(big.Int).SetUint64(n.mag), 0), true
		}
		i, _ := n.Int64()
		return decimal.NewFromInt(i), true
	case NumberFloat:
		if math.IsInf(n.f, 0) || math.IsNaN(n.f) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(n.f), true
	default:
		return n.dec, true
	}
}

// SQLBool converts the number into a nullable boolean using the SQL rule:
// zero is false, nonzero is true, NaN is unknown (null).
func (n Number) SQLBool() (b, null bool) {
	switch n.kind {
	case NumberInt:
		return n.mag != 0, false
	case NumberFloat:
		if math.IsNaN(n.f) {
			return false, true
		}
		return n.f != 0, false
	default:
		return !n.dec.IsZero(), false
	}
}

// Sign reports -1, 0 or +1. NaN counts as zero.
func (n Number) Sign() int {
	switch n.kind {
	case NumberInt:
		if n.mag == 0 {
			return 0
		}
		if n.neg {
			return -1
		}
		return 1
	case NumberFloat:
		switch {
		case n.f > 0:
			return 1
		case n.f < 0:
			return -1
		default:
			return 0
		}
	default:
		return n.dec.Sign()
	}
}

// Neg returns the negated number.
func (n Number) Neg() Number {
	switch n.kind {
	case NumberInt:
		if n.mag == 0 {
			return n
		}
		return Number{kind: NumberInt, neg: !n.neg, mag: n.mag}
	case NumberFloat:
		return NewFloat(-n.f)
	default:
		return NewDecimal(n.dec.Neg())
	}
}

// addMag adds two sign-magnitude integers; ok=false on overflow.
func addMag(aNeg bool, aMag uint64, bNeg bool, bMag uint64) (neg bool, mag uint64, ok bool) {
	if aNeg == bNeg {
		sum, carry := bits.Add64(aMag, bMag, 0)
		if carry != 0 {
			return false, 0, false
		}
		return aNeg, sum, true
	}
	if aMag >= bMag {
		return aNeg, aMag - bMag, true
	}
	return bNeg, bMag - aMag, true
}

// intResult builds the result of checked integer arithmetic and falls back
// to float when the 64-bit range is exceeded.
func intResult(neg bool, mag uint64, ok bool, fallback float64) Number {
	if !ok || (neg && mag > 1<<63) {
		return NewFloat(fallback)
	}
	if neg && mag == 0 {
		neg = false
	}
	return Number{kind: NumberInt, neg: neg, mag: mag}
}

// binaryKind decides the promoted representation of a pair of numbers:
// float wins over decimal, decimal wins over int.
func binaryKind(a, b Number) NumberKind {
	if a.kind == NumberFloat || b.kind == NumberFloat {
		return NumberFloat
	}
	if a.kind == NumberDecimal || b.kind == NumberDecimal {
		return NumberDecimal
	}
	return NumberInt
}

// Add adds two numbers with the promotion rules of §3.2.
func (n Number) Add(o Number) Number {
	switch binaryKind(n, o) {
	case NumberInt:
		neg, mag, ok := addMag(n.neg, n.mag, o.neg, o.mag)
		return intResult(neg, mag, ok, n.Float64()+o.Float64())
	case NumberDecimal:
		a, _ := n.Decimal()
		b, _ := o.Decimal()
		return NewDecimal(a.Add(b))
	default:
		return NewFloat(n.Float64() + o.Float64())
	}
}

// Sub subtracts o from n.
func (n Number) Sub(o Number) Number {
	switch binaryKind(n, o) {
	case NumberInt:
		neg, mag, ok := addMag(n.neg, n.mag, !o.neg, o.mag)
		return intResult(neg, mag, ok, n.Float64()-o.Float64())
	case NumberDecimal:
		a, _ := n.Decimal()
		b, _ := o.Decimal()
		return NewDecimal(a.Sub(b))
	default:
		return NewFloat(n.Float64() - o.Float64())
	}
}

// Mul multiplies two numbers.
func (n Number) Mul(o Number) Number {
	switch binaryKind(n, o) {
	case NumberInt:
		hi, lo := bits.Mul64(n.mag, o.mag)
		return intResult(n.neg != o.neg, lo, hi == 0, n.Float64()*o.Float64())
	case NumberDecimal:
		a, _ := n.Decimal()
		b, _ := o.Decimal()
		return NewDecimal(a.Mul(b))
	default:
		return NewFloat(n.Float64() * o.Float64())
	}
}

// FloatDiv divides two numbers with float semantics. Division by zero
// follows IEEE-754: the result is ±Inf or NaN, never an error.
func (n Number) FloatDiv(o Number) Number {
	return NewFloat(n.Float64() / o.Float64())
}

// Div computes the integer quotient truncated toward zero. The result is
// ok=false when the divisor is zero (SQL null).
func (n Number) Div(o Number) (Number, bool) {
	if o.Sign() == 0 {
		return Number{}, false
	}
	if n.kind == NumberInt && o.kind == NumberInt {
		return intResult(n.neg != o.neg, n.mag/o.mag, true, 0), true
	}
	q := math.Trunc(n.Float64() / o.Float64())
	return NewFloat(q), true
}

// Mod computes the remainder of truncated division; the sign follows the
// dividend. The result is ok=false when the divisor is zero.
func (n Number) Mod(o Number) (Number, bool) {
	if o.Sign() == 0 {
		return Number{}, false
	}
	if n.kind == NumberInt && o.kind == NumberInt {
		return intResult(n.neg, n.mag%o.mag, true, 0), true
	}
	return NewFloat(math.Mod(n.Float64(), o.Float64())), true
}

// Cmp compares two numbers by mathematical value. The second result is
// false when the values are incomparable (either side is NaN).
func (n Number) Cmp(o Number) (int, bool) {
	if n.kind == NumberInt && o.kind == NumberInt {
		switch {
		case n.neg && !o.neg:
			if n.mag == 0 && o.mag == 0 {
				return 0, true
			}
			return -1, true
		case !n.neg && o.neg:
			if n.mag == 0 && o.mag == 0 {
				return 0, true
			}
			return 1, true
		case n.mag == o.mag:
			return 0, true
		case n.mag < o.mag:
			if n.neg {
				return 1, true
			}
			return -1, true
		default:
			if n.neg {
				return -1, true
			}
			return 1, true
		}
	}
	if (n.kind == NumberFloat && math.IsNaN(n.f)) || (o.kind == NumberFloat && math.IsNaN(o.f)) {
		return 0, false
	}
	if n.kind != NumberFloat && o.kind != NumberFloat {
		a, _ := n.Decimal()
		b, _ := o.Decimal()
		return a.Cmp(b), true
	}
	// Mixed float comparison goes through big.Float so that large integers
	// and high-scale decimals are not rounded before comparing.
	return bigFloat(n).Cmp(bigFloat(o)), true
}

func bigFloat(n Number) *big.Float {
	f := new(big.Float).SetPrec(128)
	switch n.kind {
	case NumberInt:
		f.SetUint64(n.mag)
		if n.neg {
			f.Neg(f)
		}
	case NumberFloat:
		f.SetFloat64(n.f)
	default:
		f.SetString(n.dec.String())
	}
	return f
}

// Equal reports mathematical equality; NaN is equal to nothing.
func (n Number) Equal(o Number) bool {
	c, ok := n.Cmp(o)
	return ok && c == 0
}

// BitsInt64 reinterprets the number as a signed 64-bit integer for bitwise
// operators, truncating the magnitude modulo 2^64.
func (n Number) BitsInt64() (int64, bool) {
	switch n.kind {
	case NumberInt:
		if n.neg {
			return -int64(n.mag), true
		}
		return int64(n.mag), true
	default:
		i, ok := n.Int64()
		return i, ok
	}
}

// String renders the canonical display form: integers without a decimal
// point, decimals with their scale preserved, floats in shortest
// round-trip notation.
func (n Number) String() string {
	switch n.kind {
	case NumberInt:
		if n.neg && n.mag != 0 {
			return "-" + strconv.FormatUint(n.mag, 10)
		}
		return strconv.FormatUint(n.mag, 10)
	case NumberFloat:
		return FormatFloat(n.f)
	default:
		if exp := n.dec.Exponent(); exp < 0 {
			return n.dec.StringFixed(-exp)
		}
		return n.dec.String()
	}
}

// FormatFloat renders a float in shortest round-trip form. Integral values
// keep a trailing ".0" so that the float-ness survives a round trip, and
// the special values are spelled "inf", "-inf" and "NaN".
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		mantissa, exp := s[:i], s[i+1:]
		exp = strings.TrimPrefix(exp, "+")
		if len(exp) > 1 && exp[0] == '-' {
			exp = "-" + strings.TrimLeft(exp[1:], "0")
		} else {
			exp = strings.TrimLeft(exp, "0")
		}
		if exp == "" || exp == "-" {
			exp = "0"
		}
		return mantissa + "e" + exp
	}
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// ParseNumber parses an SQL numeric literal: hexadecimal 0x… integers,
// plain integers up to 2^64-1, and decimal-point literals which become
// exact decimals. Exponent literals become floats.
func ParseNumber(text string) (Number, error) {
	if len(text) > 2 && (text[:2] == "0x" || text[:2] == "0X") {
		u, err := strconv.ParseUint(text[2:], 16, 64)
		if err != nil {
			return Number{}, fmt.Errorf("integer %q is too big", text)
		}
		return NewUint(u), nil
	}
	if !strings.ContainsAny(text, ".eE") {
		u, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return Number{}, fmt.Errorf("integer %q is too big", text)
		}
		return NewUint(u), nil
	}
	if !strings.ContainsAny(text, "eE") {
		d, err := decimal.NewFromString(text)
		if err != nil {
			return Number{}, fmt.Errorf("invalid number %q", text)
		}
		return NewDecimal(d), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Number{}, fmt.Errorf("invalid number %q", text)
	}
	return NewFloat(f), nil
}
