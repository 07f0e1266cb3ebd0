package value

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func TestNumberDisplay(t *testing.T) {
	cases := []struct {
		n    Number
		want string
	}{
		{NewInt(123), "123"},
		{NewInt(-123), "-123"},
		{NewInt(0), "0"},
		{NewUint(math.MaxUint64), "18446744073709551615"},
		{NewInt(math.MinInt64), "-9223372036854775808"},
		{NewFloat(0.0), "0.0"},
		{NewFloat(-1.2), "-1.2"},
		{NewFloat(1.5e300), "1.5e300"},
		{NewFloat(1e-200), "1e-200"},
		{NewFloat(math.Inf(1)), "inf"},
		{NewFloat(math.Inf(-1)), "-inf"},
		{NewFloat(math.NaN()), "NaN"},
		{NewDecimal(decimal.RequireFromString("1.50")), "1.50"},
		{NewDecimal(decimal.RequireFromString("-0.001")), "-0.001"},
	}
	for _, tc := range cases {
		if got := tc.n.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"18446744073709551615", "18446744073709551615"},
		{"0x10", "16"},
		{"0xFFFFFFFFFFFFFFFF", "18446744073709551615"},
		{"1.5", "1.5"},
		{"1.50", "1.50"},
		{"2e3", "2000.0"},
	}
	for _, tc := range cases {
		n, err := ParseNumber(tc.in)
		if err != nil {
			t.Fatalf("ParseNumber(%q): %v", tc.in, err)
		}
		if got := n.String(); got != tc.want {
			t.Errorf("ParseNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	for _, in := range []string{"18446744073709551616", "0x10000000000000000"} {
		if _, err := ParseNumber(in); err == nil {
			t.Errorf("ParseNumber(%q) should overflow", in)
		}
	}
}

func TestNumberArithmetic(t *testing.T) {
	if got := NewInt(3).Add(NewInt(4)); !got.Equal(NewInt(7)) {
		t.Errorf("3+4 = %s", got)
	}
	if got := NewFloat(3.5).Add(NewInt(-4)); !got.Equal(NewFloat(-0.5)) {
		t.Errorf("3.5+-4 = %s", got)
	}
	if got := NewInt(3).Sub(NewInt(4)); !got.Equal(NewInt(-1)) {
		t.Errorf("3-4 = %s", got)
	}
	if got := NewInt(3).Mul(NewInt(4)); !got.Equal(NewInt(12)) {
		t.Errorf("3*4 = %s", got)
	}

	// Integer overflow degrades to float.
	big := NewUint(math.MaxUint64)
	sum := big.Add(big)
	if sum.Kind() != NumberFloat {
		t.Errorf("u64max+u64max stayed %v", sum.Kind())
	}

	// Division always yields a float.
	q := NewInt(3).FloatDiv(NewInt(2))
	if got := q.String(); got != "1.5" {
		t.Errorf("3/2 = %q", got)
	}
	if got := NewInt(1).FloatDiv(NewInt(0)).String(); got != "inf" {
		t.Errorf("1/0 = %q", got)
	}
}

func TestNumberDecimalPromotion(t *testing.T) {
	d := NewDecimal(decimal.RequireFromString("1.25"))
	sum := NewInt(1).Add(d)
	if sum.Kind() != NumberDecimal || sum.String() != "2.25" {
		t.Errorf("1 + 1.25 = %s (%v)", sum, sum.Kind())
	}
	f := d.Add(NewFloat(0.5))
	if f.Kind() != NumberFloat {
		t.Errorf("decimal + float stayed %v", f.Kind())
	}
}

func TestDivMod(t *testing.T) {
	cases := []struct {
		a, b      int64
		div, mod  int64
	}{
		{13, 4, 3, 1},
		{-13, 4, -3, -1},
		{13, -4, -3, 1},
		{-13, -4, 3, -1},
		{9, 4, 2, 1},
		{-9, 4, -2, -1},
	}
	for _, tc := range cases {
		d, ok := NewInt(tc.a).Div(NewInt(tc.b))
		if !ok || !d.Equal(NewInt(tc.div)) {
			t.Errorf("div(%d,%d) = %s, want %d", tc.a, tc.b, d, tc.div)
		}
		m, ok := NewInt(tc.a).Mod(NewInt(tc.b))
		if !ok || !m.Equal(NewInt(tc.mod)) {
			t.Errorf("mod(%d,%d) = %s, want %d", tc.a, tc.b, m, tc.mod)
		}
	}

	if _, ok := NewInt(9).Div(NewInt(0)); ok {
		t.Error("div by zero must report not-ok")
	}
	if _, ok := NewInt(9).Mod(NewInt(0)); ok {
		t.Error("mod by zero must report not-ok")
	}
}

func TestDivModIdentityProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("n = div(n,d)*d + mod(n,d) and sign(mod) = sign(n)", prop.ForAll(
		func(n, d int64) bool {
			if d == 0 {
				return true
			}
			nn, dd := NewInt(n), NewInt(d)
			q, _ := nn.Div(dd)
			m, _ := nn.Mod(dd)
			recombined := q.Mul(dd).Add(m)
			if !recombined.Equal(nn) {
				return false
			}
			return m.Sign() == 0 || m.Sign() == nn.Sign()
		},
		gen.Int64(),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestNumberCmp(t *testing.T) {
	check := func(a, b Number, want int) {
		t.Helper()
		got, ok := a.Cmp(b)
		if !ok || got != want {
			t.Errorf("Cmp(%s, %s) = %d/%v, want %d", a, b, got, ok, want)
		}
	}
	check(NewInt(1), NewInt(2), -1)
	check(NewInt(-1), NewUint(math.MaxUint64), -1)
	check(NewFloat(2.5), NewInt(2), 1)
	check(NewInt(5), NewFloat(5.0), 0)
	check(NewDecimal(decimal.RequireFromString("2.50")), NewFloat(2.5), 0)

	if _, ok := NewFloat(math.NaN()).Cmp(NewInt(0)); ok {
		t.Error("NaN must be incomparable")
	}
}

func TestSQLBool(t *testing.T) {
	if b, null := NewInt(3).SQLBool(); !b || null {
		t.Error("3 should be true")
	}
	if b, null := NewFloat(0).SQLBool(); b || null {
		t.Error("0.0 should be false")
	}
	if _, null := NewFloat(math.NaN()).SQLBool(); !null {
		t.Error("NaN should be null")
	}
}
