package value

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// TimestampFormat is the display layout of an SQL timestamp.
const TimestampFormat = "2006-01-02 15:04:05"

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// KindNull is the SQL NULL.
	KindNull Kind = iota
	// KindNumber holds a Number.
	KindNumber
	// KindString holds a UTF-8 string or a binary byte string.
	KindString
	// KindTimestamp holds a UTC timestamp.
	KindTimestamp
	// KindInterval holds a signed time interval in microseconds.
	KindInterval
	// KindArray holds an eager or lazy array.
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTimestamp:
		return "timestamp"
	case KindInterval:
		return "interval"
	case KindArray:
		return "array"
	}
	return "unknown"
}

// Value is the closed union of every runtime value. The zero value is NULL.
type Value struct {
	kind   Kind
	num    Number
	bytes  []byte
	binary bool
	ts     time.Time
	iv     int64
	arr    *Array
}

// Null is the SQL NULL value.
var Null = Value{}

// NewNumber wraps a Number.
func NewNumber(n Number) Value { return Value{kind: KindNumber, num: n} }

// Int creates an integer value.
func Int(i int64) Value { return NewNumber(NewInt(i)) }

// Uint creates an unsigned integer value.
func Uint(u uint64) Value { return NewNumber(NewUint(u)) }

// Float creates a float value.
func Float(f float64) Value { return NewNumber(NewFloat(f)) }

// Bool creates 1 or 0.
func Bool(b bool) Value { return NewNumber(NewBool(b)) }

// NullableBool creates 1, 0, or NULL.
func NullableBool(b, null bool) Value {
	if null {
		return Null
	}
	return Bool(b)
}

// String creates a UTF-8 string value.
func String(s string) Value { return Value{kind: KindString, bytes: []byte(s)} }

// Bytes creates a byte-string value; it is marked binary when the content
// is not valid UTF-8.
func Bytes(b []byte) Value {
	return Value{kind: KindString, bytes: b, binary: !utf8.Valid(b)}
}

// Timestamp creates a timestamp value, normalized to UTC.
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, ts: t.UTC()} }

// Interval creates an interval value from microseconds.
func Interval(micros int64) Value { return Value{kind: KindInterval, iv: micros} }

// NewArray wraps an array.
func NewArray(a *Array) Value { return Value{kind: KindArray, arr: a} }

// Kind reports the variant of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Number returns the numeric payload; the bool is false for other kinds.
func (v Value) Number() (Number, bool) { return v.num, v.kind == KindNumber }

// StringBytes returns the raw bytes of a string value.
func (v Value) StringBytes() ([]byte, bool) { return v.bytes, v.kind == KindString }

// Text returns the payload of a non-binary string value.
func (v Value) Text() (string, bool) {
	if v.kind != KindString || v.binary {
		return "", false
	}
	return string(v.bytes), true
}

// IsBinary reports whether a string value holds non-UTF-8 content.
func (v Value) IsBinary() bool { return v.kind == KindString && v.binary }

// Time returns the timestamp payload.
func (v Value) Time() (time.Time, bool) { return v.ts, v.kind == KindTimestamp }

// Micros returns the interval payload in microseconds.
func (v Value) Micros() (int64, bool) { return v.iv, v.kind == KindInterval }

// Array returns the array payload.
func (v Value) Array() (*Array, bool) { return v.arr, v.kind == KindArray }

// SQLBool coerces the value to trinary boolean: NULL stays null, NaN is
// null, nonzero numbers are true. Any other kind is an error.
func (v Value) SQLBool() (b, null bool, err error) {
	switch v.kind {
	case KindNull:
		return false, true, nil
	case KindNumber:
		b, null = v.num.SQLBool()
		return b, null, nil
	default:
		return false, false, fmt.Errorf("cannot convert %s into nullable boolean", v.kind)
	}
}

// Cmp compares two values using the rules common among SQL engines:
// comparing with NULL gives null=true; numbers, timestamps and intervals
// compare by value; strings by binary collation; incomparable pairs (NaN)
// also give null=true. Cross-kind comparison is an error.
func (v Value) Cmp(o Value) (ord int, null bool, err error) {
	if v.kind == KindNull || o.kind == KindNull {
		return 0, true, nil
	}
	if v.kind != o.kind {
		return 0, false, fmt.Errorf("cannot compare %s with %s", v, o)
	}
	switch v.kind {
	case KindNumber:
		c, ok := v.num.Cmp(o.num)
		return c, !ok, nil
	case KindString:
		return strings.Compare(string(v.bytes), string(o.bytes)), false, nil
	case KindTimestamp:
		return v.ts.Compare(o.ts), false, nil
	case KindInterval:
		switch {
		case v.iv < o.iv:
			return -1, false, nil
		case v.iv > o.iv:
			return 1, false, nil
		default:
			return 0, false, nil
		}
	default:
		return 0, false, fmt.Errorf("cannot compare %s with %s", v, o)
	}
}

// Identical implements IS / IS NOT: a total identity where NULL IS NULL
// holds, different variants are never identical, and same-variant values
// compare by equality.
func (v Value) Identical(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindNumber:
		return v.num.Equal(o.num)
	case KindString:
		return string(v.bytes) == string(o.bytes)
	case KindTimestamp:
		return v.ts.Equal(o.ts)
	case KindInterval:
		return v.iv == o.iv
	case KindArray:
		return v.arr.equal(o.arr)
	}
	return false
}

const maxInterval = int64(^uint64(0) >> 1)

func addMicros(a, b int64) (int64, error) {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		return 0, fmt.Errorf("interval %d + %d overflows", a, b)
	}
	return s, nil
}

// Add adds two values: number+number, timestamp±interval and
// interval+interval are the valid forms.
func (v Value) Add(o Value) (Value, error) {
	switch {
	case v.kind == KindNumber && o.kind == KindNumber:
		return NewNumber(v.num.Add(o.num)), nil
	case v.kind == KindTimestamp && o.kind == KindInterval:
		return Timestamp(v.ts.Add(time.Duration(o.iv) * time.Microsecond)), nil
	case v.kind == KindInterval && o.kind == KindTimestamp:
		return Timestamp(o.ts.Add(time.Duration(v.iv) * time.Microsecond)), nil
	case v.kind == KindInterval && o.kind == KindInterval:
		s, err := addMicros(v.iv, o.iv)
		if err != nil {
			return Null, err
		}
		return Interval(s), nil
	}
	return Null, fmt.Errorf("cannot add %s to %s", v, o)
}

// Sub subtracts two values; timestamp-timestamp yields an interval.
func (v Value) Sub(o Value) (Value, error) {
	switch {
	case v.kind == KindNumber && o.kind == KindNumber:
		return NewNumber(v.num.Sub(o.num)), nil
	case v.kind == KindTimestamp && o.kind == KindInterval:
		return Timestamp(v.ts.Add(-time.Duration(o.iv) * time.Microsecond)), nil
	case v.kind == KindTimestamp && o.kind == KindTimestamp:
		d := v.ts.Sub(o.ts)
		return Interval(d.Microseconds()), nil
	case v.kind == KindInterval && o.kind == KindInterval:
		s, err := addMicros(v.iv, -o.iv)
		if err != nil {
			return Null, err
		}
		return Interval(s), nil
	}
	return Null, fmt.Errorf("cannot subtract %s from %s", o, v)
}

// Mul multiplies two values: number*number and number*interval.
func (v Value) Mul(o Value) (Value, error) {
	switch {
	case v.kind == KindNumber && o.kind == KindNumber:
		return NewNumber(v.num.Mul(o.num)), nil
	case v.kind == KindNumber && o.kind == KindInterval:
		return mulInterval(v.num, o.iv)
	case v.kind == KindInterval && o.kind == KindNumber:
		return mulInterval(o.num, v.iv)
	}
	return Null, fmt.Errorf("cannot multiply %s with %s", v, o)
}

func mulInterval(n Number, micros int64) (Value, error) {
	res := n.Mul(NewInt(micros))
	if i, ok := res.Int64(); ok {
		return Interval(i), nil
	}
	f := res.Float64()
	if f >= -9.2e18 && f <= 9.2e18 {
		return Interval(int64(f)), nil
	}
	return Null, fmt.Errorf("interval %s microseconds overflows", res)
}

// FloatDiv divides two values. Number division follows IEEE-754, including
// division by zero. Interval/number scales the interval (null on zero
// divisor) and interval/interval yields the float ratio.
func (v Value) FloatDiv(o Value) (Value, error) {
	switch {
	case v.kind == KindNumber && o.kind == KindNumber:
		return NewNumber(v.num.FloatDiv(o.num)), nil
	case v.kind == KindInterval && o.kind == KindNumber:
		if o.num.Sign() == 0 {
			return Null, nil
		}
		scaled := NewInt(v.iv).FloatDiv(o.num)
		if i, ok := scaled.Int64(); ok {
			return Interval(i), nil
		}
		f := scaled.Float64()
		if f < -9.2e18 || f > 9.2e18 {
			return Null, fmt.Errorf("interval %s microseconds overflows", scaled)
		}
		return Interval(int64(f)), nil
	case v.kind == KindInterval && o.kind == KindInterval:
		return Float(float64(v.iv) / float64(o.iv)), nil
	}
	return Null, fmt.Errorf("cannot divide %s by %s", v, o)
}

// DisplayAppend appends the canonical display form used by `||` and
// debug.panic: numbers via Number.String, timestamps in SQL layout,
// intervals as "INTERVAL n MICROSECOND".
func (v Value) DisplayAppend(dst []byte) []byte {
	switch v.kind {
	case KindNull:
		return append(dst, "NULL"...)
	case KindNumber:
		return append(dst, v.num.String()...)
	case KindString:
		return append(dst, v.bytes...)
	case KindTimestamp:
		return appendTimestamp(dst, v.ts, "")
	case KindInterval:
		dst = append(dst, "INTERVAL "...)
		dst = append(dst, fmt.Sprintf("%d", v.iv)...)
		return append(dst, " MICROSECOND"...)
	case KindArray:
		dst = append(dst, "ARRAY["...)
		for i := uint64(0); i < v.arr.Len(); i++ {
			if i != 0 {
				dst = append(dst, ", "...)
			}
			dst = v.arr.Get(i).DisplayAppend(dst)
		}
		return append(dst, ']')
	}
	return dst
}

// String renders the display form. Used in error messages.
func (v Value) String() string {
	return string(v.DisplayAppend(nil))
}

// appendTimestamp renders "YYYY-MM-DD hh:mm:ss[.ffffff]" surrounded by the
// quote string.
func appendTimestamp(dst []byte, t time.Time, quote string) []byte {
	dst = append(dst, quote...)
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()
	dst = append(dst, fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", year, int(month), day, hour, minute, sec)...)
	if ns := t.Nanosecond(); ns != 0 {
		dst = append(dst, fmt.Sprintf(".%06d", ns/1000)...)
	}
	return append(dst, quote...)
}

// AppendInterval renders an interval as "[-][D ]hh:mm:ss[.ffffff]"
// surrounded by the quote string.
func AppendInterval(dst []byte, micros int64, quote string) []byte {
	dst = append(dst, quote...)
	if micros == -maxInterval-1 {
		dst = append(dst, "-106751991 04:00:54.775808"...)
		return append(dst, quote...)
	}
	if micros < 0 {
		micros = -micros
		dst = append(dst, '-')
	}
	seconds := micros / 1_000_000
	frac := micros % 1_000_000
	minutes, seconds := seconds/60, seconds%60
	hours, minutes := minutes/60, minutes%60
	days, hours := hours/24, hours%24
	if days > 0 {
		dst = append(dst, fmt.Sprintf("%d ", days)...)
	}
	dst = append(dst, fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)...)
	if frac > 0 {
		dst = append(dst, fmt.Sprintf(".%06d", frac)...)
	}
	return append(dst, quote...)
}

// AppendTimestamp is the exported timestamp renderer used by the emitters.
func AppendTimestamp(dst []byte, t time.Time, quote string) []byte {
	return appendTimestamp(dst, t, quote)
}

// Concat concatenates values into one string using the display form of
// each operand. Any NULL operand collapses the result to NULL. Binary-ness
// is contagious: if any operand is binary the result is re-checked.
func Concat(values ...Value) (Value, error) {
	var out []byte
	binary := false
	for _, item := range values {
		if item.kind == KindNull {
			return Null, nil
		}
		if item.IsBinary() {
			binary = true
		}
		out = item.DisplayAppend(out)
	}
	if binary {
		return Bytes(out), nil
	}
	return String(string(out)), nil
}
