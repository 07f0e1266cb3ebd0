package eval

import (
	"unicode/utf8"

	"github.com/mmrzaf/dumpgen/internal/ast"
	"github.com/mmrzaf/dumpgen/internal/value"
)

// substringBounds converts the SQL 1-based FROM/FOR pair into a clamped
// 0-based half-open range over a sequence of the given length.
func substringBounds(name string, args []value.Value, length int) (int, int, error) {
	start64, err := argI64(name, args, 1, nil)
	if err != nil {
		return 0, 0, err
	}
	start := start64 - 1
	if len(args) >= 3 && !args[2].IsNull() {
		count, err := argI64(name, args, 2, nil)
		if err != nil {
			return 0, 0, err
		}
		end := start + count
		lo := clampIndex(start, length)
		hi := clampIndex(end, length)
		if hi < lo {
			hi = lo
		}
		return lo, hi, nil
	}
	return clampIndex(start, length), length, nil
}

func clampIndex(i int64, length int) int {
	if i < 0 {
		return 0
	}
	if i > int64(length) {
		return length
	}
	return int(i)
}

// fnSubstring is the character-unit substring: positions count runes.
func fnSubstring(_ ast.Span, args []value.Value) (Node, error) {
	input, err := argText("substring", args, 0, nil)
	if err != nil {
		return nil, err
	}
	runes := []rune(input)
	lo, hi, err := substringBounds("substring", args, len(runes))
	if err != nil {
		return nil, err
	}
	return Const(value.String(string(runes[lo:hi]))), nil
}

// fnSubstringOctets slices by bytes; the result may no longer be UTF-8
// and degrades to a binary string in that case.
func fnSubstringOctets(_ ast.Span, args []value.Value) (Node, error) {
	input, err := argBytes("substring", args, 0)
	if err != nil {
		return nil, err
	}
	lo, hi, err := substringBounds("substring", args, len(input))
	if err != nil {
		return nil, err
	}
	out := make([]byte, hi-lo)
	copy(out, input[lo:hi])
	return Const(value.Bytes(out)), nil
}

// fnOverlay replaces the FROM/FOR range of the input with the PLACING
// string, counting characters. Without FOR, the replaced range has the
// length of the replacement.
func fnOverlay(_ ast.Span, args []value.Value) (Node, error) {
	input, err := argText("overlay", args, 0, nil)
	if err != nil {
		return nil, err
	}
	placing, err := argText("overlay", args, 1, nil)
	if err != nil {
		return nil, err
	}
	runes := []rune(input)
	lo, hi, err := overlayBounds("overlay", args, len(runes), utf8.RuneCountInString(placing))
	if err != nil {
		return nil, err
	}
	out := string(runes[:lo]) + placing + string(runes[hi:])
	return Const(value.String(out)), nil
}

func fnOverlayOctets(_ ast.Span, args []value.Value) (Node, error) {
	input, err := argBytes("overlay", args, 0)
	if err != nil {
		return nil, err
	}
	placing, err := argBytes("overlay", args, 1)
	if err != nil {
		return nil, err
	}
	lo, hi, err := overlayBounds("overlay", args, len(input), len(placing))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, lo+len(placing)+len(input)-hi)
	out = append(out, input[:lo]...)
	out = append(out, placing...)
	out = append(out, input[hi:]...)
	return Const(value.Bytes(out)), nil
}

func overlayBounds(name string, args []value.Value, length, placingLen int) (int, int, error) {
	start64, err := argI64(name, args, 2, nil)
	if err != nil {
		return 0, 0, err
	}
	start := start64 - 1
	count := int64(placingLen)
	if len(args) >= 4 {
		count, err = argI64(name, args, 3, nil)
		if err != nil {
			return 0, 0, err
		}
	}
	lo := clampIndex(start, length)
	hi := clampIndex(start+count, length)
	if hi < lo {
		hi = lo
	}
	return lo, hi, nil
}

func fnCharLength(_ ast.Span, args []value.Value) (Node, error) {
	s, err := argBytes("char_length", args, 0)
	if err != nil {
		return nil, err
	}
	return Const(value.Int(int64(utf8.RuneCount(s)))), nil
}

func fnOctetLength(_ ast.Span, args []value.Value) (Node, error) {
	s, err := argBytes("octet_length", args, 0)
	if err != nil {
		return nil, err
	}
	return Const(value.Int(int64(len(s)))), nil
}
