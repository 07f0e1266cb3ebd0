package eval

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/mmrzaf/dumpgen/internal/ast"
	"github.com/mmrzaf/dumpgen/internal/value"
)

// stripCodecSpace removes the whitespace (and base64 padding) the decoders
// tolerate in their input.
func stripCodecSpace(s string, pad bool) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		case '=':
			if pad {
				return -1
			}
		}
		return r
	}, s)
}

func fnToHex(_ ast.Span, args []value.Value) (Node, error) {
	b, err := argBytes("to_hex", args, 0)
	if err != nil {
		return nil, err
	}
	return Const(value.String(strings.ToUpper(hex.EncodeToString(b)))), nil
}

func fnFromHex(_ ast.Span, args []value.Value) (Node, error) {
	s, err := argText("from_hex", args, 0, nil)
	if err != nil {
		return nil, err
	}
	decoded, err := hex.DecodeString(stripCodecSpace(s, false))
	if err != nil {
		return nil, &ValueRangeError{Name: "from_hex", Msg: err.Error()}
	}
	return Const(value.Bytes(decoded)), nil
}

func fnToBase64(_ ast.Span, args []value.Value) (Node, error) {
	b, err := argBytes("to_base64", args, 0)
	if err != nil {
		return nil, err
	}
	return Const(value.String(base64.StdEncoding.EncodeToString(b))), nil
}

func fnToBase64URL(_ ast.Span, args []value.Value) (Node, error) {
	b, err := argBytes("to_base64url", args, 0)
	if err != nil {
		return nil, err
	}
	return Const(value.String(base64.RawURLEncoding.EncodeToString(b))), nil
}

// fnFromBase64 decodes both the standard and the URL-safe alphabet, with
// padding and whitespace ignored, so it serves from_base64url as well.
func fnFromBase64(_ ast.Span, args []value.Value) (Node, error) {
	s, err := argText("from_base64", args, 0, nil)
	if err != nil {
		return nil, err
	}
	s = stripCodecSpace(s, true)
	s = strings.NewReplacer("-", "+", "_", "/").Replace(s)
	decoded, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, &ValueRangeError{Name: "from_base64", Msg: err.Error()}
	}
	return Const(value.Bytes(decoded)), nil
}
