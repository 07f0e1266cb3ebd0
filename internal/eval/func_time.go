package eval

import (
	"strings"
	"time"

	"github.com/mmrzaf/dumpgen/internal/ast"
	"github.com/mmrzaf/dumpgen/internal/value"
)

const timestampParseLayout = "2006-01-02 15:04:05.999999999"

// fnTimestamp parses `TIMESTAMP '…'` literals. The time is taken as UTC.
func fnTimestamp(_ ast.Span, args []value.Value) (Node, error) {
	input, err := argText("timestamp", args, 0, nil)
	if err != nil {
		return nil, err
	}
	t, perr := time.ParseInLocation(timestampParseLayout, input, time.UTC)
	if perr != nil {
		return nil, &InvalidTimestampError{Input: input, Cause: perr}
	}
	return Const(value.Timestamp(t)), nil
}

// fnTimestampTZ parses `TIMESTAMP WITH TIME ZONE '…'`. The literal may end
// with a numeric offset (+08:00) or a named zone (Asia/Shanghai); the
// stored value is normalized to UTC.
func fnTimestampTZ(_ ast.Span, args []value.Value) (Node, error) {
	input, err := argText("timestamp with time zone", args, 0, nil)
	if err != nil {
		return nil, err
	}
	base := input
	loc := time.UTC
	if i := strings.LastIndexByte(input, ' '); i >= 0 {
		suffix := input[i+1:]
		if parsed, ok := parseZone(suffix); ok {
			loc = parsed
			base = strings.TrimRight(input[:i], " ")
		} else if strings.ContainsAny(suffix, "/ABCDEFGHIJKLMNOPQRSTUVWXYZ") && !strings.ContainsAny(suffix, "0123456789") {
			return nil, &InvalidTimestampError{Input: input, Cause: errUnknownZone(suffix)}
		}
	}
	t, perr := time.ParseInLocation(timestampParseLayout, base, loc)
	if perr != nil {
		return nil, &InvalidTimestampError{Input: input, Cause: perr}
	}
	return Const(value.Timestamp(t)), nil
}

type errZone string

func errUnknownZone(name string) error { return errZone(name) }

func (e errZone) Error() string { return "unknown time zone " + string(e) }

func parseZone(suffix string) (*time.Location, bool) {
	if len(suffix) >= 3 && (suffix[0] == '+' || suffix[0] == '-') {
		if t, err := time.Parse("-07:00", suffix); err == nil {
			return t.Location(), true
		}
		if t, err := time.Parse("-0700", suffix); err == nil {
			return t.Location(), true
		}
		return nil, false
	}
	if strings.Contains(suffix, "/") {
		if loc, err := time.LoadLocation(suffix); err == nil {
			return loc, true
		}
	}
	if suffix == "UTC" {
		return time.UTC, true
	}
	return nil, false
}
