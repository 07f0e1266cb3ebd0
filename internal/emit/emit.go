// Package emit renders values into the SQL and CSV output dialects.
package emit

import (
	"fmt"
	"strings"

	"github.com/mmrzaf/dumpgen/internal/value"
)

// Format renders one output dialect. All methods append to the caller's
// buffer so a worker can reuse one row-scoped allocation.
type Format interface {
	// WriteFileHeader runs once at the top of every output file.
	WriteFileHeader(dst []byte, table string, columns []string) []byte
	// WriteStatementHeader starts a statement grouping up to the
	// configured number of rows.
	WriteStatementHeader(dst []byte, table string, columns []string) []byte
	// WriteValue renders a single value.
	WriteValue(dst []byte, v value.Value) []byte
	// WriteValueSeparator separates two values of a row.
	WriteValueSeparator(dst []byte) []byte
	// WriteRowSeparator separates two rows within a statement.
	WriteRowSeparator(dst []byte) []byte
	// WriteTrailer ends a statement.
	WriteTrailer(dst []byte) []byte
	// Extension is the file name suffix of the dialect.
	Extension() string
}

// SQLFormat writes INSERT statements.
type SQLFormat struct {
	// EscapeBackslash doubles backslashes inside string content.
	EscapeBackslash bool
	// Headers adds the column-name list to every INSERT.
	Headers bool
}

func (f *SQLFormat) Extension() string { return "sql" }

func (f *SQLFormat) WriteFileHeader(dst []byte, _ string, _ []string) []byte {
	return dst
}

func (f *SQLFormat) WriteStatementHeader(dst []byte, table string, columns []string) []byte {
	dst = append(dst, "INSERT INTO "...)
	dst = append(dst, table...)
	if f.Headers && len(columns) > 0 {
		dst = append(dst, " ("...)
		for i, c := range columns {
			if i != 0 {
				dst = append(dst, ", "...)
			}
			dst = append(dst, c...)
		}
		dst = append(dst, ')')
	}
	return append(dst, " VALUES\n("...)
}

func (f *SQLFormat) WriteValue(dst []byte, v value.Value) []byte {
	switch v.Kind() {
	case value.KindNull:
		return append(dst, "NULL"...)
	case value.KindNumber:
		n, _ := v.Number()
		return append(dst, n.String()...)
	case value.KindString:
		return f.writeBytes(dst, v)
	case value.KindTimestamp:
		t, _ := v.Time()
		return value.AppendTimestamp(dst, t, "'")
	case value.KindInterval:
		micros, _ := v.Micros()
		return value.AppendInterval(dst, micros, "'")
	case value.KindArray:
		arr, _ := v.Array()
		dst = append(dst, "ARRAY["...)
		for i := uint64(0); i < arr.Len(); i++ {
			if i != 0 {
				dst = append(dst, ", "...)
			}
			dst = f.WriteValue(dst, arr.Get(i))
		}
		return append(dst, ']')
	}
	return dst
}

const hexDigits = "0123456789ABCDEF"

func (f *SQLFormat) writeBytes(dst []byte, v value.Value) []byte {
	raw, _ := v.StringBytes()
	if v.IsBinary() {
		dst = append(dst, 'X', '\'')
		for _, b := range raw {
			dst = append(dst, hexDigits[b>>4], hexDigits[b&0xf])
		}
		return append(dst, '\'')
	}
	dst = append(dst, '\'')
	for _, b := range raw {
		switch {
		case b == '\'':
			dst = append(dst, '\'', '\'')
		case b == '\\' && f.EscapeBackslash:
			dst = append(dst, '\\', '\\')
		case b == 0 && f.EscapeBackslash:
			dst = append(dst, '\\', '0')
		default:
			dst = append(dst, b)
		}
	}
	return append(dst, '\'')
}

func (f *SQLFormat) WriteValueSeparator(dst []byte) []byte {
	return append(dst, ", "...)
}

func (f *SQLFormat) WriteRowSeparator(dst []byte) []byte {
	return append(dst, "),\n("...)
}

func (f *SQLFormat) WriteTrailer(dst []byte) []byte {
	return append(dst, ");\n"...)
}

// CSVFormat writes one row per line.
type CSVFormat struct {
	// EscapeBackslash doubles backslashes inside quoted strings.
	EscapeBackslash bool
	// Headers emits a column-name line at the top of each file.
	Headers bool
	// NullText is emitted for NULL values; empty by default.
	NullText string
}

func (f *CSVFormat) Extension() string { return "csv" }

func (f *CSVFormat) WriteFileHeader(dst []byte, _ string, columns []string) []byte {
	if !f.Headers || len(columns) == 0 {
		return dst
	}
	for i, c := range columns {
		if i != 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, c...)
	}
	return append(dst, '\n')
}

func (f *CSVFormat) WriteStatementHeader(dst []byte, _ string, _ []string) []byte {
	return dst
}

func (f *CSVFormat) WriteValue(dst []byte, v value.Value) []byte {
	switch v.Kind() {
	case value.KindNull:
		return append(dst, f.NullText...)
	case value.KindNumber:
		n, _ := v.Number()
		return append(dst, n.String()...)
	case value.KindString:
		raw, _ := v.StringBytes()
		dst = append(dst, '"')
		for _, b := range raw {
			switch {
			case b == '"':
				dst = append(dst, '"', '"')
			case b == '\\' && f.EscapeBackslash:
				dst = append(dst, '\\', '\\')
			default:
				dst = append(dst, b)
			}
		}
		return append(dst, '"')
	case value.KindTimestamp:
		t, _ := v.Time()
		return value.AppendTimestamp(dst, t, "")
	case value.KindInterval:
		micros, _ := v.Micros()
		return value.AppendInterval(dst, micros, "")
	case value.KindArray:
		arr, _ := v.Array()
		dst = append(dst, '{')
		for i := uint64(0); i < arr.Len(); i++ {
			if i != 0 {
				dst = append(dst, ',')
			}
			dst = f.WriteValue(dst, arr.Get(i))
		}
		return append(dst, '}')
	}
	return dst
}

func (f *CSVFormat) WriteValueSeparator(dst []byte) []byte {
	return append(dst, ',')
}

func (f *CSVFormat) WriteRowSeparator(dst []byte) []byte {
	return append(dst, '\n')
}

func (f *CSVFormat) WriteTrailer(dst []byte) []byte {
	return append(dst, '\n')
}

// New creates a format by name ("sql" or "csv").
func New(name string, escapeBackslash, headers bool, csvNull string) (Format, error) {
	switch strings.ToLower(name) {
	case "sql":
		return &SQLFormat{EscapeBackslash: escapeBackslash, Headers: headers}, nil
	case "csv":
		return &CSVFormat{EscapeBackslash: escapeBackslash, Headers: headers, NullText: csvNull}, nil
	}
	return nil, fmt.Errorf("unsupported format %q", name)
}
