package parser

import (
	"fmt"
	"strings"
	"unicode"
)

// QName is a schema-qualified table name with quotation marks intact.
type QName struct {
	parts []string
}

// NewQName builds a qualified name from raw (still-quoted) parts.
func NewQName(parts ...string) QName {
	return QName{parts: parts}
}

// ParseQName parses a dotted, possibly quoted name like `db."Sch".t`.
func ParseQName(input string) (QName, error) {
	lx := newLexer(input, 0)
	q, err := parseQNameTokens(lx)
	if err != nil {
		return QName{}, err
	}
	if tok := lx.next(); tok.typ != tokEOF {
		return QName{}, fmt.Errorf("unexpected %q after name", tok.text)
	}
	return q, nil
}

func parseQNameTokens(lx *lexer) (QName, error) {
	var parts []string
	for {
		tok := lx.next()
		if tok.typ == tokLBracket {
			// In name position a bracket opens a bracket-quoted identifier.
			lx.pos = tok.pos.Offset - lx.base
			tok = lx.lexQuotedIdent('[', ']')
		}
		if tok.typ != tokIdent && tok.typ != tokQuotedIdent {
			return QName{}, fmt.Errorf("expected identifier, got %q", tok.text)
		}
		parts = append(parts, tok.text)
		if len(parts) > 3 {
			return QName{}, fmt.Errorf("too many name qualifiers in %q", strings.Join(parts, "."))
		}
		if lx.peek().typ != tokDot {
			return QName{parts: parts}, nil
		}
		lx.next()
	}
}

// IsZero reports whether the name is empty.
func (q QName) IsZero() bool { return len(q.parts) == 0 }

// TableName returns either the fully qualified dotted name or just the
// final component, with original quoting preserved.
func (q QName) TableName(qualified bool) string {
	if qualified {
		return strings.Join(q.parts, ".")
	}
	return q.parts[len(q.parts)-1]
}

// UniqueName returns a canonical, filesystem-safe name: unquoted parts are
// lowercased, quotation marks are stripped, and the characters `.`, `-`
// and `/` are percent-encoded.
func (q QName) UniqueName() string {
	var sb strings.Builder
	for i, part := range q.parts {
		if i > 0 {
			sb.WriteByte('.')
		}
		unescapeInto(&sb, part, true)
	}
	return sb.String()
}

// unescapeInto normalizes one possibly-quoted identifier. Quoted contents
// pass through with their doubled quote characters collapsed; unquoted
// identifiers fold to lower case.
func unescapeInto(sb *strings.Builder, ident string, percentEscape bool) {
	if ident == "" {
		return
	}
	var closeQuote rune
	body := ident
	switch ident[0] {
	case '`', '\'', '"':
		closeQuote = rune(ident[0])
		body = ident[1:]
	case '[':
		closeQuote = ']'
		body = ident[1:]
	}
	skipNext := false
	for _, c := range body {
		if skipNext {
			skipNext = false
		} else if closeQuote != 0 && c == closeQuote {
			skipNext = true
			continue
		} else if closeQuote == 0 {
			c = unicode.ToLower(c)
		}
		if percentEscape && (c == '.' || c == '-' || c == '/') {
			fmt.Fprintf(sb, "%%%02X", c)
			continue
		}
		sb.WriteRune(c)
	}
}

// unquoteIdent strips quoting from a single identifier without lowering.
func unquoteIdent(ident string) string {
	var sb strings.Builder
	if ident == "" {
		return ""
	}
	switch ident[0] {
	case '`', '\'', '"', '[':
		var closeQuote byte = ident[0]
		if closeQuote == '[' {
			closeQuote = ']'
		}
		body := ident[1:]
		skip := false
		for i := 0; i < len(body); i++ {
			if skip {
				skip = false
			} else if body[i] == closeQuote {
				skip = true
				continue
			}
			sb.WriteByte(body[i])
		}
		return sb.String()
	}
	return ident
}

// variableKey canonicalizes a `@name` for slot allocation: quoting is
// stripped and unquoted names are lowercased.
func variableKey(raw string) string {
	var sb strings.Builder
	unescapeInto(&sb, raw, false)
	return sb.String()
}
