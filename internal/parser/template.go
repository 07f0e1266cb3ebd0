package parser

import (
	"strings"
	"unicode"

	"github.com/mmrzaf/dumpgen/internal/ast"
)

// Column is one column of a CREATE TABLE statement.
type Column struct {
	// Name is the unquoted column name.
	Name string
	// Type is the SQL type text following the name, verbatim.
	Type string
	// Expr is the generation expression, nil for schema-only entries such
	// as table constraints or expression-less columns.
	Expr ast.Expr
}

// Derived links a parent table to a child generated per parent row.
type Derived struct {
	// ChildIndex is the index of the child table in Template.Tables.
	ChildIndex int
	// Count is the per-parent row-count expression, evaluated in the
	// parent row's variable context.
	Count ast.Expr
}

// Table is one parsed CREATE TABLE block.
type Table struct {
	Name QName
	// Content is the statement body from '(' to ')' with the expression
	// blocks excised; it is replayed verbatim into the schema file.
	Content string
	Columns []Column
	Derived []Derived
}

// Exprs returns the generation expressions in column order.
func (t *Table) Exprs() []ast.Expr {
	var exprs []ast.Expr
	for _, c := range t.Columns {
		if c.Expr != nil {
			exprs = append(exprs, c.Expr)
		}
	}
	return exprs
}

// ExprColumnNames returns the names of the expression-bearing columns.
func (t *Table) ExprColumnNames() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Expr != nil {
			names = append(names, c.Name)
		}
	}
	return names
}

// Template is a parsed template: global init expressions, the table group
// in declaration order, and the number of variable slots they share.
type Template struct {
	GlobalExprs   []ast.Expr
	VariableCount int
	Tables        []Table
}

// IsDerived reports whether the table at the given index is generated from
// a parent rather than scheduled as a top-level table.
func (t *Template) IsDerived(index int) bool {
	for i := range t.Tables {
		for _, d := range t.Tables[i].Derived {
			if d.ChildIndex == index {
				return true
			}
		}
	}
	return false
}

// ParseTemplate parses a template source. initGlobals holds extra global
// expressions supplied outside the template (the CLI's --init flags); they
// are prepended to the template's own global block.
func ParseTemplate(src string, initGlobals []string) (*Template, error) {
	sc := &templateScanner{
		src:   src,
		lines: newLineIndex(src),
		vars:  newVarAllocator(),
	}
	tmpl := &Template{}

	for _, init := range initGlobals {
		p := &exprParser{lx: newLexer(init, 0), vars: sc.vars}
		e, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if tok := p.lx.next(); tok.typ != tokEOF {
			return nil, errAt(tok.pos, "unexpected %q after expression", tok.text)
		}
		tmpl.GlobalExprs = append(tmpl.GlobalExprs, e)
	}

	type pendingChild struct {
		parentIndex int
		child       QName
		count       ast.Expr
		pos         ast.Span
	}
	var pending *pendingChild
	tableIndex := map[string]int{}

	for {
		sc.skipTrivia()
		if sc.pos >= len(sc.src) {
			break
		}
		if content, base, _, ok := sc.tryBlock(); ok {
			p := &exprParser{lx: newLexerAt(content, base, sc.lines), vars: sc.vars}
			if isDirective(content) {
				parent, count, child, err := sc.parseDirective(p)
				if err != nil {
					return nil, err
				}
				parentIndex, ok := tableIndex[parent.UniqueName()]
				if !ok {
					return nil, errAt(sc.spanAt(base), "cannot find parent table %s to generate derived rows", parent.TableName(true))
				}
				pending = &pendingChild{
					parentIndex: parentIndex,
					child:       child,
					count:       count,
					pos:         sc.spanAt(base),
				}
				continue
			}
			if len(tmpl.Tables) > 0 {
				return nil, errAt(sc.spanAt(base), "expressions are not allowed between CREATE TABLE statements")
			}
			e, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			if tok := p.lx.next(); tok.typ != tokEOF {
				return nil, errAt(tok.pos, "unexpected %q after expression", tok.text)
			}
			tmpl.GlobalExprs = append(tmpl.GlobalExprs, e)
			continue
		}

		table, err := sc.parseCreateTable()
		if err != nil {
			return nil, err
		}
		unique := table.Name.UniqueName()
		if pending != nil {
			if pending.child.UniqueName() != unique {
				return nil, errAt(pending.pos,
					"derived table name in the FOR EACH ROW and CREATE TABLE statements do not match (%s vs %s)",
					pending.child.TableName(true), table.Name.TableName(true))
			}
			childIndex := len(tmpl.Tables)
			parent := &tmpl.Tables[pending.parentIndex]
			parent.Derived = append(parent.Derived, Derived{ChildIndex: childIndex, Count: pending.count})
			pending = nil
		}
		tableIndex[unique] = len(tmpl.Tables)
		tmpl.Tables = append(tmpl.Tables, *table)
	}

	if pending != nil {
		return nil, errAt(pending.pos, "FOR EACH ROW directive without a following CREATE TABLE")
	}
	if len(tmpl.Tables) == 0 {
		return nil, errAt(ast.Span{Line: 1, Col: 1}, "template contains no CREATE TABLE statement")
	}
	tmpl.VariableCount = sc.vars.count()
	return tmpl, nil
}

type templateScanner struct {
	src   string
	pos   int
	lines *lineIndex
	vars  *varAllocator

	// pendingExpr carries the expression block parsed for the column
	// currently being scanned, until the column is flushed.
	pendingExpr ast.Expr
}

func (sc *templateScanner) spanAt(offset int) ast.Span {
	line, col := sc.lines.locate(offset)
	return ast.Span{Offset: offset, Line: line, Col: col}
}

// skipTrivia skips whitespace and SQL comments, but never an expression
// block opener.
func (sc *templateScanner) skipTrivia() {
	for sc.pos < len(sc.src) {
		c := sc.src[sc.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			sc.pos++
		case strings.HasPrefix(sc.src[sc.pos:], "--"):
			if nl := strings.IndexByte(sc.src[sc.pos:], '\n'); nl >= 0 {
				sc.pos += nl + 1
			} else {
				sc.pos = len(sc.src)
			}
		case strings.HasPrefix(sc.src[sc.pos:], "/*") && !strings.HasPrefix(sc.src[sc.pos:], "/*{{"):
			if end := strings.Index(sc.src[sc.pos+2:], "*/"); end >= 0 {
				sc.pos += end + 4
			} else {
				sc.pos = len(sc.src)
			}
		default:
			return
		}
	}
}

// tryBlock recognizes `{{ … }}` and `/*{{ … }}*/` at the current position
// and returns the inner text with its source offset.
func (sc *templateScanner) tryBlock() (content string, base int, comment, ok bool) {
	rest := sc.src[sc.pos:]
	switch {
	case strings.HasPrefix(rest, "/*{{"):
		comment = true
		sc.pos += 4
	case strings.HasPrefix(rest, "{{"):
		sc.pos += 2
	default:
		return "", 0, false, false
	}
	base = sc.pos
	end := sc.findBlockEnd()
	content = sc.src[base:end]
	sc.pos = end + 2
	if comment {
		if strings.HasPrefix(sc.src[sc.pos:], "*/") {
			sc.pos += 2
		}
	}
	return content, base, comment, true
}

// findBlockEnd locates the closing `}}`, ignoring any that appear inside
// string literals.
func (sc *templateScanner) findBlockEnd() int {
	inString := false
	for i := sc.pos; i < len(sc.src); i++ {
		c := sc.src[i]
		if inString {
			if c == '\'' {
				inString = false
			}
			continue
		}
		switch {
		case c == '\'':
			inString = true
		case c == '}' && i+1 < len(sc.src) && sc.src[i+1] == '}':
			return i
		}
	}
	return len(sc.src)
}

func isDirective(content string) bool {
	fields := strings.Fields(content)
	return len(fields) > 0 && strings.EqualFold(fields[0], "for")
}

// parseDirective parses `for each row of PARENT generate E rows of CHILD`.
func (sc *templateScanner) parseDirective(p *exprParser) (parent QName, count ast.Expr, child QName, err error) {
	for _, word := range []string{"for", "each", "row", "of"} {
		if err = p.expectKw(word); err != nil {
			return
		}
	}
	if parent, err = parseQNameTokens(p.lx); err != nil {
		return
	}
	if err = p.expectKw("generate"); err != nil {
		return
	}
	if count, err = p.parseExpr(); err != nil {
		return
	}
	tok := p.lx.next()
	if !p.kw(tok, "row") && !p.kw(tok, "rows") {
		err = errAt(tok.pos, "expected ROWS, got %q", tok.text)
		return
	}
	if err = p.expectKw("of"); err != nil {
		return
	}
	if child, err = parseQNameTokens(p.lx); err != nil {
		return
	}
	if tok := p.lx.next(); tok.typ != tokEOF {
		err = errAt(tok.pos, "unexpected %q after directive", tok.text)
	}
	return
}

// parseCreateTable parses one CREATE TABLE statement, excising embedded
// expression blocks and recording which column each one annotates.
func (sc *templateScanner) parseCreateTable() (*Table, error) {
	lx := newLexerAt(sc.src[sc.pos:], sc.pos, sc.lines)
	p := &exprParser{lx: lx, vars: sc.vars}
	if err := p.expectKw("create"); err != nil {
		return nil, err
	}
	if err := p.expectKw("table"); err != nil {
		return nil, err
	}
	name, err := parseQNameTokens(lx)
	if err != nil {
		return nil, err
	}
	sc.pos = lx.offset()
	sc.skipTrivia()
	if sc.pos >= len(sc.src) || sc.src[sc.pos] != '(' {
		return nil, errAt(sc.spanAt(sc.pos), "expected ( after table name")
	}

	table := &Table{Name: name}
	var content strings.Builder
	var colText strings.Builder
	depth := 0
	colHasExpr := false

	flushColumn := func() {
		text := strings.TrimSpace(colText.String())
		colText.Reset()
		if text == "" && !colHasExpr {
			return
		}
		colName, colType := splitColumn(text)
		n := len(table.Columns)
		table.Columns = append(table.Columns, Column{Name: colName, Type: colType})
		if colHasExpr {
			table.Columns[n].Expr = sc.pendingExpr
			sc.pendingExpr = nil
		}
		colHasExpr = false
	}

	for sc.pos < len(sc.src) {
		if consumed, err := sc.tryBlockInTable(&colHasExpr); err != nil {
			return nil, err
		} else if consumed {
			continue
		}
		c := sc.src[sc.pos]
		switch c {
		case '(':
			depth++
			content.WriteByte(c)
			if depth > 1 {
				colText.WriteByte(c)
			}
			sc.pos++
		case ')':
			depth--
			if depth == 0 {
				flushColumn()
				content.WriteByte(c)
				sc.pos++
				table.Content = content.String()
				// optional trailing semicolon
				sc.skipTrivia()
				if sc.pos < len(sc.src) && sc.src[sc.pos] == ';' {
					sc.pos++
				}
				return table, nil
			}
			content.WriteByte(c)
			colText.WriteByte(c)
			sc.pos++
		case ',':
			content.WriteByte(c)
			if depth == 1 {
				flushColumn()
			} else {
				colText.WriteByte(c)
			}
			sc.pos++
		case '\'':
			lit := sc.scanString()
			content.WriteString(lit)
			colText.WriteString(lit)
		default:
			content.WriteByte(c)
			if depth >= 1 {
				colText.WriteByte(c)
			}
			sc.pos++
		}
	}
	return nil, errAt(sc.spanAt(sc.pos), "unterminated CREATE TABLE statement")
}

// tryBlockInTable consumes an expression block inside a CREATE TABLE body
// and parses it against the current column.
func (sc *templateScanner) tryBlockInTable(colHasExpr *bool) (bool, error) {
	content, base, _, ok := sc.tryBlock()
	if !ok {
		return false, nil
	}
	if *colHasExpr {
		return false, errAt(sc.spanAt(base), "column already has an expression")
	}
	p := &exprParser{lx: newLexerAt(content, base, sc.lines), vars: sc.vars}
	e, err := p.parseStmt()
	if err != nil {
		return false, err
	}
	if tok := p.lx.next(); tok.typ != tokEOF {
		return false, errAt(tok.pos, "unexpected %q after expression", tok.text)
	}
	sc.pendingExpr = e
	*colHasExpr = true
	return true, nil
}

func (sc *templateScanner) scanString() string {
	start := sc.pos
	sc.pos++
	for sc.pos < len(sc.src) {
		if sc.src[sc.pos] == '\'' {
			if sc.pos+1 < len(sc.src) && sc.src[sc.pos+1] == '\'' {
				sc.pos += 2
				continue
			}
			sc.pos++
			break
		}
		sc.pos++
	}
	return sc.src[start:sc.pos]
}

// splitColumn splits a column definition into its name and type text.
func splitColumn(text string) (name, typ string) {
	if text == "" {
		return "", ""
	}
	switch text[0] {
	case '"', '`', '[':
		closeQuote := text[0]
		if closeQuote == '[' {
			closeQuote = ']'
		}
		for i := 1; i < len(text); i++ {
			if text[i] == closeQuote {
				if closeQuote != ']' && i+1 < len(text) && text[i+1] == closeQuote {
					i++
					continue
				}
				return unquoteIdent(text[:i+1]), strings.TrimSpace(text[i+1:])
			}
		}
		return unquoteIdent(text), ""
	}
	end := len(text)
	for i, r := range text {
		if !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			end = i
			break
		}
	}
	return text[:end], strings.TrimSpace(text[end:])
}

// offset reports the absolute source offset the lexer has consumed up to,
// accounting for a pending peeked token.
func (l *lexer) offset() int {
	if l.peeked != nil {
		return l.peeked.pos.Offset
	}
	return l.base + l.pos
}
