// Package regexgen generates random byte strings matching a regular
// expression, by sampling the pattern's parse tree. It backs the
// rand.regex built-in.
package regexgen

import (
	"fmt"
	"regexp/syntax"
	"unicode/utf8"
)

// Source is the PRNG surface the generator draws from.
type Source interface {
	Uint64() uint64
}

// Generator samples strings matching a compiled pattern.
type Generator struct {
	re        *syntax.Regexp
	maxRepeat int
}

// Compile parses the pattern. Supported flags: i (case-insensitive),
// m (multi-line), s (dot matches newline), U (swap greed), x, u, a and o
// are accepted for compatibility with the template reference.
func Compile(pattern, flags string, maxRepeat int) (*Generator, error) {
	mode := syntax.Perl
	for _, flag := range flags {
		switch flag {
		case 'i':
			mode |= syntax.FoldCase
		case 's':
			mode |= syntax.DotNL
		case 'm', 'U', 'x', 'u', 'a', 'o':
			// no generation-visible effect
		default:
			return nil, fmt.Errorf("unknown regex flag %q", flag)
		}
	}
	re, err := syntax.Parse(pattern, mode)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	if maxRepeat <= 0 {
		maxRepeat = 100
	}
	return &Generator{re: re.Simplify(), maxRepeat: maxRepeat}, nil
}

// Generate samples one matching string.
func (g *Generator) Generate(src Source) []byte {
	var out []byte
	return g.walk(src, g.re, out)
}

// below returns a uniform value in [0, n) by rejection.
func below(src Source, n uint64) uint64 {
	if n <= 1 {
		return 0
	}
	if n&(n-1) == 0 {
		return src.Uint64() & (n - 1)
	}
	threshold := -n % n
	for {
		v := src.Uint64()
		if v >= threshold {
			return v % n
		}
	}
}

var anyRuneRanges = []rune{0, 0xd7ff, 0xe000, 0x10ffff}
var anyRuneNoNLRanges = []rune{0, '\n' - 1, '\n' + 1, 0xd7ff, 0xe000, 0x10ffff}

func sampleRune(src Source, pairs []rune) rune {
	var total uint64
	for i := 0; i < len(pairs); i += 2 {
		total += uint64(pairs[i+1]-pairs[i]) + 1
	}
	n := below(src, total)
	for i := 0; i < len(pairs); i += 2 {
		span := uint64(pairs[i+1]-pairs[i]) + 1
		if n < span {
			return pairs[i] + rune(n)
		}
		n -= span
	}
	return pairs[len(pairs)-1]
}

func (g *Generator) walk(src Source, re *syntax.Regexp, out []byte) []byte {
	switch re.Op {
	case syntax.OpEmptyMatch, syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpBeginText, syntax.OpEndText, syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return out

	case syntax.OpLiteral:
		for _, r := range re.Rune {
			out = utf8.AppendRune(out, r)
		}
		return out

	case syntax.OpCharClass:
		if len(re.Rune) == 0 {
			return out
		}
		return utf8.AppendRune(out, sampleRune(src, re.Rune))

	case syntax.OpAnyChar:
		return utf8.AppendRune(out, sampleRune(src, anyRuneRanges))

	case syntax.OpAnyCharNotNL:
		return utf8.AppendRune(out, sampleRune(src, anyRuneNoNLRanges))

	case syntax.OpCapture:
		return g.walk(src, re.Sub[0], out)

	case syntax.OpConcat:
		for _, sub := range re.Sub {
			out = g.walk(src, sub, out)
		}
		return out

	case syntax.OpAlternate:
		pick := below(src, uint64(len(re.Sub)))
		return g.walk(src, re.Sub[pick], out)

	case syntax.OpQuest:
		if below(src, 2) == 1 {
			return g.walk(src, re.Sub[0], out)
		}
		return out

	case syntax.OpStar:
		return g.repeat(src, re.Sub[0], 0, g.maxRepeat, out)

	case syntax.OpPlus:
		return g.repeat(src, re.Sub[0], 1, 1+g.maxRepeat, out)

	case syntax.OpRepeat:
		max := re.Max
		if max < 0 {
			max = re.Min + g.maxRepeat
		}
		return g.repeat(src, re.Sub[0], re.Min, max, out)
	}
	return out
}

func (g *Generator) repeat(src Source, sub *syntax.Regexp, min, max int, out []byte) []byte {
	count := min
	if max > min {
		count = min + int(below(src, uint64(max-min+1)))
	}
	for i := 0; i < count; i++ {
		out = g.walk(src, sub, out)
	}
	return out
}
