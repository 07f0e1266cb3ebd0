package eval

import (
	"fmt"
	"strings"

	"github.com/mmrzaf/dumpgen/internal/ast"
	"github.com/mmrzaf/dumpgen/internal/value"
)

// fnPanic is debug.panic: every argument has been evaluated, and the
// raised error lists them numbered.
func fnPanic(_ ast.Span, args []value.Value) (Node, error) {
	var sb strings.Builder
	for i, arg := range args {
		fmt.Fprintf(&sb, "\n %d. %s", i+1, arg)
	}
	return nil, &PanicError{Message: sb.String()}
}
