package eval

import (
	"testing"

	"github.com/mmrzaf/dumpgen/internal/parser"
)

// Every function name the parser accepts must have an implementation, so
// an unknown-function error can never surface after parsing.
func TestRegistryCoversParserFunctions(t *testing.T) {
	aliases := map[string]string{
		"character_length": "char_length",
		"from_base64url":   "from_base64",
	}
	for _, name := range parser.FunctionNames() {
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		if _, ok := builtins[name]; !ok {
			t.Errorf("parser accepts %q but no implementation is registered", name)
		}
	}

	// Names the parser emits for special syntactic forms.
	for _, name := range []string{
		"substring_octets", "overlay_octets", "array", "[]",
		"timestamp", "timestamp with time zone",
		"neg", "~", "+", "-", "*", "/", "||",
		"=", "<>", "<", ">", "<=", ">=", "is", "is not", "not",
		"&", "|", "^",
	} {
		if _, ok := builtins[name]; !ok {
			t.Errorf("syntactic form %q has no implementation", name)
		}
	}
}
