package compiler

import (
	"testing"
	"time"

	"github.com/mmrzaf/dumpgen/internal/eval"
	"github.com/mmrzaf/dumpgen/internal/parser"
	"github.com/mmrzaf/dumpgen/internal/rng"
)

func compileSrc(t *testing.T, src string) *Template {
	t.Helper()
	tmpl, err := parser.ParseTemplate(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	compiled, err := Compile(tmpl, &eval.CompileContext{Now: time.Unix(0, 0).UTC()})
	if err != nil {
		t.Fatal(err)
	}
	return compiled
}

func TestCompileShapes(t *testing.T) {
	compiled := compileSrc(t, `
{{ @limit := 100 }}
CREATE TABLE a ( x INT {{rownum}}, y INT {{ @limit }} );
{{ for each row of a generate 2 rows of b }}
CREATE TABLE b ( z INT {{subrownum}} );`)

	if len(compiled.Globals) != 1 {
		t.Errorf("globals = %d", len(compiled.Globals))
	}
	if compiled.VariableCount != 1 {
		t.Errorf("variable count = %d", compiled.VariableCount)
	}
	if len(compiled.Tables) != 2 {
		t.Fatalf("tables = %d", len(compiled.Tables))
	}
	if got := len(compiled.Tables[0].Row); got != 2 {
		t.Errorf("table a has %d column plans", got)
	}
	if len(compiled.Tables[0].Derived) != 1 {
		t.Fatalf("table a derived = %+v", compiled.Tables[0].Derived)
	}
	if len(compiled.TopLevel) != 1 || compiled.TopLevel[0] != 0 {
		t.Errorf("top-level tables = %v", compiled.TopLevel)
	}
	if got := compiled.Tables[0].ColumnNames; len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("column names = %v", got)
	}
}

func TestCompileRejectsBadConstants(t *testing.T) {
	tmpl, err := parser.ParseTemplate("CREATE TABLE t ( x INT {{ from_hex('zz') }} );", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Compile(tmpl, &eval.CompileContext{Now: time.Unix(0, 0).UTC()}); err == nil {
		t.Fatal("constant folding should surface the invalid literal")
	}
}

func TestConstantFoldingKeepsSamplersLive(t *testing.T) {
	// A folded sampler would repeat one value forever; two evaluations
	// must be able to differ.
	compiled := compileSrc(t, "CREATE TABLE t ( x INT {{ rand.range(0, 1000000) }} );")
	src, err := rng.New("hc128", rng.Seed{})
	if err != nil {
		t.Fatal(err)
	}
	state := eval.NewState(compiled.VariableCount, src)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		v, err := compiled.Tables[0].Row[0].Eval(state)
		if err != nil {
			t.Fatal(err)
		}
		seen[v.String()] = true
	}
	if len(seen) < 2 {
		t.Fatal("sampler was folded into a constant")
	}
}
