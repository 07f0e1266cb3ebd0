package sched

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmrzaf/dumpgen/internal/compiler"
	"github.com/mmrzaf/dumpgen/internal/emit"
	"github.com/mmrzaf/dumpgen/internal/eval"
	"github.com/mmrzaf/dumpgen/internal/parser"
	"github.com/mmrzaf/dumpgen/internal/rng"
	"github.com/mmrzaf/dumpgen/internal/sink"
)

// memFactory collects output in memory, keyed by table and segment.
type memFactory struct {
	mu      sync.Mutex
	files   map[string]*bytes.Buffer
	schemas map[string]string
}

func newMemFactory() *memFactory {
	return &memFactory{
		files:   make(map[string]*bytes.Buffer),
		schemas: make(map[string]string),
	}
}

func (f *memFactory) Open(uniqueName string, segment, digits int, ext string) (sink.Sink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s.%0*d.%s", uniqueName, digits, segment, ext)
	buf := &bytes.Buffer{}
	f.files[key] = buf
	return &memSink{buf: buf, mu: &f.mu}, nil
}

func (f *memFactory) WriteSchema(uniqueName, tableName, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemas[uniqueName] = fmt.Sprintf("CREATE TABLE %s %s;\n", tableName, content)
	return nil
}

func (f *memFactory) Close() error { return nil }

// concatenated joins one table's files in segment order.
func (f *memFactory) concatenated(uniqueName string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.files {
		if strings.HasPrefix(k, uniqueName+".") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.Write(f.files[k].Bytes())
	}
	return sb.String()
}

type memSink struct {
	buf *bytes.Buffer
	mu  *sync.Mutex
}

func (s *memSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *memSink) EndStatement() error { return nil }
func (s *memSink) Close() error        { return nil }

var testEpoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

func generate(t *testing.T, src string, opts Options) *memFactory {
	t.Helper()
	tmpl, err := parser.ParseTemplate(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	compiled, err := compiler.Compile(tmpl, &eval.CompileContext{Now: testEpoch})
	if err != nil {
		t.Fatal(err)
	}
	sinks := newMemFactory()
	opts.Template = compiled
	opts.Sinks = sinks
	if opts.Format == nil {
		opts.Format = &emit.SQLFormat{}
	}
	if opts.Algorithm == "" {
		opts.Algorithm = "hc128"
	}
	if _, err := Generate(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	return sinks
}

func TestRowNumScenario(t *testing.T) {
	sinks := generate(t, "CREATE TABLE t ( x INT {{rownum}} );", Options{
		TotalRows:     3,
		RowsPerFile:   3,
		RowsPerInsert: 3,
		Workers:       1,
	})
	want := "INSERT INTO t VALUES\n(1),\n(2),\n(3);\n"
	if got := sinks.concatenated("t"); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestVariableChainScenario(t *testing.T) {
	src := "{{@prev:=0}} CREATE TABLE _(p INT {{@prev}}, c INT {{@prev:=rownum}});"
	sinks := generate(t, src, Options{
		TotalRows:     3,
		RowsPerFile:   3,
		RowsPerInsert: 3,
		Workers:       1,
	})
	want := "INSERT INTO _ VALUES\n(0, 1),\n(1, 2),\n(2, 3);\n"
	if got := sinks.concatenated("_"); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestDerivedScenario(t *testing.T) {
	src := `
CREATE TABLE parent ( id INT {{rownum}} );
{{ for each row of parent generate 3 rows of child }}
CREATE TABLE child ( pid INT {{rownum}}, n INT {{subrownum}} );`
	sinks := generate(t, src, Options{
		TotalRows:     2,
		RowsPerFile:   2,
		RowsPerInsert: 100,
		Workers:       1,
	})
	wantParent := "INSERT INTO parent VALUES\n(1),\n(2);\n"
	if got := sinks.concatenated("parent"); got != wantParent {
		t.Errorf("parent = %q", got)
	}
	wantChild := "INSERT INTO child VALUES\n(1, 1),\n(1, 2),\n(1, 3),\n(2, 1),\n(2, 2),\n(2, 3);\n"
	if got := sinks.concatenated("child"); got != wantChild {
		t.Errorf("child = %q, want %q", got, wantChild)
	}
}

func TestDerivedCountFromParentState(t *testing.T) {
	// The row count runs in the parent's context, and derived-row
	// mutations never leak into the next parent row.
	src := `
CREATE TABLE p ( k INT {{@k := rownum}} );
{{ for each row of p generate @k rows of c }}
CREATE TABLE c ( n INT {{@k := @k * 10; subrownum}} );`
	sinks := generate(t, src, Options{
		TotalRows:     3,
		RowsPerFile:   3,
		RowsPerInsert: 100,
		Workers:       1,
	})
	wantChild := "INSERT INTO c VALUES\n(1),\n(1),\n(2),\n(1),\n(2),\n(3);\n"
	if got := sinks.concatenated("c"); got != wantChild {
		t.Errorf("child = %q, want %q", got, wantChild)
	}
}

func TestInsertGrouping(t *testing.T) {
	sinks := generate(t, "CREATE TABLE t ( x INT {{rownum}} );", Options{
		TotalRows:     5,
		RowsPerFile:   5,
		RowsPerInsert: 2,
		Workers:       1,
	})
	want := "INSERT INTO t VALUES\n(1),\n(2);\nINSERT INTO t VALUES\n(3),\n(4);\nINSERT INTO t VALUES\n(5);\n"
	if got := sinks.concatenated("t"); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRowNumContinuesAcrossSegments(t *testing.T) {
	sinks := generate(t, "CREATE TABLE t ( x INT {{rownum}} );", Options{
		TotalRows:     6,
		RowsPerFile:   2,
		RowsPerInsert: 2,
		Workers:       3,
	})
	want := "INSERT INTO t VALUES\n(1),\n(2);\n" +
		"INSERT INTO t VALUES\n(3),\n(4);\n" +
		"INSERT INTO t VALUES\n(5),\n(6);\n"
	if got := sinks.concatenated("t"); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

const randomTemplate = `
{{ @base := rand.range(0, 1000) }}
CREATE TABLE r (
  a INT {{ rand.range_inclusive(1, 100) + @base }},
  b CHAR(8) {{ rand.regex('[a-f0-9]{8}') }},
  c DOUBLE {{ rand.uniform(0, 1) }}
);`

func randomOpts(workers int) Options {
	var seed rng.Seed
	for i := range seed {
		seed[i] = byte(i * 7)
	}
	return Options{
		TotalRows:     40,
		RowsPerFile:   10,
		RowsPerInsert: 5,
		Workers:       workers,
		Seed:          seed,
	}
}

func TestDeterminismAcrossWorkerCounts(t *testing.T) {
	baseline := generate(t, randomTemplate, randomOpts(1)).concatenated("r")
	if baseline == "" {
		t.Fatal("no output generated")
	}
	for _, workers := range []int{2, 4, 8} {
		got := generate(t, randomTemplate, randomOpts(workers)).concatenated("r")
		if got != baseline {
			t.Fatalf("output differs with %d workers", workers)
		}
	}
}

func TestSegmentsAreIndependentOfOrder(t *testing.T) {
	// Four segments over one worker are processed in order; with eight
	// workers requested the order is arbitrary. Per-file content must match.
	one := generate(t, randomTemplate, randomOpts(1))
	many := generate(t, randomTemplate, randomOpts(8))
	if len(one.files) != len(many.files) {
		t.Fatalf("file sets differ: %d vs %d", len(one.files), len(many.files))
	}
	for name, buf := range one.files {
		other, ok := many.files[name]
		if !ok {
			t.Fatalf("file %s missing", name)
		}
		if !bytes.Equal(buf.Bytes(), other.Bytes()) {
			t.Fatalf("file %s differs between runs", name)
		}
	}
}

func TestSchemaEmission(t *testing.T) {
	sinks := generate(t, "CREATE TABLE t ( x INT {{rownum}}, y CHAR(3) );", Options{
		TotalRows:     1,
		RowsPerFile:   1,
		RowsPerInsert: 1,
		Workers:       1,
	})
	schema, ok := sinks.schemas["t"]
	if !ok {
		t.Fatal("schema file missing")
	}
	if !strings.Contains(schema, "CREATE TABLE t (") || !strings.Contains(schema, "y CHAR(3)") {
		t.Errorf("schema = %q", schema)
	}
	if strings.Contains(schema, "{{") {
		t.Errorf("schema still holds expression blocks: %q", schema)
	}
}

func TestAbortOnError(t *testing.T) {
	tmpl, err := parser.ParseTemplate(
		"CREATE TABLE t ( x INT {{ CASE WHEN rownum > 5 THEN debug.panic(rownum) ELSE rownum END }} );", nil)
	if err != nil {
		t.Fatal(err)
	}
	compiled, err := compiler.Compile(tmpl, &eval.CompileContext{Now: testEpoch})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Generate(context.Background(), Options{
		Template:      compiled,
		Format:        &emit.SQLFormat{},
		Sinks:         newMemFactory(),
		TotalRows:     100,
		RowsPerFile:   10,
		RowsPerInsert: 10,
		Workers:       4,
		Algorithm:     "hc128",
	})
	if err == nil {
		t.Fatal("expected the run to fail")
	}
	if !strings.Contains(err.Error(), "panic") {
		t.Errorf("error = %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tmpl, _ := parser.ParseTemplate("CREATE TABLE t ( x INT {{rownum}} );", nil)
	compiled, _ := compiler.Compile(tmpl, &eval.CompileContext{Now: testEpoch})
	_, err := Generate(ctx, Options{
		Template:      compiled,
		Format:        &emit.SQLFormat{},
		Sinks:         newMemFactory(),
		TotalRows:     1000,
		RowsPerFile:   10,
		RowsPerInsert: 10,
		Workers:       2,
		Algorithm:     "hc128",
	})
	if err == nil {
		t.Fatal("cancelled context should fail the run")
	}
}
