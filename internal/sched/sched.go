// Package sched partitions the row index space into segments, distributes
// them across a worker pool, and drives evaluation and emission for each
// segment. The byte output of segment k depends only on the base seed,
// the template and k, never on worker count or scheduling order.
package sched

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/mmrzaf/dumpgen/internal/compiler"
	"github.com/mmrzaf/dumpgen/internal/emit"
	"github.com/mmrzaf/dumpgen/internal/eval"
	"github.com/mmrzaf/dumpgen/internal/rng"
	"github.com/mmrzaf/dumpgen/internal/sink"
	"github.com/mmrzaf/dumpgen/internal/value"
)

// Options configures one generation run.
type Options struct {
	Template *compiler.Template
	Format   emit.Format
	Sinks    sink.Factory

	// TotalRows is the number of top-level rows to generate.
	TotalRows uint64
	// RowsPerFile caps the top-level rows per output file (segment).
	RowsPerFile uint64
	// RowsPerInsert caps the rows grouped into one INSERT statement.
	RowsPerInsert uint64

	// Workers is the pool size; zero means the logical CPU count.
	Workers int

	Seed      rng.Seed
	Algorithm string

	// Qualified keeps the schema-qualified table name in emitted
	// statements.
	Qualified bool
}

// Stats summarizes a finished run.
type Stats struct {
	Rows     uint64
	Segments int
}

func (o *Options) validate() error {
	if o.TotalRows == 0 {
		return fmt.Errorf("total row count must be positive")
	}
	if o.RowsPerFile == 0 {
		return fmt.Errorf("rows per file must be positive")
	}
	if o.RowsPerInsert == 0 {
		return fmt.Errorf("rows per insert must be positive")
	}
	return nil
}

// Generate runs the whole table group: it writes the schema files first,
// then fans segments out to the worker pool.
func Generate(ctx context.Context, opts Options) (Stats, error) {
	if err := opts.validate(); err != nil {
		return Stats{}, err
	}
	tmpl := opts.Template

	for i := range tmpl.Tables {
		t := &tmpl.Tables[i]
		if err := opts.Sinks.WriteSchema(t.Name.UniqueName(), t.Name.TableName(opts.Qualified), t.Content); err != nil {
			return Stats{}, err
		}
	}

	segments := int((opts.TotalRows + opts.RowsPerFile - 1) / opts.RowsPerFile)
	digits := len(fmt.Sprint(segments))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > segments {
		workers = segments
	}

	var (
		aborted  atomic.Bool
		rowCount atomic.Uint64
		firstErr error
		errOnce  sync.Once
		wg       sync.WaitGroup
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
		aborted.Store(true)
	}
	stop := context.AfterFunc(ctx, func() {
		fail(ctx.Err())
	})
	defer stop()

	jobs := make(chan int, segments)
	for seg := 0; seg < segments; seg++ {
		jobs <- seg
	}
	close(jobs)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seg := range jobs {
				if aborted.Load() {
					return
				}
				rows, err := runSegment(&opts, seg, digits, &aborted)
				rowCount.Add(rows)
				if err != nil {
					fail(fmt.Errorf("segment %d: %w", seg+1, err))
					return
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return Stats{Rows: rowCount.Load(), Segments: segments}, firstErr
	}
	return Stats{Rows: rowCount.Load(), Segments: segments}, nil
}

// tableWriter is the per-segment output state of one table.
type tableWriter struct {
	table   *compiler.Table
	out     sink.Sink
	name    string
	buf    []byte
	inStmt uint64
}

// runSegment generates one contiguous range of top-level rows. The PRNG
// is forked from the base seed purely by segment index, so segments are
// reproducible in isolation.
func runSegment(opts *Options, seg, digits int, aborted *atomic.Bool) (uint64, error) {
	tmpl := opts.Template
	first := uint64(seg)*opts.RowsPerFile + 1
	last := first + opts.RowsPerFile - 1
	if last > opts.TotalRows {
		last = opts.TotalRows
	}

	src, err := rng.New(opts.Algorithm, rng.DeriveSeed(opts.Seed, uint64(seg)))
	if err != nil {
		return 0, err
	}
	state := eval.NewState(tmpl.VariableCount, src)

	// The global init block repopulates the slot vector at the start of
	// every output file.
	for _, g := range tmpl.Globals {
		if _, err := g.Eval(state); err != nil {
			return 0, err
		}
	}

	writers := make([]*tableWriter, len(tmpl.Tables))
	for i := range tmpl.Tables {
		t := &tmpl.Tables[i]
		out, err := opts.Sinks.Open(t.Name.UniqueName(), seg+1, digits, opts.Format.Extension())
		if err != nil {
			return 0, err
		}
		w := &tableWriter{
			table: t,
			out:   out,
			name:  t.Name.TableName(opts.Qualified),
		}
		w.buf = opts.Format.WriteFileHeader(w.buf[:0], w.name, t.ColumnNames)
		if len(w.buf) > 0 {
			if _, err := out.Write(w.buf); err != nil {
				return 0, err
			}
		}
		writers[i] = w
	}

	var rows uint64
	var runErr error
	for r := first; r <= last; r++ {
		if aborted.Load() {
			break
		}
		state.RowNum = r
		state.SubRowNum = 1
		for _, ti := range tmpl.TopLevel {
			if err := writeOneRow(opts, writers, ti, state); err != nil {
				runErr = err
				break
			}
		}
		if runErr != nil {
			break
		}
		rows++
	}

	for _, w := range writers {
		if err := w.finish(opts); err != nil && runErr == nil {
			runErr = err
		}
		if err := w.out.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}
	return rows, runErr
}

// writeOneRow emits one row of the given table and then, depth-first in
// declaration order, the rows of its derived tables. Each derivation
// count is evaluated against the parent row's slot-vector snapshot, and
// derived-row mutations never leak into the next parent row.
func writeOneRow(opts *Options, writers []*tableWriter, index int, state *eval.State) error {
	w := writers[index]
	if err := w.writeValues(opts, state); err != nil {
		return err
	}

	if len(w.table.Derived) == 0 {
		return nil
	}
	snapshot := append([]value.Value(nil), state.Vars...)
	for _, d := range w.table.Derived {
		countValue, err := d.Count.Eval(state)
		if err != nil {
			return err
		}
		count, err := rowCountOf(countValue)
		if err != nil {
			return err
		}
		for sub := uint64(1); sub <= count; sub++ {
			state.SubRowNum = sub
			if err := writeOneRow(opts, writers, d.ChildIndex, state); err != nil {
				return err
			}
		}
		copy(state.Vars, snapshot)
	}
	return nil
}

func (w *tableWriter) writeValues(opts *Options, state *eval.State) error {
	w.buf = w.buf[:0]
	if w.inStmt == 0 {
		w.buf = opts.Format.WriteStatementHeader(w.buf, w.name, w.table.ColumnNames)
	} else {
		w.buf = opts.Format.WriteRowSeparator(w.buf)
	}
	for i, col := range w.table.Row {
		v, err := col.Eval(state)
		if err != nil {
			return err
		}
		if i != 0 {
			w.buf = opts.Format.WriteValueSeparator(w.buf)
		}
		w.buf = opts.Format.WriteValue(w.buf, v)
	}
	w.inStmt++
	if w.inStmt >= opts.RowsPerInsert {
		w.buf = opts.Format.WriteTrailer(w.buf)
		w.inStmt = 0
		if _, err := w.out.Write(w.buf); err != nil {
			return err
		}
		return w.out.EndStatement()
	}
	_, err := w.out.Write(w.buf)
	return err
}

// finish closes a trailing partial statement.
func (w *tableWriter) finish(opts *Options) error {
	if w.inStmt == 0 {
		return nil
	}
	w.buf = opts.Format.WriteTrailer(w.buf[:0])
	w.inStmt = 0
	if _, err := w.out.Write(w.buf); err != nil {
		return err
	}
	return w.out.EndStatement()
}

// rowCountOf converts a derivation-count value to an unsigned row count.
func rowCountOf(v value.Value) (uint64, error) {
	n, ok := v.Number()
	if !ok {
		return 0, fmt.Errorf("derived row count %s is not a number", v)
	}
	u, ok := n.Uint64()
	if !ok {
		return 0, fmt.Errorf("derived row count %s is out of range", v)
	}
	return u, nil
}
