package main

import (
	"context"
	cryptorand "crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mmrzaf/dumpgen/internal/compiler"
	"github.com/mmrzaf/dumpgen/internal/config"
	"github.com/mmrzaf/dumpgen/internal/emit"
	"github.com/mmrzaf/dumpgen/internal/eval"
	"github.com/mmrzaf/dumpgen/internal/logging"
	"github.com/mmrzaf/dumpgen/internal/parser"
	"github.com/mmrzaf/dumpgen/internal/rng"
	"github.com/mmrzaf/dumpgen/internal/sched"
	"github.com/mmrzaf/dumpgen/internal/sink"
	"github.com/spf13/cobra"
)

var logLevel string

func main() {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "dumpgen",
		Short: "Generate reproducible randomized SQL/CSV dumps from a template",
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level")

	rootCmd.AddCommand(generateCmd(cfg))
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(functionsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type generateFlags struct {
	template        string
	outDir          string
	totalRows       uint64
	rowsPerFile     uint64
	rowsPerInsert   uint64
	seed            string
	jobs            int
	rngName         string
	format          string
	compress        string
	qualified       bool
	tableName       string
	escapeBackslash bool
	headers         bool
	csvNull         string
	sinkKind        string
	dsn             string
	init            []string
	now             string
	profile         string
}

func (f *generateFlags) applyProfile(p *config.Profile) {
	if f.template == "" {
		f.template = p.Template
	}
	if p.OutDir != "" {
		f.outDir = p.OutDir
	}
	if f.totalRows == 0 {
		f.totalRows = p.TotalRows
	}
	if p.RowsPerFile != 0 {
		f.rowsPerFile = p.RowsPerFile
	}
	if p.RowsPerInsert != 0 {
		f.rowsPerInsert = p.RowsPerInsert
	}
	if f.seed == "" {
		f.seed = p.Seed
	}
	if p.Jobs != 0 {
		f.jobs = p.Jobs
	}
	if p.RNG != "" {
		f.rngName = p.RNG
	}
	if p.Format != "" {
		f.format = p.Format
	}
	if p.Compress != "" {
		f.compress = p.Compress
	}
	if p.Qualified {
		f.qualified = true
	}
	if p.TableName != "" {
		f.tableName = p.TableName
	}
	if p.EscapeBackslash {
		f.escapeBackslash = true
	}
	if p.Headers {
		f.headers = true
	}
	if p.CSVNull != "" {
		f.csvNull = p.CSVNull
	}
	if p.Sink != "" {
		f.sinkKind = p.Sink
	}
	if p.DSN != "" {
		f.dsn = p.DSN
	}
	f.init = append(p.Init, f.init...)
}

func generateCmd(cfg *config.Config) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate data files from a template",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger(logLevel)
			if flags.profile != "" {
				p, err := config.LoadProfile(flags.profile)
				if err != nil {
					return err
				}
				flags.applyProfile(p)
			}
			if flags.template == "" {
				return fmt.Errorf("a template is required (use --template or --profile)")
			}
			if flags.totalRows == 0 {
				return fmt.Errorf("a positive --total-rows is required")
			}
			if flags.rowsPerFile == 0 {
				flags.rowsPerFile = flags.totalRows
			}
			return runGenerate(logger, &flags)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&flags.template, "template", "i", "", "Template file")
	fs.StringVarP(&flags.outDir, "out-dir", "o", cfg.OutDir, "Output directory")
	fs.Uint64VarP(&flags.totalRows, "total-rows", "N", 0, "Total number of top-level rows")
	fs.Uint64VarP(&flags.rowsPerFile, "rows-per-file", "R", 0, "Rows per output file (default: all)")
	fs.Uint64VarP(&flags.rowsPerInsert, "rows-per-insert", "r", 1, "Rows per INSERT statement")
	fs.StringVarP(&flags.seed, "seed", "s", "", "Seed as 64 hex digits (default: random)")
	fs.IntVarP(&flags.jobs, "jobs", "j", 0, "Worker count (default: logical CPUs)")
	fs.StringVar(&flags.rngName, "rng", cfg.RNG, fmt.Sprintf("RNG algorithm %v", rng.Algorithms()))
	fs.StringVarP(&flags.format, "format", "f", cfg.Format, "Output format (sql|csv)")
	fs.StringVar(&flags.compress, "compress", "", "Compress output files (gzip|zstd)")
	fs.BoolVar(&flags.qualified, "qualified", false, "Keep qualified table names in the output")
	fs.StringVar(&flags.tableName, "table-name", "", "Override the table name")
	fs.BoolVar(&flags.escapeBackslash, "escape-backslash", false, "Double backslashes in emitted strings")
	fs.BoolVar(&flags.headers, "headers", false, "Emit column headers")
	fs.StringVar(&flags.csvNull, "csv-null", "", "Text emitted for NULL in CSV output")
	fs.StringVar(&flags.sinkKind, "sink", "file", "Output sink (file|postgres|sqlite)")
	fs.StringVar(&flags.dsn, "dsn", "", "DSN or path for database sinks")
	fs.StringArrayVar(&flags.init, "init", nil, "Extra global init expression")
	fs.StringVar(&flags.now, "now", "", "Fix current_timestamp (YYYY-MM-DD hh:mm:ss, UTC)")
	fs.StringVar(&flags.profile, "profile", "", "Load generation parameters from a YAML profile")
	return cmd
}

func runGenerate(logger *logging.Logger, flags *generateFlags) error {
	source, err := os.ReadFile(flags.template)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	tmpl, err := parser.ParseTemplate(string(source), flags.init)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if flags.tableName != "" {
		if len(tmpl.Tables) > 1 {
			return fmt.Errorf("cannot use --table-name when template contains multiple tables")
		}
		name, err := parser.ParseQName(flags.tableName)
		if err != nil {
			return fmt.Errorf("invalid --table-name: %w", err)
		}
		tmpl.Tables[0].Name = name
	}

	now := time.Now().UTC()
	if flags.now != "" {
		now, err = time.ParseInLocation("2006-01-02 15:04:05", flags.now, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid --now value: %w", err)
		}
	}
	compiled, err := compiler.Compile(tmpl, &eval.CompileContext{Now: now})
	if err != nil {
		return err
	}

	var seed rng.Seed
	if flags.seed == "" {
		if _, err := cryptorand.Read(seed[:]); err != nil {
			return fmt.Errorf("failed to generate a seed: %w", err)
		}
	} else if seed, err = rng.SeedFromHex(flags.seed); err != nil {
		return err
	}
	logger.Info("using seed: %s", seed)

	format, err := emit.New(flags.format, flags.escapeBackslash, flags.headers, flags.csvNull)
	if err != nil {
		return err
	}

	var sinks sink.Factory
	var fileSinks *sink.FileFactory
	switch flags.sinkKind {
	case "file":
		compress, err := sink.ParseCompression(flags.compress)
		if err != nil {
			return err
		}
		fileSinks, err = sink.NewFileFactory(flags.outDir, compress)
		if err != nil {
			return err
		}
		sinks = fileSinks
	case "postgres":
		if flags.format != "sql" {
			return fmt.Errorf("the postgres sink requires --format sql")
		}
		db := sink.NewPostgresFactory(flags.dsn)
		if err := db.Connect(); err != nil {
			return err
		}
		sinks = db
	case "sqlite":
		if flags.format != "sql" {
			return fmt.Errorf("the sqlite sink requires --format sql")
		}
		db := sink.NewSQLiteFactory(flags.dsn)
		if err := db.Connect(); err != nil {
			return err
		}
		sinks = db
	default:
		return fmt.Errorf("unsupported sink %q", flags.sinkKind)
	}
	defer sinks.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	stats, err := sched.Generate(ctx, sched.Options{
		Template:      compiled,
		Format:        format,
		Sinks:         sinks,
		TotalRows:     flags.totalRows,
		RowsPerFile:   flags.rowsPerFile,
		RowsPerInsert: flags.rowsPerInsert,
		Workers:       flags.jobs,
		Seed:          seed,
		Algorithm:     flags.rngName,
		Qualified:     flags.qualified,
	})
	if err != nil {
		return err
	}

	elapsed := time.Since(started)
	if fileSinks != nil {
		logger.Info("wrote %s rows (%s) across %d segment(s) in %s",
			humanize.Comma(int64(stats.Rows)),
			humanize.Bytes(fileSinks.BytesWritten.Load()),
			stats.Segments,
			elapsed.Round(time.Millisecond))
	} else {
		logger.Info("inserted %s rows across %d segment(s) in %s",
			humanize.Comma(int64(stats.Rows)), stats.Segments, elapsed.Round(time.Millisecond))
	}
	return nil
}

func validateCmd() *cobra.Command {
	var template string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse and compile a template without generating data",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(template)
			if err != nil {
				return fmt.Errorf("failed to read template: %w", err)
			}
			tmpl, err := parser.ParseTemplate(string(source), nil)
			if err != nil {
				return err
			}
			if _, err := compiler.Compile(tmpl, &eval.CompileContext{Now: time.Now().UTC()}); err != nil {
				return err
			}
			fmt.Printf("template is valid: %d table(s), %d variable slot(s)\n",
				len(tmpl.Tables), tmpl.VariableCount)
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "i", "", "Template file")
	cmd.MarkFlagRequired("template")
	return cmd
}

func functionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the built-in expression functions",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range parser.FunctionNames() {
				fmt.Println(name)
			}
		},
	}
}
