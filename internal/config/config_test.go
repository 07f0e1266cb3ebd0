package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DUMPGEN_OUT_DIR", "DUMPGEN_LOG_LEVEL", "DUMPGEN_RNG", "DUMPGEN_FORMAT"} {
		old, had := os.LookupEnv(key)
		_ = os.Unsetenv(key)
		if had {
			t.Cleanup(func() { _ = os.Setenv(key, old) })
		}
	}
	cfg := Load()
	if cfg.OutDir != "./out" || cfg.LogLevel != "info" || cfg.RNG != "hc128" || cfg.Format != "sql" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DUMPGEN_RNG", "pcg32")
	t.Setenv("DUMPGEN_FORMAT", "csv")
	cfg := Load()
	if cfg.RNG != "pcg32" || cfg.Format != "csv" {
		t.Errorf("env override = %+v", cfg)
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	data := `
template: ./bench.sql
total_rows: 1000000
rows_per_file: 100000
rows_per_insert: 256
format: csv
compress: zstd
rng: chacha12
init:
  - "@scale := 10"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Template != "./bench.sql" || p.TotalRows != 1000000 || p.RowsPerInsert != 256 {
		t.Errorf("profile = %+v", p)
	}
	if p.Compress != "zstd" || p.RNG != "chacha12" || len(p.Init) != 1 {
		t.Errorf("profile = %+v", p)
	}
}

func TestLoadProfileErrors(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file must fail")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProfile(path); err == nil {
		t.Error("malformed yaml must fail")
	}
}
