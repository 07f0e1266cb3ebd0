package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the environment-driven defaults of the CLI. Every value
// can be overridden by a flag.
type Config struct {
	OutDir   string
	LogLevel string
	RNG      string
	Format   string
}

// Load reads the DUMPGEN_* environment variables.
func Load() *Config {
	return &Config{
		OutDir:   getEnv("DUMPGEN_OUT_DIR", "./out"),
		LogLevel: getEnv("DUMPGEN_LOG_LEVEL", "info"),
		RNG:      getEnv("DUMPGEN_RNG", "hc128"),
		Format:   getEnv("DUMPGEN_FORMAT", "sql"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Profile is a saved generation run: the template plus every knob the
// generate command accepts, loadable with --profile.
type Profile struct {
	Template        string   `yaml:"template"`
	OutDir          string   `yaml:"out_dir,omitempty"`
	TotalRows       uint64   `yaml:"total_rows"`
	RowsPerFile     uint64   `yaml:"rows_per_file,omitempty"`
	RowsPerInsert   uint64   `yaml:"rows_per_insert,omitempty"`
	Seed            string   `yaml:"seed,omitempty"`
	Jobs            int      `yaml:"jobs,omitempty"`
	RNG             string   `yaml:"rng,omitempty"`
	Format          string   `yaml:"format,omitempty"`
	Compress        string   `yaml:"compress,omitempty"`
	Qualified       bool     `yaml:"qualified,omitempty"`
	TableName       string   `yaml:"table_name,omitempty"`
	EscapeBackslash bool     `yaml:"escape_backslash,omitempty"`
	Headers         bool     `yaml:"headers,omitempty"`
	CSVNull         string   `yaml:"csv_null,omitempty"`
	Sink            string   `yaml:"sink,omitempty"`
	DSN             string   `yaml:"dsn,omitempty"`
	Init            []string `yaml:"init,omitempty"`
}

// LoadProfile parses a YAML profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return &p, nil
}
