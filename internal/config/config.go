// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Guliveer/sadfjson/internal/buffer"
	"github.com/Guliveer/sadfjson/internal/collector"
	"github.com/Guliveer/sadfjson/internal/export"
)

// Config holds all converter configuration.
type Config struct {
	Collector CollectorConfig `yaml:"collector"`
	Spool     SpoolConfig     `yaml:"spool"`
	Logging   LoggingConfig   `yaml:"logging"`
	Export    ExportConfig    `yaml:"export"`
}

// CollectorConfig holds the sadf invocation settings.
type CollectorConfig struct {
	Program    string   `yaml:"program"`
	Interval   int      `yaml:"interval"`
	Categories []string `yaml:"categories"`
}

// SpoolConfig controls the buffer collector output is captured into.
type SpoolConfig struct {
	MaxMemoryKB int    `yaml:"max_memory_kb"`
	Dir         string `yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ExportConfig holds the default export format.
type ExportConfig struct {
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	names := make([]string, 0, len(collector.DefaultCategories()))
	for _, c := range collector.DefaultCategories() {
		names = append(names, c.String())
	}
	return &Config{
		Collector: CollectorConfig{
			Program:    collector.DefaultProgram,
			Interval:   collector.DefaultInterval,
			Categories: names,
		},
		Spool: SpoolConfig{
			MaxMemoryKB: buffer.DefaultMaxMemory >> 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Export: ExportConfig{
			Format: "csv",
		},
	}
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set" and skipped.
type CLIOverrides struct {
	Program  string
	Interval int
	LogLevel string
	Format   string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value → use that path ("" means no external file)
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cli.Program != "" {
		cfg.Collector.Program = cli.Program
	}
	if cli.Interval != 0 {
		cfg.Collector.Interval = cli.Interval
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.Format != "" {
		cfg.Export.Format = cli.Format
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func applyEnvOverrides(cfg *Config) error {
	if program := os.Getenv("SADFJSON_PROGRAM"); program != "" {
		cfg.Collector.Program = program
	}
	if interval := os.Getenv("SADFJSON_INTERVAL"); interval != "" {
		n, err := strconv.Atoi(interval)
		if err != nil {
			return fmt.Errorf("invalid SADFJSON_INTERVAL %q: %w", interval, err)
		}
		cfg.Collector.Interval = n
	}
	if level := os.Getenv("SADFJSON_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return nil
}

// CollectorOptions converts the collector section into invoker options.
func (c *Config) CollectorOptions() (collector.Options, error) {
	cats, err := collector.ParseCategories(c.Collector.Categories)
	if err != nil {
		return collector.Options{}, err
	}
	return collector.Options{Program: c.Collector.Program, Categories: cats}, nil
}

// SpoolOptions converts the spool section into buffer options.
func (c *Config) SpoolOptions() buffer.Options {
	return buffer.Options{
		Dir:       c.Spool.Dir,
		MaxMemory: int64(c.Spool.MaxMemoryKB) << 10,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Collector.Program) == "" {
		return fmt.Errorf("collector program is required")
	}
	if c.Collector.Interval < 1 {
		return fmt.Errorf("collector interval must be at least 1 second (got %d)", c.Collector.Interval)
	}
	if len(c.Collector.Categories) == 0 {
		return fmt.Errorf("at least one collector category is required")
	}
	if _, err := collector.ParseCategories(c.Collector.Categories); err != nil {
		return err
	}
	if c.Spool.MaxMemoryKB < 0 {
		return fmt.Errorf("spool max_memory_kb must not be negative")
	}
	if c.Export.Format != "" {
		if _, ok := export.Lookup(c.Export.Format); !ok {
			return fmt.Errorf("unknown export format %q (want one of %s)",
				c.Export.Format, strings.Join(export.Names(), ", "))
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}
