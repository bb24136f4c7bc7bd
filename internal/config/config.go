package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input    InputConfig    `yaml:"input" mapstructure:"input"`
	Schema   SchemaConfig   `yaml:"schema" mapstructure:"schema"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Load     LoadConfig     `yaml:"load" mapstructure:"load"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the document batch.
type InputConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`     // "-" reads stdin
	Format string `yaml:"format" mapstructure:"format"` // json, yaml; empty detects from extension
}

// SchemaConfig points at the reference schema. An empty path plans columns
// from observed rows.
type SchemaConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
	// Datasets restricts schema planning to these datasets; empty means all.
	Datasets []string `yaml:"datasets" mapstructure:"datasets"`
}

// OutputConfig configures file and database sinks.
type OutputConfig struct {
	Dir       string   `yaml:"dir" mapstructure:"dir"`
	Formats   []string `yaml:"formats" mapstructure:"formats"` // csv, xlsx, postgres, sqlite
	PerRunDir bool     `yaml:"per_run_dir" mapstructure:"per_run_dir"`
}

// PipelineConfig tunes extraction.
type PipelineConfig struct {
	StrictKeys bool `yaml:"strict_keys" mapstructure:"strict_keys"`
	Workers    int  `yaml:"workers" mapstructure:"workers"`
}

// LoadConfig configures relational loads.
type LoadConfig struct {
	DatabaseURL   string  `yaml:"database_url" mapstructure:"database_url"`
	Schema        string  `yaml:"schema" mapstructure:"schema"`
	SQLitePath    string  `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	BatchSize     int     `yaml:"batch_size" mapstructure:"batch_size"`
	BatchesPerSec float64 `yaml:"batches_per_sec" mapstructure:"batches_per_sec"`
	MaxConns      int32   `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns      int32   `yaml:"min_conns" mapstructure:"min_conns"`
	RecordLoads   bool    `yaml:"record_loads" mapstructure:"record_loads"`
	RetryAttempts int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// MetricsConfig configures the run metrics export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Output formats.
const (
	FormatCSV      = "csv"
	FormatXLSX     = "xlsx"
	FormatPostgres = "postgres"
	FormatSQLite   = "sqlite"
)

var knownFormats = []string{FormatCSV, FormatXLSX, FormatPostgres, FormatSQLite}

// HasFormat reports whether f is among the configured output formats.
func (o OutputConfig) HasFormat(f string) bool {
	return slices.Contains(o.Formats, f)
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PARTYLOAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.path", "-")
	v.SetDefault("input.format", "")
	v.SetDefault("schema.path", "")
	v.SetDefault("schema.datasets", []string{})
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.formats", []string{FormatCSV})
	v.SetDefault("output.per_run_dir", false)
	v.SetDefault("pipeline.strict_keys", false)
	v.SetDefault("pipeline.workers", 1)
	v.SetDefault("load.database_url", "")
	v.SetDefault("load.schema", "party_data")
	v.SetDefault("load.sqlite_path", "partyload.db")
	v.SetDefault("load.batch_size", 5000)
	v.SetDefault("load.batches_per_sec", 0)
	v.SetDefault("load.max_conns", 4)
	v.SetDefault("load.min_conns", 1)
	v.SetDefault("load.record_loads", true)
	v.SetDefault("load.retry_attempts", 3)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Modes: "flatten", "columns",
// "db" (migrate and runs).
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "flatten":
		if len(c.Output.Formats) == 0 {
			errs = append(errs, "output.formats must name at least one format")
		}
		for _, f := range c.Output.Formats {
			if !slices.Contains(knownFormats, f) {
				errs = append(errs, fmt.Sprintf("output.formats: unknown format %q", f))
			}
		}
		if (c.Output.HasFormat(FormatCSV) || c.Output.HasFormat(FormatXLSX)) && c.Output.Dir == "" {
			errs = append(errs, "output.dir is required for file formats")
		}
		if c.Output.HasFormat(FormatPostgres) && c.Load.DatabaseURL == "" {
			errs = append(errs, "load.database_url is required for the postgres format")
		}
		if c.Output.HasFormat(FormatSQLite) && c.Load.SQLitePath == "" {
			errs = append(errs, "load.sqlite_path is required for the sqlite format")
		}
		if c.Load.BatchesPerSec < 0 {
			errs = append(errs, "load.batches_per_sec must be >= 0")
		}
		errs = append(errs, c.validatePipeline()...)
	case "columns":
		errs = append(errs, c.validatePipeline()...)
	case "db":
		if c.Load.DatabaseURL == "" {
			errs = append(errs, "load.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validatePipeline() []string {
	var errs []string
	if c.Pipeline.Workers < 1 || c.Pipeline.Workers > 64 {
		errs = append(errs, "pipeline.workers must be between 1 and 64")
	}
	if c.Input.Path == "" {
		errs = append(errs, "input.path is required")
	}
	switch strings.ToLower(c.Input.Format) {
	case "", "json", "yaml", "yml":
	default:
		errs = append(errs, fmt.Sprintf("input.format: unknown format %q", c.Input.Format))
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
