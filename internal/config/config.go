// Package config loads and validates the quakelens configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	defaults "github.com/quakelens/quakelens/config"
	"github.com/quakelens/quakelens/internal/errors"
)

// Config is the root configuration.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Retention RetentionConfig `yaml:"retention"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Query     QueryConfig     `yaml:"query"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EngineConfig configures the analytics engine.
type EngineConfig struct {
	// CompletenessMagnitude is the Gutenberg-Richter catalog
	// completeness threshold.
	CompletenessMagnitude float64 `yaml:"completeness_magnitude"`

	// RefitInterval is the incremental b-value refit cadence in events.
	RefitInterval int `yaml:"refit_interval"`
}

// RetentionConfig configures the retention policy.
type RetentionConfig struct {
	// MaxEvents keeps at most this many recent events. 0 = unlimited.
	MaxEvents int `yaml:"max_events"`

	// MaxAgeHours drops events older than this many hours. 0 = unlimited.
	MaxAgeHours int `yaml:"max_age_hours"`

	// CheckIntervalSec is how often the daemon applies the policy.
	CheckIntervalSec int `yaml:"check_interval_sec"`
}

// MaxAge returns the age limit as a duration.
func (r RetentionConfig) MaxAge() time.Duration {
	return time.Duration(r.MaxAgeHours) * time.Hour
}

// CheckInterval returns the check interval as a duration.
func (r RetentionConfig) CheckInterval() time.Duration {
	return time.Duration(r.CheckIntervalSec) * time.Second
}

// SnapshotConfig configures Parquet export.
type SnapshotConfig struct {
	// Dir is where snapshots are written.
	Dir string `yaml:"dir"`

	// Compression is the Parquet codec (zstd, snappy, lz4, gzip, none).
	Compression string `yaml:"compression"`
}

// QueryConfig configures the DuckDB query service.
type QueryConfig struct {
	// MemoryLimit caps DuckDB memory ("512MB"). Empty = no cap.
	MemoryLimit string `yaml:"memory_limit"`

	// MaxRows truncates SQL result sets. 0 = unlimited.
	MaxRows int `yaml:"max_rows"`
}

// LoggingConfig configures logging output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON switches output from text to JSON.
	JSON bool `yaml:"json"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			CompletenessMagnitude: defaults.CompletenessMagnitude,
			RefitInterval:         defaults.RefitInterval,
		},
		Retention: RetentionConfig{
			MaxEvents:        defaults.RetentionMaxEvents,
			MaxAgeHours:      defaults.RetentionMaxAgeHours,
			CheckIntervalSec: defaults.RetentionCheckIntervalSec,
		},
		Snapshot: SnapshotConfig{
			Dir:         defaults.SnapshotDir,
			Compression: defaults.SnapshotCompression,
		},
		Query: QueryConfig{
			MemoryLimit: defaults.QueryMemoryLimit,
			MaxRows:     defaults.QueryMaxRows,
		},
		Logging: LoggingConfig{
			Level: defaults.LogLevel,
			JSON:  false,
		},
	}
}

// Load reads a YAML config file, applying defaults for absent fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	v := errors.NewValidationErrors()

	if c.Engine.CompletenessMagnitude < 0 || c.Engine.CompletenessMagnitude > 10 {
		v.AddField("engine.completeness_magnitude", "must be in [0, 10]")
	}
	if c.Engine.RefitInterval < 1 {
		v.AddField("engine.refit_interval", "must be >= 1")
	}
	if c.Retention.MaxEvents < 0 {
		v.AddField("retention.max_events", "must be >= 0")
	}
	if c.Retention.MaxAgeHours < 0 {
		v.AddField("retention.max_age_hours", "must be >= 0")
	}
	if c.Retention.CheckIntervalSec < 0 {
		v.AddField("retention.check_interval_sec", "must be >= 0")
	}
	if c.Query.MaxRows < 0 {
		v.AddField("query.max_rows", "must be >= 0")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		v.AddField("logging.level", "must be one of debug, info, warn, error")
	}

	if v.HasErrors() {
		return errors.Wrap(v.Err(), "invalid configuration")
	}
	return nil
}
