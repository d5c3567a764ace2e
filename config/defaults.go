// Package config provides configuration defaults and utilities
// for the quakelens application.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml.
package config

// =============================================================================
// Engine Defaults
// =============================================================================

const (
	// CompletenessMagnitude is the default Gutenberg-Richter catalog
	// completeness threshold. Buckets below it are excluded from the
	// b-value regression.
	// Override via config: engine.completeness_magnitude
	CompletenessMagnitude = 2.0

	// RefitInterval is how many ingested events pass between
	// incremental b-value refits. A full recompute always refits.
	// Override via config: engine.refit_interval
	RefitInterval = 100
)

// =============================================================================
// Retention Defaults
// =============================================================================

const (
	// RetentionMaxEvents caps the retained catalog size. 0 disables
	// the count limit.
	// Override via config: retention.max_events
	RetentionMaxEvents = 100000

	// RetentionMaxAgeHours drops events older than this many hours.
	// 0 disables the age limit.
	// Override via config: retention.max_age_hours
	RetentionMaxAgeHours = 0

	// RetentionCheckIntervalSec is how often the daemon applies the
	// retention policy.
	// Override via config: retention.check_interval_sec
	RetentionCheckIntervalSec = 300
)

// =============================================================================
// Snapshot Defaults
// =============================================================================

const (
	// SnapshotDir is where Parquet snapshots are written.
	// Override via config: snapshot.dir
	SnapshotDir = "./snapshots"

	// SnapshotCompression is the Parquet codec for snapshots.
	// Override via config: snapshot.compression
	SnapshotCompression = "zstd"
)

// =============================================================================
// Query Defaults
// =============================================================================

const (
	// QueryMemoryLimit caps DuckDB memory usage.
	// Override via config: query.memory_limit
	QueryMemoryLimit = "512MB"

	// QueryMaxRows truncates SQL result sets.
	// Override via config: query.max_rows
	QueryMaxRows = 10000
)

// =============================================================================
// Logging Defaults
// =============================================================================

const (
	// LogLevel is the default log level.
	// Override via config: logging.level
	LogLevel = "info"
)
