// Package query provides SQL analysis over exported event snapshots.
//
// It uses an in-memory DuckDB database and its read_parquet table
// function, so operators can run arbitrary SQL against any snapshot the
// engine has exported without a separate database server.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/quakelens/quakelens/internal/errors"
)

// Config configures the query service.
type Config struct {
	// MemoryLimit caps DuckDB memory usage ("512MB"). Empty = no cap.
	MemoryLimit string

	// MaxRows truncates result sets. Zero = unlimited.
	MaxRows int
}

// DefaultConfig returns the default query configuration.
func DefaultConfig() Config {
	return Config{MemoryLimit: "512MB", MaxRows: 10000}
}

// Service runs SQL queries over Parquet event snapshots.
type Service struct {
	mu     sync.RWMutex
	config Config
	db     *sql.DB
	closed bool

	stats Stats
}

// Stats holds query statistics.
type Stats struct {
	QueriesExecuted int64
	RowsReturned    int64
	Errors          int64
}

// RegionRow is one row of the regional analysis query.
type RegionRow struct {
	Region       string
	EventCount   int64
	AvgMagnitude float64
	AvgDepth     float64
}

// New creates a new query service backed by an in-memory DuckDB.
func New(cfg Config) (*Service, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if cfg.MemoryLimit != "" {
		if _, err := db.Exec(fmt.Sprintf("SET memory_limit='%s'", cfg.MemoryLimit)); err != nil {
			db.Close()
			return nil, fmt.Errorf("set memory limit: %w", err)
		}
	}

	return &Service{config: cfg, db: db}, nil
}

// Close closes the query service.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// ExecuteSQL runs an arbitrary SQL statement and returns the rows as
// maps keyed by column name. Result sets are truncated at MaxRows.
func (s *Service) ExecuteSQL(ctx context.Context, query string) ([]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errors.ErrQueryClosed
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.stats.Errors++
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		s.stats.Errors++
		return nil, fmt.Errorf("get columns: %w", err)
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			s.stats.Errors++
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)

		if s.config.MaxRows > 0 && len(results) >= s.config.MaxRows {
			break
		}
	}
	if err := rows.Err(); err != nil {
		s.stats.Errors++
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	s.stats.QueriesExecuted++
	s.stats.RowsReturned += int64(len(results))
	return results, nil
}

// RegionalAnalysis groups a snapshot by Flynn region, returning event
// count and mean magnitude and depth per region, descending by count.
func (s *Service) RegionalAnalysis(ctx context.Context, snapshotPath string, limit int) ([]RegionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errors.ErrQueryClosed
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT flynn_region,
		       COUNT(*) AS event_count,
		       AVG(mag) AS avg_magnitude,
		       AVG(depth) AS avg_depth
		FROM read_parquet(?)
		WHERE flynn_region != ''
		GROUP BY flynn_region
		ORDER BY event_count DESC, flynn_region
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, snapshotPath, limit)
	if err != nil {
		s.stats.Errors++
		return nil, fmt.Errorf("regional analysis: %w", err)
	}
	defer rows.Close()

	var results []RegionRow
	for rows.Next() {
		var r RegionRow
		if err := rows.Scan(&r.Region, &r.EventCount, &r.AvgMagnitude, &r.AvgDepth); err != nil {
			s.stats.Errors++
			return nil, fmt.Errorf("scan region row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		s.stats.Errors++
		return nil, fmt.Errorf("iterate region rows: %w", err)
	}

	s.stats.QueriesExecuted++
	s.stats.RowsReturned += int64(len(results))
	return results, nil
}

// SnapshotCount returns the number of rows in a snapshot file.
func (s *Service) SnapshotCount(ctx context.Context, snapshotPath string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, errors.ErrQueryClosed
	}

	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM read_parquet(?)", snapshotPath).Scan(&n)
	if err != nil {
		s.stats.Errors++
		return 0, fmt.Errorf("count snapshot rows: %w", err)
	}

	s.stats.QueriesExecuted++
	return n, nil
}

// Stats returns a copy of the service statistics.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
