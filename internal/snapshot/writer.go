// Package snapshot persists the event table as Parquet files, for
// operator export and for SQL analysis through the query service.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/errors"
	"github.com/quakelens/quakelens/internal/event"
)

// Options configures the Parquet writer.
type Options struct {
	// Compression algorithm
	Compression CompressionType
}

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

// DefaultOptions returns default Parquet options.
func DefaultOptions() Options {
	return Options{Compression: CompressionZstd}
}

// ParseCompressionType parses a compression type string.
func ParseCompressionType(s string) CompressionType {
	switch s {
	case "snappy":
		return CompressionSnappy
	case "zstd":
		return CompressionZstd
	case "lz4":
		return CompressionLZ4
	case "gzip":
		return CompressionGzip
	case "none", "":
		return CompressionNone
	default:
		return CompressionZstd
	}
}

// getCompression returns the parquet-go compression codec.
func getCompression(ct CompressionType) compress.Codec {
	switch ct {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		return &parquet.Zstd
	case CompressionLZ4:
		return &parquet.Lz4Raw
	case CompressionGzip:
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

// EventRow represents an event in Parquet format. Column names match
// the feed wire names so the same vocabulary works in SQL.
type EventRow struct {
	ID            string  `parquet:"unid,zstd"`
	TimeNs        int64   `parquet:"time"`
	LastUpdateNs  int64   `parquet:"lastupdate"`
	Latitude      float64 `parquet:"lat"`
	Longitude     float64 `parquet:"lon"`
	Depth         float64 `parquet:"depth"`
	Magnitude     float64 `parquet:"mag"`
	MagnitudeType string  `parquet:"magtype,zstd"`
	EventType     string  `parquet:"evtype,zstd"`
	FlynnRegion   string  `parquet:"flynn_region,zstd"`
	SourceID      string  `parquet:"source_id,zstd"`
	SourceCatalog string  `parquet:"source_catalog,zstd"`
	Author        string  `parquet:"auth,zstd"`
}

// EventToRow converts an Event to an EventRow.
func EventToRow(ev *event.Event) EventRow {
	return EventRow{
		ID:            ev.ID,
		TimeNs:        ev.Time.UTC().UnixNano(),
		LastUpdateNs:  ev.LastUpdate.UTC().UnixNano(),
		Latitude:      ev.Latitude,
		Longitude:     ev.Longitude,
		Depth:         ev.Depth,
		Magnitude:     ev.Magnitude,
		MagnitudeType: ev.MagnitudeType,
		EventType:     ev.EventType,
		FlynnRegion:   ev.FlynnRegion,
		SourceID:      ev.SourceID,
		SourceCatalog: ev.SourceCatalog,
		Author:        ev.Author,
	}
}

// RowToEvent converts an EventRow to an Event.
func RowToEvent(r *EventRow) event.Event {
	return event.Event{
		ID:            r.ID,
		Time:          nsToTime(r.TimeNs),
		LastUpdate:    nsToTime(r.LastUpdateNs),
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		Depth:         r.Depth,
		Magnitude:     r.Magnitude,
		MagnitudeType: r.MagnitudeType,
		EventType:     r.EventType,
		FlynnRegion:   r.FlynnRegion,
		SourceID:      r.SourceID,
		SourceCatalog: r.SourceCatalog,
		Author:        r.Author,
	}
}

// EventWriter writes events to a Parquet file.
type EventWriter struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	writer   *parquet.GenericWriter[EventRow]
	rowCount int64
	closed   bool
}

// NewEventWriter creates a new event Parquet writer.
func NewEventWriter(path string, opts Options) (*EventWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	writerOpts := []parquet.WriterOption{
		parquet.Compression(getCompression(opts.Compression)),
	}
	writer := parquet.NewGenericWriter[EventRow](f, writerOpts...)

	return &EventWriter{
		path:   path,
		file:   f,
		writer: writer,
	}, nil
}

// Write writes events to the Parquet file.
func (w *EventWriter) Write(events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.ErrWriterClosed
	}

	rows := make([]EventRow, len(events))
	for i := range events {
		rows[i] = EventToRow(&events[i])
	}

	n, err := w.writer.Write(rows)
	if err != nil {
		return fmt.Errorf("write rows: %w", err)
	}

	w.rowCount += int64(n)
	return nil
}

// WriteTable writes all rows of a table.
func (w *EventWriter) WriteTable(tab *table.Table) error {
	return w.Write(tab.Events())
}

// Close closes the writer.
func (w *EventWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close writer: %w", err)
	}
	return w.file.Close()
}

// RowCount returns the number of rows written.
func (w *EventWriter) RowCount() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rowCount
}

// Path returns the file path.
func (w *EventWriter) Path() string {
	return w.path
}

// Export writes the whole table to path in one shot.
func Export(path string, tab *table.Table, opts Options) error {
	w, err := NewEventWriter(path, opts)
	if err != nil {
		return err
	}
	if err := w.WriteTable(tab); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
