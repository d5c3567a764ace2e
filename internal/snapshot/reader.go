package snapshot

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/quakelens/quakelens/internal/event"
)

func nsToTime(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// EventReader reads events from a Parquet file.
type EventReader struct {
	file   *os.File
	reader *parquet.GenericReader[EventRow]
	path   string
}

// NewEventReader creates a new event Parquet reader.
func NewEventReader(path string) (*EventReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size(), parquet.ReadBufferSize(1024*1024))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	reader := parquet.NewGenericReader[EventRow](pf)

	return &EventReader{
		file:   f,
		reader: reader,
		path:   path,
	}, nil
}

// Read reads up to n events from the file.
func (r *EventReader) Read(n int) ([]event.Event, error) {
	rows := make([]EventRow, n)
	count, err := r.reader.Read(rows)
	if err != nil {
		return nil, err
	}

	events := make([]event.Event, count)
	for i := 0; i < count; i++ {
		events[i] = RowToEvent(&rows[i])
	}
	return events, nil
}

// ReadAll reads all events from the file.
func (r *EventReader) ReadAll() ([]event.Event, error) {
	numRows := r.reader.NumRows()
	rows := make([]EventRow, numRows)

	n, err := r.reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, err
	}

	events := make([]event.Event, n)
	for i := 0; i < n; i++ {
		events[i] = RowToEvent(&rows[i])
	}
	return events, nil
}

// NumRows returns the total number of rows in the file.
func (r *EventReader) NumRows() int64 {
	return r.reader.NumRows()
}

// Close closes the reader.
func (r *EventReader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// Path returns the file path.
func (r *EventReader) Path() string {
	return r.path
}

// Load reads all events from path in one shot.
func Load(path string) ([]event.Event, error) {
	r, err := NewEventReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.ReadAll()
}
