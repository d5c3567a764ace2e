package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/errors"
	"github.com/quakelens/quakelens/internal/event"
	"github.com/quakelens/quakelens/internal/testutil"
)

func TestEventWriterBasic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.parquet")

	w, err := NewEventWriter(path, DefaultOptions())
	if err != nil {
		t.Fatalf("NewEventWriter: %v", err)
	}

	if err := w.Write(testutil.Events(2, 2.0)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if w.RowCount() != 2 {
		t.Errorf("expected 2 rows, got %d", w.RowCount())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		t.Fatalf("file should exist: %v", err)
	}
	if stat.Size() == 0 {
		t.Error("file should not be empty")
	}
}

func TestWriteAndReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.parquet")

	events := []event.Event{
		testutil.Event("ev1", 2.5, 10.0, 36.0, -120.0, testutil.BaseTime, "CENTRAL CALIFORNIA"),
		testutil.Event("ev2", 4.1, 35.0, 38.2, 142.3, testutil.BaseTime.Add(time.Hour), "NEAR EAST COAST OF HONSHU"),
	}
	events[0].MagnitudeType = "ml"
	events[0].EventType = "ke"
	events[0].SourceID = "1187243"
	events[0].SourceCatalog = "EMSC-RTS"
	events[0].Author = "CSEM"

	w, err := NewEventWriter(path, DefaultOptions())
	if err != nil {
		t.Fatalf("NewEventWriter: %v", err)
	}
	if err := w.Write(events); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewEventReader(path)
	if err != nil {
		t.Fatalf("NewEventReader: %v", err)
	}
	defer r.Close()

	got, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}

	ev := got[0]
	if ev.ID != "ev1" {
		t.Errorf("expected id=ev1, got %s", ev.ID)
	}
	if ev.Magnitude != 2.5 {
		t.Errorf("expected mag=2.5, got %f", ev.Magnitude)
	}
	if !ev.Time.Equal(testutil.BaseTime) {
		t.Errorf("expected time %v, got %v", testutil.BaseTime, ev.Time)
	}
	if ev.MagnitudeType != "ml" || ev.Author != "CSEM" {
		t.Errorf("string columns did not survive: %+v", ev)
	}

	ev = got[1]
	if ev.FlynnRegion != "NEAR EAST COAST OF HONSHU" {
		t.Errorf("expected honshu region, got %s", ev.FlynnRegion)
	}
	if ev.Depth != 35.0 {
		t.Errorf("expected depth=35, got %f", ev.Depth)
	}
}

func TestExportAndLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.parquet")

	tab := table.FromEvents(testutil.Events(250, 1.0))
	if err := Export(path, tab, DefaultOptions()); err != nil {
		t.Fatalf("Export: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 250 {
		t.Fatalf("expected 250 events, got %d", len(got))
	}
	want := tab.Events()
	for i := range got {
		if got[i].ID != want[i].ID || got[i].Magnitude != want[i].Magnitude {
			t.Fatalf("row %d mismatch: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestCompressionTypes(t *testing.T) {
	compressions := []struct {
		name string
		ct   CompressionType
	}{
		{"none", CompressionNone},
		{"snappy", CompressionSnappy},
		{"zstd", CompressionZstd},
		{"lz4", CompressionLZ4},
	}

	for _, tc := range compressions {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "test.parquet")

			opts := DefaultOptions()
			opts.Compression = tc.ct

			w, err := NewEventWriter(path, opts)
			if err != nil {
				t.Fatalf("NewEventWriter: %v", err)
			}
			if err := w.Write(testutil.Events(1, 3.0)); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got) != 1 {
				t.Errorf("expected 1 event, got %d", len(got))
			}
		})
	}
}

func TestParseCompressionType(t *testing.T) {
	tests := []struct {
		input    string
		expected CompressionType
	}{
		{"snappy", CompressionSnappy},
		{"zstd", CompressionZstd},
		{"lz4", CompressionLZ4},
		{"gzip", CompressionGzip},
		{"none", CompressionNone},
		{"", CompressionNone},
		{"invalid", CompressionZstd}, // Default
	}

	for _, tt := range tests {
		result := ParseCompressionType(tt.input)
		if result != tt.expected {
			t.Errorf("ParseCompressionType(%s): expected %d, got %d", tt.input, tt.expected, result)
		}
	}
}

func TestRowConversions(t *testing.T) {
	ev := testutil.Event("conv", 5.5, 120.0, -33.4, -70.6, testutil.BaseTime, "OFFSHORE VALPARAISO, CHILE")
	ev.MagnitudeType = "mw"
	ev.LastUpdate = testutil.BaseTime.Add(time.Minute)

	row := EventToRow(&ev)
	back := RowToEvent(&row)

	if back.ID != ev.ID ||
		back.Magnitude != ev.Magnitude ||
		back.FlynnRegion != ev.FlynnRegion ||
		!back.Time.Equal(ev.Time) ||
		!back.LastUpdate.Equal(ev.LastUpdate) {
		t.Error("event conversion roundtrip failed")
	}
}

func TestEmptyWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.parquet")

	w, err := NewEventWriter(path, DefaultOptions())
	if err != nil {
		t.Fatalf("NewEventWriter: %v", err)
	}

	if err := w.Write(nil); err != nil {
		t.Errorf("nil write should succeed: %v", err)
	}
	if err := w.Write([]event.Event{}); err != nil {
		t.Errorf("empty write should succeed: %v", err)
	}
	if w.RowCount() != 0 {
		t.Errorf("expected 0 rows, got %d", w.RowCount())
	}

	w.Close()
}

func TestWriteToClosedWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.parquet")

	w, err := NewEventWriter(path, DefaultOptions())
	if err != nil {
		t.Fatalf("NewEventWriter: %v", err)
	}
	w.Close()

	err = w.Write(testutil.Events(1, 2.0))
	if !errors.Is(err, errors.ErrWriterClosed) {
		t.Errorf("expected ErrWriterClosed, got %v", err)
	}
}
