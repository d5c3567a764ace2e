package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeTemp(t, `
{"unid":"ev1","time":"2024-12-10T12:00:00Z","lat":36.0,"lon":-120.0,"depth":10.0,"mag":2.0,"flynn_region":"CENTRAL CALIFORNIA"}
{"unid":"ev2","time":"2024-12-10T13:00:00Z","lat":35.5,"lon":-119.5,"depth":8.0,"mag":3.1,"flynn_region":"CENTRAL CALIFORNIA"}
`)

	events, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != "ev1" || events[1].Magnitude != 3.1 {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestLoadFileGeneratesMissingIDs(t *testing.T) {
	path := writeTemp(t, `{"time":"2024-12-10T12:00:00Z","lat":36.0,"lon":-120.0,"depth":10.0,"mag":2.0}`)

	events, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID == "" {
		t.Error("expected generated id")
	}
}

func TestLoadFileSkipsBadRecords(t *testing.T) {
	path := writeTemp(t, `
{"unid":"good","time":"2024-12-10T12:00:00Z","lat":36.0,"lon":-120.0,"depth":10.0,"mag":2.0}
not json at all
{"unid":"badlat","time":"2024-12-10T12:00:00Z","lat":123.0,"lon":-120.0,"depth":10.0,"mag":2.0}

# comment line
`)

	events, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 1 || events[0].ID != "good" {
		t.Errorf("expected only the good record, got %+v", events)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}
