package query

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/errors"
	"github.com/quakelens/quakelens/internal/event"
	"github.com/quakelens/quakelens/internal/snapshot"
	"github.com/quakelens/quakelens/internal/testutil"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

// writeSnapshot exports a small three-region catalog and returns its path.
func writeSnapshot(t *testing.T) string {
	t.Helper()

	events := []event.Event{
		testutil.Event("q1", 2.0, 10, 36.0, -120.0, testutil.BaseTime, "CENTRAL CALIFORNIA"),
		testutil.Event("q2", 3.0, 12, 36.1, -120.1, testutil.BaseTime.Add(time.Minute), "CENTRAL CALIFORNIA"),
		testutil.Event("q3", 4.0, 14, 36.2, -120.2, testutil.BaseTime.Add(2*time.Minute), "CENTRAL CALIFORNIA"),
		testutil.Event("q4", 5.0, 40, 38.2, 142.3, testutil.BaseTime.Add(3*time.Minute), "NEAR EAST COAST OF HONSHU"),
		testutil.Event("q5", 5.5, 50, 38.3, 142.4, testutil.BaseTime.Add(4*time.Minute), "NEAR EAST COAST OF HONSHU"),
		testutil.Event("q6", 6.0, 100, -33.4, -70.6, testutil.BaseTime.Add(5*time.Minute), ""),
	}

	path := filepath.Join(t.TempDir(), "catalog.parquet")
	if err := snapshot.Export(path, table.FromEvents(events), snapshot.DefaultOptions()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	return path
}

func TestServiceExecuteSQL(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	results, err := svc.ExecuteSQL(ctx, "SELECT 1 AS value")
	if err != nil {
		t.Fatalf("ExecuteSQL: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	stats := svc.Stats()
	if stats.QueriesExecuted != 1 {
		t.Errorf("expected 1 query executed, got %d", stats.QueriesExecuted)
	}
	if stats.RowsReturned != 1 {
		t.Errorf("expected 1 row returned, got %d", stats.RowsReturned)
	}
}

func TestServiceMaxRows(t *testing.T) {
	svc, err := New(Config{MemoryLimit: "256MB", MaxRows: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer svc.Close()

	results, err := svc.ExecuteSQL(context.Background(), "SELECT * FROM range(100)")
	if err != nil {
		t.Fatalf("ExecuteSQL: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected truncation to 3 rows, got %d", len(results))
	}
}

func TestServiceBadSQL(t *testing.T) {
	svc := newService(t)

	if _, err := svc.ExecuteSQL(context.Background(), "SELEC nope"); err == nil {
		t.Fatal("expected error for bad SQL")
	}
	if svc.Stats().Errors != 1 {
		t.Errorf("expected 1 error counted, got %d", svc.Stats().Errors)
	}
}

func TestSnapshotCount(t *testing.T) {
	svc := newService(t)
	path := writeSnapshot(t)

	n, err := svc.SnapshotCount(context.Background(), path)
	if err != nil {
		t.Fatalf("SnapshotCount: %v", err)
	}
	if n != 6 {
		t.Errorf("expected 6 rows, got %d", n)
	}
}

func TestRegionalAnalysis(t *testing.T) {
	svc := newService(t)
	path := writeSnapshot(t)

	rows, err := svc.RegionalAnalysis(context.Background(), path, 10)
	if err != nil {
		t.Fatalf("RegionalAnalysis: %v", err)
	}

	// Unnamed region is excluded.
	if len(rows) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(rows))
	}
	if rows[0].Region != "CENTRAL CALIFORNIA" || rows[0].EventCount != 3 {
		t.Errorf("unexpected top region %+v", rows[0])
	}
	if rows[1].Region != "NEAR EAST COAST OF HONSHU" || rows[1].EventCount != 2 {
		t.Errorf("unexpected second region %+v", rows[1])
	}
	if diff := rows[0].AvgMagnitude - 3.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected avg magnitude 3.0, got %f", rows[0].AvgMagnitude)
	}
}

func TestRegionalAnalysisLimit(t *testing.T) {
	svc := newService(t)
	path := writeSnapshot(t)

	rows, err := svc.RegionalAnalysis(context.Background(), path, 1)
	if err != nil {
		t.Fatalf("RegionalAnalysis: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 region, got %d", len(rows))
	}
}

func TestQueryAfterClose(t *testing.T) {
	svc, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	svc.Close()

	if _, err := svc.ExecuteSQL(context.Background(), "SELECT 1"); !errors.Is(err, errors.ErrQueryClosed) {
		t.Errorf("expected ErrQueryClosed, got %v", err)
	}
	if _, err := svc.SnapshotCount(context.Background(), "x.parquet"); !errors.Is(err, errors.ErrQueryClosed) {
		t.Errorf("expected ErrQueryClosed, got %v", err)
	}
}
