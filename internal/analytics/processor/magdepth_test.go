package processor

import (
	"testing"

	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/testutil"
)

func TestMagnitudeDepthPreservesOrder(t *testing.T) {
	p := NewMagnitudeDepth()
	events := testutil.Events(4, 2.0)
	for i := range events {
		if err := p.Update(&events[i]); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	got := p.Result()
	if len(got) != 4 {
		t.Fatalf("expected 4 pairs, got %d", len(got))
	}
	for i := range events {
		if got[i].Magnitude != events[i].Magnitude || got[i].Depth != events[i].Depth {
			t.Errorf("pair %d: got %v, want (%v, %v)",
				i, got[i], events[i].Magnitude, events[i].Depth)
		}
	}
}

func TestMagnitudeDepthRecomputeMatchesIncremental(t *testing.T) {
	events := testutil.Events(10, 2.0)

	inc := NewMagnitudeDepth()
	for i := range events {
		_ = inc.Update(&events[i])
	}
	full := NewMagnitudeDepth()
	if err := full.Recompute(table.FromEvents(events)); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	a, b := inc.Result(), full.Result()
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("pair %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestMagnitudeDepthResultIsACopy(t *testing.T) {
	p := NewMagnitudeDepth()
	ev := testutil.SimpleEvent("a")
	_ = p.Update(&ev)

	got := p.Result()
	got[0].Depth = 999
	if p.Result()[0].Depth == 999 {
		t.Error("result aliases internal state")
	}
}

func TestMagnitudeDepthClearState(t *testing.T) {
	p := NewMagnitudeDepth()
	ev := testutil.SimpleEvent("a")
	_ = p.Update(&ev)
	p.ClearState()

	if len(p.Result()) != 0 {
		t.Error("pairs not cleared")
	}
}
