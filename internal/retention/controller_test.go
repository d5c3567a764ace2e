package retention

import (
	"testing"
	"time"

	"github.com/quakelens/quakelens/internal/analytics"
	"github.com/quakelens/quakelens/internal/event"
	"github.com/quakelens/quakelens/internal/testutil"
)

func seededEngine(t *testing.T, n int) *analytics.Engine {
	t.Helper()
	eng := analytics.New(analytics.DefaultOptions())
	if err := eng.AddEvents(testutil.Events(n, 2.0)); err != nil {
		t.Fatalf("seed engine: %v", err)
	}
	return eng
}

func TestPolicyEnabled(t *testing.T) {
	if (Policy{}).Enabled() {
		t.Error("zero policy should be disabled")
	}
	if !(Policy{MaxEvents: 10}).Enabled() {
		t.Error("count policy should be enabled")
	}
	if !(Policy{MaxAge: time.Hour}).Enabled() {
		t.Error("age policy should be enabled")
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := (Policy{MaxEvents: -1}).Validate(); err == nil {
		t.Error("expected error for negative max events")
	}
	if err := (Policy{MaxAge: -time.Hour}).Validate(); err == nil {
		t.Error("expected error for negative max age")
	}
	if err := (Policy{MaxEvents: 10, MaxAge: time.Hour}).Validate(); err != nil {
		t.Errorf("valid policy rejected: %v", err)
	}
}

func TestCheckDisabledPolicyDoesNothing(t *testing.T) {
	eng := seededEngine(t, 10)
	c := New(Policy{})

	res, err := c.Check(eng)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Pruned || eng.EventCount() != 10 {
		t.Errorf("disabled policy pruned: %+v", res)
	}
	if c.Stats().RunsSkipped != 1 {
		t.Errorf("expected 1 skipped run, got %d", c.Stats().RunsSkipped)
	}
}

func TestCheckMaxEventsKeepsNewest(t *testing.T) {
	eng := analytics.New(analytics.DefaultOptions())
	events := testutil.Events(5, 2.0) // ascending times, mags 2.0..2.4
	if err := eng.AddEvents(events); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c := New(Policy{MaxEvents: 3})
	res, err := c.Check(eng)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Pruned || res.EventsDropped != 2 || res.EventsAfter != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if eng.EventCount() != 3 {
		t.Fatalf("expected 3 events, got %d", eng.EventCount())
	}

	// The three newest survive and every statistic reflects only them.
	pairs, err := eng.MagnitudeDepthPairs()
	if err != nil {
		t.Fatalf("pairs: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}
	for _, p := range pairs {
		if p.Magnitude < 2.15 {
			t.Errorf("old event survived prune: %v", p)
		}
	}

	stats := c.Stats()
	if stats.RunsCompleted != 1 || stats.EventsDropped != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestCheckMaxAge(t *testing.T) {
	eng := analytics.New(analytics.DefaultOptions())
	now := time.Now().UTC()
	old := testutil.Event("old", 2.0, 10, 36, -120, now.Add(-48*time.Hour), "R")
	fresh := testutil.Event("fresh", 3.0, 10, 36, -120, now.Add(-time.Hour), "R")
	if err := eng.AddEvents([]event.Event{old, fresh}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c := New(Policy{MaxAge: 24 * time.Hour})
	res, err := c.Check(eng)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.EventsDropped != 1 || eng.EventCount() != 1 {
		t.Fatalf("expected old event dropped, got %+v", res)
	}
	tab := eng.TableSnapshot()
	if tab.IDs()[0] != "fresh" {
		t.Errorf("wrong event survived: %v", tab.IDs())
	}
}

func TestCheckUnderPolicySkips(t *testing.T) {
	eng := seededEngine(t, 3)
	c := New(Policy{MaxEvents: 10})

	res, err := c.Check(eng)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Pruned {
		t.Error("under-policy table was pruned")
	}
	if c.Stats().RunsCompleted != 0 {
		t.Error("skip counted as completed run")
	}
}

func TestDryRunDoesNotPrune(t *testing.T) {
	eng := seededEngine(t, 5)
	c := New(Policy{MaxEvents: 2})

	res := c.DryRun(eng)
	if !res.Pruned || res.EventsDropped != 3 {
		t.Errorf("unexpected dry run result %+v", res)
	}
	if eng.EventCount() != 5 {
		t.Errorf("dry run mutated the engine: %d events", eng.EventCount())
	}
	if c.Stats().RunsCompleted != 0 {
		t.Error("dry run counted as completed run")
	}
}
