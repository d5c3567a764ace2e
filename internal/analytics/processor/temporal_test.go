package processor

import (
	"testing"
	"time"

	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/testutil"
)

func TestTemporalSingleEvent(t *testing.T) {
	p := NewTemporalPatterns()
	ev := testutil.SimpleEvent("a") // 2024-12-10 12:00 UTC, a Tuesday
	if err := p.Update(&ev); err != nil {
		t.Fatalf("update: %v", err)
	}

	daily := p.Daily()
	if len(daily) != 1 {
		t.Fatalf("expected 1 day, got %d", len(daily))
	}
	want := time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC)
	if !daily[0].Date.Equal(want) || daily[0].Count != 1 {
		t.Errorf("expected (2024-12-10, 1), got (%v, %d)", daily[0].Date, daily[0].Count)
	}

	hourly := p.Hourly()
	if len(hourly) != 1 || hourly[0].Hour != 12 || hourly[0].Count != 1 {
		t.Errorf("expected hour (12, 1), got %v", hourly)
	}

	monthly := p.Monthly()
	if len(monthly) != 1 || monthly[0].Month != time.December {
		t.Errorf("expected December, got %v", monthly)
	}
}

func TestTemporalWeeklyAlwaysSevenEntries(t *testing.T) {
	p := NewTemporalPatterns()

	weekly := p.Weekly()
	if len(weekly) != 7 {
		t.Fatalf("expected 7 weekday entries on empty state, got %d", len(weekly))
	}
	wantOrder := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	for i, w := range weekly {
		if w.Weekday != wantOrder[i] {
			t.Errorf("position %d: expected %s, got %s", i, wantOrder[i], w.Weekday)
		}
		if w.Count != 0 {
			t.Errorf("empty state weekday %s has count %d", w.Weekday, w.Count)
		}
	}

	ev := testutil.SimpleEvent("a") // Tuesday
	_ = p.Update(&ev)
	weekly = p.Weekly()
	if len(weekly) != 7 {
		t.Fatalf("expected 7 weekday entries, got %d", len(weekly))
	}
	if weekly[1].Weekday != "Tue" || weekly[1].Count != 1 {
		t.Errorf("expected Tue count 1, got %v", weekly[1])
	}
}

func TestTemporalDatesAscending(t *testing.T) {
	p := NewTemporalPatterns()
	days := []time.Time{
		time.Date(2024, 12, 12, 3, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 10, 5, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 11, 7, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 10, 22, 0, 0, 0, time.UTC),
	}
	for i, d := range days {
		ev := testutil.Event(testutil.NewID(), 2.0, 10, 36, -120, d, "R")
		if err := p.Update(&ev); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	daily := p.Daily()
	if len(daily) != 3 {
		t.Fatalf("expected 3 days, got %d", len(daily))
	}
	for i := 1; i < len(daily); i++ {
		if !daily[i-1].Date.Before(daily[i].Date) {
			t.Errorf("dates not ascending: %v before %v", daily[i-1].Date, daily[i].Date)
		}
	}
	if daily[0].Count != 2 {
		t.Errorf("expected 2 events on 2024-12-10, got %d", daily[0].Count)
	}
}

func TestTemporalUTCBucketing(t *testing.T) {
	p := NewTemporalPatterns()
	// 2024-12-11 01:00 in UTC+3 is 2024-12-10 22:00 UTC.
	loc := time.FixedZone("X", 3*3600)
	ev := testutil.Event("tz", 2.0, 10, 36, -120, time.Date(2024, 12, 11, 1, 0, 0, 0, loc), "R")
	_ = p.Update(&ev)

	daily := p.Daily()
	want := time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC)
	if len(daily) != 1 || !daily[0].Date.Equal(want) {
		t.Errorf("expected UTC date 2024-12-10, got %v", daily)
	}
	hourly := p.Hourly()
	if len(hourly) != 1 || hourly[0].Hour != 22 {
		t.Errorf("expected UTC hour 22, got %v", hourly)
	}
}

func TestTemporalRecomputeMatchesIncremental(t *testing.T) {
	events := testutil.Events(30, 2.0)

	inc := NewTemporalPatterns()
	for i := range events {
		_ = inc.Update(&events[i])
	}
	full := NewTemporalPatterns()
	if err := full.Recompute(table.FromEvents(events)); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	a, b := inc.Daily(), full.Daily()
	if len(a) != len(b) {
		t.Fatalf("daily length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Date.Equal(b[i].Date) || a[i].Count != b[i].Count {
			t.Errorf("daily %d: %v vs %v", i, a[i], b[i])
		}
	}

	ah, bh := inc.Hourly(), full.Hourly()
	if len(ah) != len(bh) {
		t.Fatalf("hourly length mismatch")
	}
	for i := range ah {
		if ah[i] != bh[i] {
			t.Errorf("hourly %d: %v vs %v", i, ah[i], bh[i])
		}
	}
}

func TestTemporalClearState(t *testing.T) {
	p := NewTemporalPatterns()
	ev := testutil.SimpleEvent("a")
	_ = p.Update(&ev)
	p.ClearState()

	if len(p.Daily()) != 0 {
		t.Error("daily not cleared")
	}
	for _, w := range p.Weekly() {
		if w.Count != 0 {
			t.Errorf("weekday %s not cleared", w.Weekday)
		}
	}
}
