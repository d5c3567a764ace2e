package processor

import (
	"sort"
	"sync"
	"time"

	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/errors"
	"github.com/quakelens/quakelens/internal/event"
)

// weekdayOrder fixes the weekly distribution to Monday-first order.
var weekdayOrder = [7]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// TemporalPatterns maintains four independent counters over event
// origin times: per UTC calendar day, per hour of day, per calendar
// month, and per weekday.
type TemporalPatterns struct {
	mu       sync.RWMutex
	daily    map[time.Time]int
	hourly   map[int]int
	monthly  map[time.Month]int
	weekdays map[time.Weekday]int
}

// NewTemporalPatterns creates empty temporal counters.
func NewTemporalPatterns() *TemporalPatterns {
	p := &TemporalPatterns{}
	p.reset()
	return p
}

func (p *TemporalPatterns) reset() {
	p.daily = make(map[time.Time]int)
	p.hourly = make(map[int]int)
	p.monthly = make(map[time.Month]int)
	p.weekdays = make(map[time.Weekday]int)
}

// civilDate truncates a timestamp to its UTC calendar day.
func civilDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Name implements Processor.
func (p *TemporalPatterns) Name() string { return "temporal_patterns" }

// Update implements Processor.
func (p *TemporalPatterns) Update(ev *event.Event) error {
	u := ev.Time.UTC()
	p.mu.Lock()
	p.daily[civilDate(u)]++
	p.hourly[u.Hour()]++
	p.monthly[u.Month()]++
	p.weekdays[u.Weekday()]++
	p.mu.Unlock()
	return nil
}

// Recompute implements Processor.
func (p *TemporalPatterns) Recompute(tab *table.Table) error {
	if err := tab.CheckConsistency(); err != nil {
		return errors.Wrap(err, "temporal patterns")
	}

	daily := make(map[time.Time]int)
	hourly := make(map[int]int)
	monthly := make(map[time.Month]int)
	weekdays := make(map[time.Weekday]int)
	for _, ns := range tab.Times() {
		u := time.Unix(0, ns).UTC()
		daily[civilDate(u)]++
		hourly[u.Hour()]++
		monthly[u.Month()]++
		weekdays[u.Weekday()]++
	}

	p.mu.Lock()
	p.daily = daily
	p.hourly = hourly
	p.monthly = monthly
	p.weekdays = weekdays
	p.mu.Unlock()
	return nil
}

// ClearState implements Processor.
func (p *TemporalPatterns) ClearState() {
	p.mu.Lock()
	p.reset()
	p.mu.Unlock()
}

// Daily returns observed calendar days ascending with their counts.
func (p *TemporalPatterns) Daily() []DateCount {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]DateCount, 0, len(p.daily))
	for d, n := range p.daily {
		out = append(out, DateCount{Date: d, Count: n})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Date.Before(out[b].Date) })
	return out
}

// Hourly returns observed hours of day ascending with their counts.
func (p *TemporalPatterns) Hourly() []HourCount {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]HourCount, 0, len(p.hourly))
	for h, n := range p.hourly {
		out = append(out, HourCount{Hour: h, Count: n})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Hour < out[b].Hour })
	return out
}

// Monthly returns observed months ascending with their counts.
func (p *TemporalPatterns) Monthly() []MonthCount {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]MonthCount, 0, len(p.monthly))
	for m, n := range p.monthly {
		out = append(out, MonthCount{Month: m, Count: n})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Month < out[b].Month })
	return out
}

// Weekly returns all seven weekdays Monday-first, zero counts included.
func (p *TemporalPatterns) Weekly() []WeekdayCount {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]WeekdayCount, 0, 7)
	for _, wd := range weekdayOrder {
		out = append(out, WeekdayCount{Weekday: wd.String()[:3], Count: p.weekdays[wd]})
	}
	return out
}

// Summary implements Processor.
func (p *TemporalPatterns) Summary(tab *table.Table) (Summary, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data := map[string]any{
		"days_observed": len(p.daily),
	}

	peakHour, peakHourCount := -1, 0
	for h, n := range p.hourly {
		if n > peakHourCount || (n == peakHourCount && peakHour >= 0 && h < peakHour) {
			peakHour, peakHourCount = h, n
		}
	}
	if peakHour >= 0 {
		data["peak_hour"] = peakHour
		data["peak_hour_count"] = peakHourCount
	}

	var busiest time.Time
	busiestCount := 0
	for d, n := range p.daily {
		if n > busiestCount || (n == busiestCount && !busiest.IsZero() && d.Before(busiest)) {
			busiest, busiestCount = d, n
		}
	}
	if busiestCount > 0 {
		data["busiest_day"] = busiest.Format("2006-01-02")
		data["busiest_day_count"] = busiestCount
	}

	return Summary{Title: "Temporal Patterns", Data: data}, nil
}
