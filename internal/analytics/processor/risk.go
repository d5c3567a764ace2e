package processor

import (
	"math"
	"sync"
	"time"

	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/errors"
	"github.com/quakelens/quakelens/internal/event"
)

const (
	nanosPerDay = float64(24 * time.Hour)

	// minSpanDays floors the observed time span so rates stay finite
	// for catalogs spanning less than a day.
	minSpanDays = 1.0
)

// RiskAssessment maintains the inputs of the Poisson exceedance model:
// a 0.1-unit magnitude counter, cumulative radiated energy, and the
// observed time span of the catalog.
type RiskAssessment struct {
	mu         sync.RWMutex
	counts     map[int]int
	total      int
	energy     float64
	minTimeNs  int64
	maxTimeNs  int64
	hasSpan    bool
}

// NewRiskAssessment creates an empty risk processor.
func NewRiskAssessment() *RiskAssessment {
	return &RiskAssessment{counts: make(map[int]int)}
}

// magnitudeEnergy is the radiated energy in joules for a magnitude,
// using the Gutenberg-Richter energy relation log10 E = 11.8 + 1.5 M.
func magnitudeEnergy(mag float64) float64 {
	return math.Pow(10, 11.8+1.5*mag)
}

// Name implements Processor.
func (p *RiskAssessment) Name() string { return "risk_assessment" }

// Update implements Processor.
func (p *RiskAssessment) Update(ev *event.Event) error {
	ns := ev.Time.UTC().UnixNano()

	p.mu.Lock()
	p.counts[tenthBucket(ev.Magnitude)]++
	p.total++
	p.energy += magnitudeEnergy(ev.Magnitude)
	if !p.hasSpan {
		p.minTimeNs, p.maxTimeNs = ns, ns
		p.hasSpan = true
	} else {
		if ns < p.minTimeNs {
			p.minTimeNs = ns
		}
		if ns > p.maxTimeNs {
			p.maxTimeNs = ns
		}
	}
	p.mu.Unlock()
	return nil
}

// Recompute implements Processor.
func (p *RiskAssessment) Recompute(tab *table.Table) error {
	if err := tab.CheckConsistency(); err != nil {
		return errors.Wrap(err, "risk assessment")
	}

	counts := make(map[int]int)
	energy := 0.0
	for _, mag := range tab.Magnitudes() {
		counts[tenthBucket(mag)]++
		energy += magnitudeEnergy(mag)
	}

	var minNs, maxNs int64
	hasSpan := false
	for _, ns := range tab.Times() {
		if !hasSpan {
			minNs, maxNs = ns, ns
			hasSpan = true
			continue
		}
		if ns < minNs {
			minNs = ns
		}
		if ns > maxNs {
			maxNs = ns
		}
	}

	p.mu.Lock()
	p.counts = counts
	p.total = tab.Len()
	p.energy = energy
	p.minTimeNs = minNs
	p.maxTimeNs = maxNs
	p.hasSpan = hasSpan
	p.mu.Unlock()
	return nil
}

// ClearState implements Processor.
func (p *RiskAssessment) ClearState() {
	p.mu.Lock()
	p.counts = make(map[int]int)
	p.total = 0
	p.energy = 0
	p.minTimeNs = 0
	p.maxTimeNs = 0
	p.hasSpan = false
	p.mu.Unlock()
}

// spanDaysLocked returns the observed catalog span in days, floored at
// minSpanDays. Caller holds p.mu.
func (p *RiskAssessment) spanDaysLocked() float64 {
	if !p.hasSpan {
		return minSpanDays
	}
	days := float64(p.maxTimeNs-p.minTimeNs) / nanosPerDay
	if days < minSpanDays {
		return minSpanDays
	}
	return days
}

// countAtOrAboveLocked counts events with magnitude at or above the
// threshold. Caller holds p.mu.
func (p *RiskAssessment) countAtOrAboveLocked(threshold float64) int {
	minKey := tenthBucket(threshold)
	n := 0
	for k, c := range p.counts {
		if k >= minKey {
			n += c
		}
	}
	return n
}

// ProbabilityWithin returns the Poisson probability of at least one
// event with magnitude >= threshold during the next `days` days,
// assuming the historical rate continues: P = 1 - e^(-rate*days).
func (p *RiskAssessment) ProbabilityWithin(threshold float64, days float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rate := float64(p.countAtOrAboveLocked(threshold)) / p.spanDaysLocked()
	return 1 - math.Exp(-rate*days)
}

// Metrics returns the headline risk tuple.
func (p *RiskAssessment) Metrics() RiskMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	span := p.spanDaysLocked()
	prob := func(threshold, days float64) float64 {
		rate := float64(p.countAtOrAboveLocked(threshold)) / span
		return 1 - math.Exp(-rate*days)
	}
	return RiskMetrics{
		ProbM5In30Days:    prob(5.0, 30),
		ProbM6In365Days:   prob(6.0, 365),
		ProbM7In365Days:   prob(7.0, 365),
		TotalEnergyJoules: p.energy,
	}
}

// TotalEnergy returns the cumulative radiated energy in joules.
func (p *RiskAssessment) TotalEnergy() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.energy
}

// Summary implements Processor.
func (p *RiskAssessment) Summary(tab *table.Table) (Summary, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return Summary{
		Title: "Risk Assessment",
		Data: map[string]any{
			"events":              p.total,
			"time_span_days":      p.spanDaysLocked(),
			"total_energy_joules": p.energy,
		},
	}, nil
}
