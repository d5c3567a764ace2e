package processor

import (
	"math"
	"sort"
	"sync"

	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/errors"
	"github.com/quakelens/quakelens/internal/event"
)

// Defaults for the Gutenberg-Richter regression.
const (
	// DefaultCompletenessMagnitude is the catalog completeness
	// threshold; buckets below it are excluded from the fit.
	DefaultCompletenessMagnitude = 2.0

	// DefaultRefitInterval is how many cumulative events pass between
	// incremental refits of the regression.
	DefaultRefitInterval = 100

	// Fallback regression parameters until enough data accumulates.
	defaultBValue = 1.0
	defaultAValue = 0.0

	// minRegressionPoints is the least number of qualifying buckets
	// for a meaningful least-squares fit.
	minRegressionPoints = 3
)

// GutenbergRichter maintains a 0.1-unit magnitude-frequency counter and
// fits log10 N = a - b*M over buckets at or above the completeness
// magnitude.
//
// The incremental path refits only every refitInterval-th event, so the
// published b-value can lag the counter slightly between refits; a full
// recompute always ends with an exact refit.
type GutenbergRichter struct {
	mu            sync.RWMutex
	counts        map[int]int
	total         int
	bValue        float64
	aValue        float64
	completeness  float64
	refitInterval int
}

// NewGutenbergRichter creates a regression processor with the given
// completeness magnitude and incremental refit cadence. Non-positive
// arguments fall back to the defaults.
func NewGutenbergRichter(completeness float64, refitInterval int) *GutenbergRichter {
	if completeness <= 0 {
		completeness = DefaultCompletenessMagnitude
	}
	if refitInterval <= 0 {
		refitInterval = DefaultRefitInterval
	}
	return &GutenbergRichter{
		counts:        make(map[int]int),
		bValue:        defaultBValue,
		aValue:        defaultAValue,
		completeness:  completeness,
		refitInterval: refitInterval,
	}
}

// tenthBucket maps a magnitude to its 0.1-unit counter key.
func tenthBucket(mag float64) int {
	b := int(math.Round(mag * 10))
	if b < 0 {
		b = 0
	}
	return b
}

// Name implements Processor.
func (p *GutenbergRichter) Name() string { return "gutenberg_richter" }

// Update implements Processor.
func (p *GutenbergRichter) Update(ev *event.Event) error {
	p.mu.Lock()
	p.counts[tenthBucket(ev.Magnitude)]++
	p.total++
	if p.total%p.refitInterval == 0 {
		p.refitLocked()
	}
	p.mu.Unlock()
	return nil
}

// Recompute implements Processor.
func (p *GutenbergRichter) Recompute(tab *table.Table) error {
	if err := tab.CheckConsistency(); err != nil {
		return errors.Wrap(err, "gutenberg richter")
	}

	counts := make(map[int]int)
	for _, mag := range tab.Magnitudes() {
		counts[tenthBucket(mag)]++
	}

	p.mu.Lock()
	p.counts = counts
	p.total = tab.Len()
	p.refitLocked()
	p.mu.Unlock()
	return nil
}

// ClearState implements Processor.
func (p *GutenbergRichter) ClearState() {
	p.mu.Lock()
	p.counts = make(map[int]int)
	p.total = 0
	p.bValue = defaultBValue
	p.aValue = defaultAValue
	p.mu.Unlock()
}

// refitLocked runs the least-squares fit of ln(count) against bucket
// magnitude over qualifying buckets. With fewer than three qualifying
// points the previous parameters are retained. Caller holds p.mu.
func (p *GutenbergRichter) refitLocked() {
	minKey := tenthBucket(p.completeness)

	var n float64
	var sumM, sumLnN, sumMLnN, sumM2 float64
	for k, c := range p.counts {
		if k < minKey || c == 0 {
			continue
		}
		m := float64(k) / 10
		lnN := math.Log(float64(c))
		n++
		sumM += m
		sumLnN += lnN
		sumMLnN += m * lnN
		sumM2 += m * m
	}
	if n < minRegressionPoints {
		return
	}

	denom := sumM*sumM - n*sumM2
	if denom == 0 {
		return
	}
	slope := (n*sumMLnN - sumM*sumLnN) / denom
	p.bValue = -slope
	p.aValue = (sumLnN - slope*sumM) / n
}

// BValue returns the current b-value estimate.
func (p *GutenbergRichter) BValue() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bValue
}

// AValue returns the current a-value estimate.
func (p *GutenbergRichter) AValue() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.aValue
}

// CompletenessMagnitude returns the configured completeness threshold.
func (p *GutenbergRichter) CompletenessMagnitude() float64 {
	return p.completeness
}

// FrequencyData returns per-bucket exact and cumulative counts
// ascending by magnitude. Cumulative for a bucket counts all events at
// or above that magnitude.
func (p *GutenbergRichter) FrequencyData() []MagnitudeFrequency {
	p.mu.RLock()
	defer p.mu.RUnlock()

	keys := make([]int, 0, len(p.counts))
	for k := range p.counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]MagnitudeFrequency, len(keys))
	cumulative := p.total
	for i, k := range keys {
		out[i] = MagnitudeFrequency{
			Magnitude:  float64(k) / 10,
			Count:      p.counts[k],
			Cumulative: cumulative,
		}
		cumulative -= p.counts[k]
	}
	return out
}

// Summary implements Processor.
func (p *GutenbergRichter) Summary(tab *table.Table) (Summary, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return Summary{
		Title: "Gutenberg-Richter",
		Data: map[string]any{
			"b_value":                p.bValue,
			"a_value":                p.aValue,
			"completeness_magnitude": p.completeness,
			"events":                 p.total,
		},
	}, nil
}
