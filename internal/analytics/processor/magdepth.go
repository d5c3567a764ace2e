package processor

import (
	"math"
	"sync"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/errors"
	"github.com/quakelens/quakelens/internal/event"
)

// MagnitudeDepth keeps the raw (magnitude, depth) observations in
// insertion order, for scatter views and correlation work downstream,
// plus a depth quantile sketch for auxiliary statistics.
type MagnitudeDepth struct {
	mu     sync.RWMutex
	pairs  []MagDepth
	sketch *ddsketch.DDSketch
}

// NewMagnitudeDepth creates an empty magnitude-depth collector.
func NewMagnitudeDepth() *MagnitudeDepth {
	return &MagnitudeDepth{sketch: mustSketch()}
}

// Name implements Processor.
func (p *MagnitudeDepth) Name() string { return "magnitude_depth" }

// Update implements Processor.
func (p *MagnitudeDepth) Update(ev *event.Event) error {
	p.mu.Lock()
	p.pairs = append(p.pairs, MagDepth{Magnitude: ev.Magnitude, Depth: ev.Depth})
	p.sketch.Add(ev.Depth)
	p.mu.Unlock()
	return nil
}

// Recompute implements Processor.
func (p *MagnitudeDepth) Recompute(tab *table.Table) error {
	if err := tab.CheckConsistency(); err != nil {
		return errors.Wrap(err, "magnitude depth")
	}

	mags := tab.Magnitudes()
	depths := tab.Depths()
	pairs := make([]MagDepth, len(mags))
	sketch := mustSketch()
	for i := range mags {
		pairs[i] = MagDepth{Magnitude: mags[i], Depth: depths[i]}
		sketch.Add(depths[i])
	}

	p.mu.Lock()
	p.pairs = pairs
	p.sketch = sketch
	p.mu.Unlock()
	return nil
}

// ClearState implements Processor.
func (p *MagnitudeDepth) ClearState() {
	p.mu.Lock()
	p.pairs = nil
	p.sketch = mustSketch()
	p.mu.Unlock()
}

// Result returns a copy of the observation pairs in insertion order.
func (p *MagnitudeDepth) Result() []MagDepth {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]MagDepth, len(p.pairs))
	copy(out, p.pairs)
	return out
}

// Summary implements Processor. It reports exact depth mean/min/max and
// approximate median/p95 from the sketch.
func (p *MagnitudeDepth) Summary(tab *table.Table) (Summary, error) {
	depths := tab.Depths()
	data := map[string]any{"count": len(depths)}

	if len(depths) > 0 {
		sum := 0.0
		minD := math.Inf(1)
		maxD := math.Inf(-1)
		for _, d := range depths {
			sum += d
			minD = math.Min(minD, d)
			maxD = math.Max(maxD, d)
		}
		data["mean_depth_km"] = sum / float64(len(depths))
		data["min_depth_km"] = minD
		data["max_depth_km"] = maxD

		p.mu.RLock()
		if p50, err := p.sketch.GetValueAtQuantile(0.5); err == nil {
			data["median_depth_km"] = p50
		}
		if p95, err := p.sketch.GetValueAtQuantile(0.95); err == nil {
			data["p95_depth_km"] = p95
		}
		p.mu.RUnlock()
	}

	return Summary{Title: "Depth Statistics", Data: data}, nil
}
