package processor

import (
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/errors"
	"github.com/quakelens/quakelens/internal/event"
)

// ddsketchAccuracy is the relative accuracy for quantile sketches.
const ddsketchAccuracy = 0.01

// MagnitudeDistribution maintains a histogram of event magnitudes in
// 0.2-unit buckets, plus a quantile sketch for auxiliary statistics.
//
// Bucketing truncates the magnitude to tenths and snaps down to the
// even tenth: magnitudes 2.0 and 2.1 share the "2" bucket, 2.2 and 2.3
// the "2.2" bucket. Negative magnitudes clamp to the zero bucket.
// Update and Recompute use the identical conversion so both paths land
// every event in the same bucket.
type MagnitudeDistribution struct {
	mu      sync.RWMutex
	buckets map[int]int
	sketch  *ddsketch.DDSketch
}

// NewMagnitudeDistribution creates an empty magnitude histogram.
func NewMagnitudeDistribution() *MagnitudeDistribution {
	return &MagnitudeDistribution{
		buckets: make(map[int]int),
		sketch:  mustSketch(),
	}
}

func mustSketch() *ddsketch.DDSketch {
	s, err := ddsketch.NewDefaultDDSketch(ddsketchAccuracy)
	if err != nil {
		// The accuracy constant is fixed and valid; this cannot fail.
		panic(err)
	}
	return s
}

// magnitudeBucketKey maps a magnitude to its 0.2-unit bucket key
// (tenths, snapped down to even).
func magnitudeBucketKey(mag float64) int {
	b := int(mag * 10)
	if b < 0 {
		b = 0
	}
	return b - b%2
}

// bucketLabel formats a tenths bucket key as its decimal lower bound.
func bucketLabel(key int) string {
	return strconv.FormatFloat(float64(key)/10, 'f', -1, 64)
}

// Name implements Processor.
func (p *MagnitudeDistribution) Name() string { return "magnitude_distribution" }

// Update implements Processor.
func (p *MagnitudeDistribution) Update(ev *event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buckets[magnitudeBucketKey(ev.Magnitude)]++
	p.sketch.Add(ev.Magnitude)
	return nil
}

// Recompute implements Processor.
func (p *MagnitudeDistribution) Recompute(tab *table.Table) error {
	if err := tab.CheckConsistency(); err != nil {
		return errors.Wrap(err, "magnitude distribution")
	}

	buckets := make(map[int]int)
	sketch := mustSketch()
	for _, mag := range tab.Magnitudes() {
		buckets[magnitudeBucketKey(mag)]++
		sketch.Add(mag)
	}

	p.mu.Lock()
	p.buckets = buckets
	p.sketch = sketch
	p.mu.Unlock()
	return nil
}

// ClearState implements Processor.
func (p *MagnitudeDistribution) ClearState() {
	p.mu.Lock()
	p.buckets = make(map[int]int)
	p.sketch = mustSketch()
	p.mu.Unlock()
}

// Result returns the histogram as (label, count) pairs ascending by
// numeric bucket.
func (p *MagnitudeDistribution) Result() []MagnitudeBucket {
	p.mu.RLock()
	defer p.mu.RUnlock()

	keys := make([]int, 0, len(p.buckets))
	for k := range p.buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]MagnitudeBucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, MagnitudeBucket{Label: bucketLabel(k), Count: p.buckets[k]})
	}
	return out
}

// Summary implements Processor. It reports exact mean/min/max from the
// magnitude column and approximate median/p95 from the sketch.
func (p *MagnitudeDistribution) Summary(tab *table.Table) (Summary, error) {
	mags := tab.Magnitudes()
	data := map[string]any{"count": len(mags)}

	if len(mags) > 0 {
		sum := 0.0
		minM := math.Inf(1)
		maxM := math.Inf(-1)
		for _, m := range mags {
			sum += m
			minM = math.Min(minM, m)
			maxM = math.Max(maxM, m)
		}
		data["mean"] = sum / float64(len(mags))
		data["min"] = minM
		data["max"] = maxM

		p.mu.RLock()
		if p50, err := p.sketch.GetValueAtQuantile(0.5); err == nil {
			data["median"] = p50
		}
		if p95, err := p.sketch.GetValueAtQuantile(0.95); err == nil {
			data["p95"] = p95
		}
		p.mu.RUnlock()
	}

	return Summary{Title: "Magnitude Statistics", Data: data}, nil
}
