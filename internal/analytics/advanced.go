package analytics

import (
	"fmt"
	"sort"

	"github.com/quakelens/quakelens/internal/analytics/processor"
)

// RegionSummary aggregates events of one Flynn region.
type RegionSummary struct {
	Region       string
	EventCount   int
	AvgMagnitude float64
	AvgDepth     float64
}

// Advanced is the full auxiliary-statistics report: one titled block
// per processor plus the regional analysis.
type Advanced struct {
	Blocks []processor.Summary
}

// AdvancedAnalytics collects every processor's auxiliary statistics and
// the top-region analysis into one report.
func (e *Engine) AdvancedAnalytics() (*Advanced, error) {
	if err := e.ensureFresh(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	report := &Advanced{Blocks: make([]processor.Summary, 0, len(e.procs)+1)}
	for _, p := range e.procs {
		s, err := p.Summary(e.tab)
		if err != nil {
			return nil, fmt.Errorf("summary %s: %w", p.Name(), err)
		}
		report.Blocks = append(report.Blocks, s)
	}

	regions := e.regionalLocked(10)
	report.Blocks = append(report.Blocks, processor.Summary{
		Title: "Regional Analysis",
		Data:  map[string]any{"regions": regions},
	})
	return report, nil
}

// RegionalSummary returns per-region event count and mean magnitude
// and depth, descending by count, limited to topN regions (topN <= 0
// means no limit). Answers from the raw table, so no recompute is
// needed.
func (e *Engine) RegionalSummary(topN int) []RegionSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.regionalLocked(topN)
}

// regionalLocked computes the regional aggregation. Caller holds at
// least mu.RLock.
func (e *Engine) regionalLocked(topN int) []RegionSummary {
	type acc struct {
		count    int
		magSum   float64
		depthSum float64
	}

	regions := e.tab.Regions()
	mags := e.tab.Magnitudes()
	depths := e.tab.Depths()

	byRegion := make(map[string]*acc)
	for i, r := range regions {
		if r == "" {
			continue
		}
		a := byRegion[r]
		if a == nil {
			a = &acc{}
			byRegion[r] = a
		}
		a.count++
		a.magSum += mags[i]
		a.depthSum += depths[i]
	}

	out := make([]RegionSummary, 0, len(byRegion))
	for r, a := range byRegion {
		out = append(out, RegionSummary{
			Region:       r,
			EventCount:   a.count,
			AvgMagnitude: a.magSum / float64(a.count),
			AvgDepth:     a.depthSum / float64(a.count),
		})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].EventCount != out[b].EventCount {
			return out[a].EventCount > out[b].EventCount
		}
		return out[a].Region < out[b].Region
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
