package processor

import (
	"math"
	"sort"
	"sync"

	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/errors"
	"github.com/quakelens/quakelens/internal/event"
)

// cellTolerance is the matching slack when the incremental path looks
// for an existing coordinate cell. Centers are multiples of 0.5, so any
// tolerance well below 0.25 identifies the cell uniquely.
const cellTolerance = 0.01

// GeographicHotspots maintains two spatial groupings: event counts per
// Flynn region, and event counts per 0.5-degree coordinate cell.
//
// The incremental path rounds the epicenter to the nearest half-degree
// center and matches it against known cells within cellTolerance; the
// recompute path buckets by integer half-degree grid keys. Both paths
// produce the same partition of events into cells.
type GeographicHotspots struct {
	mu      sync.RWMutex
	regions map[string]int
	cells   []CoordinateCell
}

// NewGeographicHotspots creates empty spatial counters.
func NewGeographicHotspots() *GeographicHotspots {
	return &GeographicHotspots{regions: make(map[string]int)}
}

// halfDegree rounds a coordinate to the nearest 0.5-degree center.
func halfDegree(v float64) float64 {
	return math.Round(v*2) / 2
}

// Name implements Processor.
func (p *GeographicHotspots) Name() string { return "geographic_hotspots" }

// Update implements Processor.
func (p *GeographicHotspots) Update(ev *event.Event) error {
	latC := halfDegree(ev.Latitude)
	lonC := halfDegree(ev.Longitude)

	p.mu.Lock()
	defer p.mu.Unlock()

	if ev.FlynnRegion != "" {
		p.regions[ev.FlynnRegion]++
	}

	for i := range p.cells {
		if math.Abs(p.cells[i].Lat-latC) < cellTolerance && math.Abs(p.cells[i].Lon-lonC) < cellTolerance {
			p.cells[i].Count++
			return nil
		}
	}
	p.cells = append(p.cells, CoordinateCell{Lat: latC, Lon: lonC, Count: 1})
	return nil
}

// Recompute implements Processor.
func (p *GeographicHotspots) Recompute(tab *table.Table) error {
	if err := tab.CheckConsistency(); err != nil {
		return errors.Wrap(err, "geographic hotspots")
	}

	regions := make(map[string]int)
	for _, r := range tab.Regions() {
		if r != "" {
			regions[r]++
		}
	}

	type gridKey struct{ lat, lon int }
	grid := make(map[gridKey]int)
	lats := tab.Latitudes()
	lons := tab.Longitudes()
	for i := range lats {
		k := gridKey{lat: int(math.Round(lats[i] * 2)), lon: int(math.Round(lons[i] * 2))}
		grid[k]++
	}
	cells := make([]CoordinateCell, 0, len(grid))
	for k, n := range grid {
		cells = append(cells, CoordinateCell{
			Lat:   float64(k.lat) / 2,
			Lon:   float64(k.lon) / 2,
			Count: n,
		})
	}

	p.mu.Lock()
	p.regions = regions
	p.cells = cells
	p.mu.Unlock()
	return nil
}

// ClearState implements Processor.
func (p *GeographicHotspots) ClearState() {
	p.mu.Lock()
	p.regions = make(map[string]int)
	p.cells = nil
	p.mu.Unlock()
}

// RegionCounts returns regions sorted by descending count. Ties sort
// by region name for a stable order.
func (p *GeographicHotspots) RegionCounts() []RegionCount {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]RegionCount, 0, len(p.regions))
	for r, n := range p.regions {
		out = append(out, RegionCount{Region: r, Count: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Region < out[b].Region
	})
	return out
}

// CoordinateClusters returns the coordinate cells sorted by latitude
// then longitude, so the incremental and recomputed views present the
// same order.
func (p *GeographicHotspots) CoordinateClusters() []CoordinateCell {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]CoordinateCell, len(p.cells))
	copy(out, p.cells)
	sort.Slice(out, func(a, b int) bool {
		if out[a].Lat != out[b].Lat {
			return out[a].Lat < out[b].Lat
		}
		return out[a].Lon < out[b].Lon
	})
	return out
}

// Summary implements Processor.
func (p *GeographicHotspots) Summary(tab *table.Table) (Summary, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data := map[string]any{
		"regions": len(p.regions),
		"cells":   len(p.cells),
	}

	top, topCount := "", 0
	for r, n := range p.regions {
		if n > topCount || (n == topCount && top != "" && r < top) {
			top, topCount = r, n
		}
	}
	if topCount > 0 {
		data["most_active_region"] = top
		data["most_active_region_count"] = topCount
	}

	return Summary{Title: "Geographic Hotspots", Data: data}, nil
}
