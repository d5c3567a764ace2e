// Package processor implements the per-statistic processors maintained
// by the analytics engine.
//
// Every processor keeps a compact aggregate that can absorb one event
// at a time (Update) or be rebuilt from scratch against the full event
// table (Recompute). Update is cheap and may be approximate in narrow,
// documented ways; Recompute is the ground truth. Each processor guards
// its own state with its own mutex, so processors can be updated and
// recomputed independently.
package processor

import (
	"time"

	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/event"
)

// Processor is a single incrementally-maintained statistic.
type Processor interface {
	// Name identifies the processor in logs and summaries.
	Name() string

	// Update absorbs one newly appended event into the aggregate.
	Update(ev *event.Event) error

	// Recompute rebuilds the aggregate from the full table, discarding
	// all incremental state. It either fully succeeds or leaves the
	// previous state untouched only in the sense that the caller must
	// treat the processor as stale on error.
	Recompute(tab *table.Table) error

	// ClearState resets the aggregate to its empty defaults.
	ClearState()

	// Summary returns the processor's auxiliary statistics computed
	// against the given table.
	Summary(tab *table.Table) (Summary, error)
}

// Summary is a titled block of auxiliary statistics.
type Summary struct {
	Title string
	Data  map[string]any
}

// MagnitudeBucket is one 0.2-unit magnitude histogram bucket.
// Label is the lower bound formatted as a decimal ("2", "2.2").
type MagnitudeBucket struct {
	Label string
	Count int
}

// DateCount is the number of events on one UTC calendar day.
type DateCount struct {
	Date  time.Time
	Count int
}

// HourCount is the number of events in one UTC hour of day (0-23).
type HourCount struct {
	Hour  int
	Count int
}

// MonthCount is the number of events in one calendar month.
type MonthCount struct {
	Month time.Month
	Count int
}

// WeekdayCount is the number of events on one day of the week.
// Weekday is the three-letter English name ("Mon".."Sun").
type WeekdayCount struct {
	Weekday string
	Count   int
}

// MagDepth is one raw (magnitude, depth) observation.
type MagDepth struct {
	Magnitude float64
	Depth     float64
}

// RegionCount is the number of events in one Flynn region.
type RegionCount struct {
	Region string
	Count  int
}

// CoordinateCell is a 0.5-degree grid cell with its event count.
// Lat and Lon are the cell center, rounded to the nearest half degree.
type CoordinateCell struct {
	Lat   float64
	Lon   float64
	Count int
}

// MagnitudeFrequency is one 0.1-unit magnitude-frequency point.
// Cumulative counts all events at or above Magnitude.
type MagnitudeFrequency struct {
	Magnitude  float64
	Count      int
	Cumulative int
}

// RiskMetrics is the headline probabilistic risk tuple.
type RiskMetrics struct {
	ProbM5In30Days    float64
	ProbM6In365Days   float64
	ProbM7In365Days   float64
	TotalEnergyJoules float64
}
