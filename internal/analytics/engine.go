// Package analytics implements the incremental analytics engine.
//
// The engine owns the columnar event table, an id index, and the set of
// statistic processors. Ingestion updates every processor in place;
// whenever an already-known event id is seen again the engine marks the
// aggregates stale and the next query triggers a full recompute from
// the table. Queries therefore always answer from state equivalent to a
// full recompute over the current table contents.
package analytics

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quakelens/quakelens/internal/analytics/processor"
	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/event"
	"github.com/quakelens/quakelens/internal/logging"
)

// Options configures the engine.
type Options struct {
	// CompletenessMagnitude for the Gutenberg-Richter fit.
	CompletenessMagnitude float64

	// RefitInterval is the incremental refit cadence of the
	// Gutenberg-Richter regression, in events.
	RefitInterval int
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		CompletenessMagnitude: processor.DefaultCompletenessMagnitude,
		RefitInterval:         processor.DefaultRefitInterval,
	}
}

// Engine is the incremental analytics engine.
//
// Locking: mu guards the table, the index and all processor mutations;
// processors additionally carry their own internal locks for safe
// reads. recomputeMu serializes full recomputes and table replacement.
// Lock order is always recomputeMu before mu.
type Engine struct {
	mu          sync.RWMutex
	recomputeMu sync.Mutex

	tab   *table.Table
	index sync.Map // event id -> row position at insertion time
	stale atomic.Bool

	magDist  *processor.MagnitudeDistribution
	temporal *processor.TemporalPatterns
	magDepth *processor.MagnitudeDepth
	hotspots *processor.GeographicHotspots
	gr       *processor.GutenbergRichter
	risk     *processor.RiskAssessment
	procs    []processor.Processor

	totalEvents atomic.Int64
	lastUpdated atomic.Int64 // unix nanos, 0 = never

	log *slog.Logger
}

// New creates an engine with an empty table.
func New(opts Options) *Engine {
	e := &Engine{
		tab:      table.New(),
		magDist:  processor.NewMagnitudeDistribution(),
		temporal: processor.NewTemporalPatterns(),
		magDepth: processor.NewMagnitudeDepth(),
		hotspots: processor.NewGeographicHotspots(),
		gr:       processor.NewGutenbergRichter(opts.CompletenessMagnitude, opts.RefitInterval),
		risk:     processor.NewRiskAssessment(),
		log:      logging.Component("engine"),
	}
	e.procs = []processor.Processor{
		e.magDist, e.temporal, e.magDepth, e.hotspots, e.gr, e.risk,
	}
	return e
}

// AddEvent ingests a single event.
//
// A new id appends a row, indexes it and updates every processor. An id
// that is already indexed only marks the aggregates stale; the stored
// row is never patched, the revised record takes effect at the next
// full recompute.
func (e *Engine) AddEvent(ev event.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, seen := e.index.Load(ev.ID); seen {
		e.stale.Store(true)
		e.log.Debug("duplicate event id, marked stale", "id", ev.ID)
		return nil
	}

	row := e.tab.Len()
	e.tab.Append(ev)
	e.index.Store(ev.ID, row)

	for _, p := range e.procs {
		if err := p.Update(&ev); err != nil {
			return fmt.Errorf("update %s: %w", p.Name(), err)
		}
	}

	e.bumpMeta(1)
	return nil
}

// AddEvents ingests a batch with a single table append.
//
// Duplicate ids within the batch collapse to the last occurrence; ids
// already present in the table mark the aggregates stale exactly as in
// AddEvent.
func (e *Engine) AddEvents(events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	fresh := make([]event.Event, 0, len(events))
	pos := make(map[string]int, len(events))
	staled := 0
	for _, ev := range events {
		if _, seen := e.index.Load(ev.ID); seen {
			staled++
			continue
		}
		if j, ok := pos[ev.ID]; ok {
			fresh[j] = ev
			continue
		}
		pos[ev.ID] = len(fresh)
		fresh = append(fresh, ev)
	}

	if staled > 0 {
		e.stale.Store(true)
		e.log.Debug("batch contained known ids, marked stale", "known", staled)
	}
	if len(fresh) == 0 {
		return nil
	}

	start := e.tab.Len()
	e.tab.Append(fresh...)
	for i := range fresh {
		e.index.Store(fresh[i].ID, start+i)
	}

	for i := range fresh {
		for _, p := range e.procs {
			if err := p.Update(&fresh[i]); err != nil {
				return fmt.Errorf("update %s: %w", p.Name(), err)
			}
		}
	}

	e.bumpMeta(len(fresh))
	return nil
}

// RecomputeAll rebuilds every processor from the table and clears the
// staleness flag. Any processor failure leaves the flag set so the next
// query retries; no partially recomputed state is ever published as
// fresh.
func (e *Engine) RecomputeAll() error {
	e.recomputeMu.Lock()
	defer e.recomputeMu.Unlock()

	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.recomputeLocked(); err != nil {
		e.stale.Store(true)
		return err
	}
	e.stale.Store(false)
	return nil
}

// recomputeLocked runs all processor recomputes concurrently against
// the current table. Caller holds recomputeMu and at least mu.RLock.
func (e *Engine) recomputeLocked() error {
	start := time.Now()
	var g errgroup.Group
	for _, p := range e.procs {
		g.Go(func() error {
			if err := p.Recompute(e.tab); err != nil {
				return fmt.Errorf("recompute %s: %w", p.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	e.log.Debug("recompute complete", "events", e.tab.Len(), "took", time.Since(start))
	return nil
}

// ensureFresh recomputes all processors if the aggregates are stale.
// Called by every statistic getter before reading processor state.
func (e *Engine) ensureFresh() error {
	if !e.stale.Load() {
		return nil
	}

	e.recomputeMu.Lock()
	defer e.recomputeMu.Unlock()
	if !e.stale.Load() {
		return nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.recomputeLocked(); err != nil {
		return err
	}
	e.stale.Store(false)
	return nil
}

// Clear drops all events and resets every processor and the metadata.
func (e *Engine) Clear() {
	e.recomputeMu.Lock()
	defer e.recomputeMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tab = table.New()
	e.index.Clear()
	for _, p := range e.procs {
		p.ClearState()
	}
	e.stale.Store(false)
	e.totalEvents.Store(0)
	e.lastUpdated.Store(0)
	e.log.Info("engine cleared")
}

// ReplaceTableAndRebuild atomically swaps in a new table, rebuilds the
// id index from its id column, clears all processors and recomputes
// them. On recompute failure the engine stays stale so the next query
// retries against the new table.
func (e *Engine) ReplaceTableAndRebuild(newTab *table.Table) error {
	e.recomputeMu.Lock()
	defer e.recomputeMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tab = newTab
	e.index.Clear()
	for i, id := range newTab.IDs() {
		e.index.Store(id, i)
	}
	for _, p := range e.procs {
		p.ClearState()
	}

	if err := e.recomputeLocked(); err != nil {
		e.stale.Store(true)
		return err
	}
	e.stale.Store(false)
	e.totalEvents.Store(int64(newTab.Len()))
	e.lastUpdated.Store(time.Now().UTC().UnixNano())
	return nil
}

// bumpMeta updates the cache metadata after a successful mutation.
// Caller holds mu.
func (e *Engine) bumpMeta(added int) {
	e.totalEvents.Add(int64(added))
	e.lastUpdated.Store(time.Now().UTC().UnixNano())
}

// =============================================================================
// Statistic getters. Each one recomputes first if the aggregates are
// stale, then reads the processor result under the engine read lock.
// =============================================================================

// MagnitudeDistribution returns the 0.2-unit magnitude histogram.
func (e *Engine) MagnitudeDistribution() ([]processor.MagnitudeBucket, error) {
	if err := e.ensureFresh(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.magDist.Result(), nil
}

// DailyFrequency returns per-day event counts, ascending by date.
func (e *Engine) DailyFrequency() ([]processor.DateCount, error) {
	if err := e.ensureFresh(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.temporal.Daily(), nil
}

// HourlyFrequency returns per-hour-of-day event counts, ascending.
func (e *Engine) HourlyFrequency() ([]processor.HourCount, error) {
	if err := e.ensureFresh(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.temporal.Hourly(), nil
}

// MonthlyFrequency returns per-month event counts, ascending.
func (e *Engine) MonthlyFrequency() ([]processor.MonthCount, error) {
	if err := e.ensureFresh(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.temporal.Monthly(), nil
}

// WeeklyFrequency returns all seven weekday counts, Monday first.
func (e *Engine) WeeklyFrequency() ([]processor.WeekdayCount, error) {
	if err := e.ensureFresh(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.temporal.Weekly(), nil
}

// MagnitudeDepthPairs returns the raw (magnitude, depth) observations.
func (e *Engine) MagnitudeDepthPairs() ([]processor.MagDepth, error) {
	if err := e.ensureFresh(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.magDepth.Result(), nil
}

// RegionHotspots returns per-region counts, descending.
func (e *Engine) RegionHotspots() ([]processor.RegionCount, error) {
	if err := e.ensureFresh(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hotspots.RegionCounts(), nil
}

// CoordinateClusters returns the half-degree coordinate cells.
func (e *Engine) CoordinateClusters() ([]processor.CoordinateCell, error) {
	if err := e.ensureFresh(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hotspots.CoordinateClusters(), nil
}

// BValue returns the Gutenberg-Richter b-value estimate.
func (e *Engine) BValue() (float64, error) {
	if err := e.ensureFresh(); err != nil {
		return 0, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gr.BValue(), nil
}

// MagnitudeFrequencyData returns the 0.1-unit magnitude-frequency
// points with cumulative counts.
func (e *Engine) MagnitudeFrequencyData() ([]processor.MagnitudeFrequency, error) {
	if err := e.ensureFresh(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gr.FrequencyData(), nil
}

// RiskMetrics returns the headline probabilistic risk tuple.
func (e *Engine) RiskMetrics() (processor.RiskMetrics, error) {
	if err := e.ensureFresh(); err != nil {
		return processor.RiskMetrics{}, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.risk.Metrics(), nil
}

// TotalEnergy returns the cumulative radiated energy in joules.
func (e *Engine) TotalEnergy() (float64, error) {
	if err := e.ensureFresh(); err != nil {
		return 0, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.risk.TotalEnergy(), nil
}

// =============================================================================
// Raw table reads. These answer from the table itself, which is always
// current, so they do not trigger a recompute.
// =============================================================================

// EventCount returns the number of stored events.
func (e *Engine) EventCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tab.Len()
}

// TableSnapshot returns a deep copy of the current table.
func (e *Engine) TableSnapshot() *table.Table {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tab.Clone()
}

// ChronologicalEvents returns all events newest first.
func (e *Engine) ChronologicalEvents() []event.Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tab.SortByTimeDesc().Events()
}

// Metadata returns the last successful mutation time (zero if never)
// and the running event count.
func (e *Engine) Metadata() (time.Time, int) {
	ns := e.lastUpdated.Load()
	var t time.Time
	if ns != 0 {
		t = time.Unix(0, ns).UTC()
	}
	return t, int(e.totalEvents.Load())
}

// Stale reports whether the aggregates are pending a full recompute.
func (e *Engine) Stale() bool {
	return e.stale.Load()
}
