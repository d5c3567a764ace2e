// Package retention bounds the memory of the analytics engine by
// pruning the event table against a configured policy.
//
// Pruning is stop-the-world: processors have no subtraction path, so
// dropping rows means building the retained view and handing it to the
// engine's ReplaceTableAndRebuild, which recomputes everything.
package retention

import (
	"log/slog"
	"sync"
	"time"

	"github.com/quakelens/quakelens/internal/analytics"
	"github.com/quakelens/quakelens/internal/analytics/table"
	"github.com/quakelens/quakelens/internal/errors"
	"github.com/quakelens/quakelens/internal/event"
	"github.com/quakelens/quakelens/internal/logging"
)

// Policy bounds the retained catalog. A zero value disables the
// corresponding limit; a fully zero policy never prunes.
type Policy struct {
	// MaxEvents keeps at most this many of the most recent events.
	MaxEvents int

	// MaxAge drops events whose origin time is older than now-MaxAge.
	MaxAge time.Duration
}

// Enabled returns true if at least one limit is set.
func (p Policy) Enabled() bool {
	return p.MaxEvents > 0 || p.MaxAge > 0
}

// Validate checks the policy for nonsensical values.
func (p Policy) Validate() error {
	if p.MaxEvents < 0 {
		return errors.Wrap(errors.ErrInvalidPolicy, "max_events must be >= 0")
	}
	if p.MaxAge < 0 {
		return errors.Wrap(errors.ErrInvalidPolicy, "max_age must be >= 0")
	}
	return nil
}

// Stats tracks controller activity.
type Stats struct {
	RunsCompleted int64
	RunsSkipped   int64
	EventsDropped int64
	LastRunTime   time.Time
}

// Result describes one retention check.
type Result struct {
	Pruned        bool
	EventsBefore  int
	EventsAfter   int
	EventsDropped int
	Duration      time.Duration
}

// Controller applies a retention policy to an engine.
type Controller struct {
	mu     sync.Mutex
	policy Policy
	stats  Stats
	log    *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a retention controller.
func New(policy Policy) *Controller {
	return &Controller{
		policy: policy,
		log:    logging.Component("retention"),
		now:    time.Now,
	}
}

// Policy returns the configured policy.
func (c *Controller) Policy() Policy {
	return c.policy
}

// retained builds the pruned view of a table: newest first, rows older
// than the age cutoff dropped, then capped at MaxEvents.
func (c *Controller) retained(tab *table.Table, now time.Time) *table.Table {
	out := tab.SortByTimeDesc()
	if c.policy.MaxAge > 0 {
		cutoff := now.Add(-c.policy.MaxAge)
		out = out.Filter(func(ev *event.Event) bool {
			return !ev.Time.Before(cutoff)
		})
	}
	if c.policy.MaxEvents > 0 && out.Len() > c.policy.MaxEvents {
		out = out.Head(c.policy.MaxEvents)
	}
	return out
}

// Check applies the policy to the engine. If the current table is
// within limits nothing happens; otherwise the retained view replaces
// the table and all statistics are rebuilt from it.
func (c *Controller) Check(eng *analytics.Engine) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.now()
	snap := eng.TableSnapshot()
	res := Result{EventsBefore: snap.Len(), EventsAfter: snap.Len()}

	if !c.policy.Enabled() {
		c.stats.RunsSkipped++
		return res, nil
	}

	retained := c.retained(snap, start.UTC())
	if retained.Len() == snap.Len() {
		c.stats.RunsSkipped++
		return res, nil
	}

	if err := eng.ReplaceTableAndRebuild(retained); err != nil {
		return res, errors.Wrap(err, "rebuild after prune")
	}

	res.Pruned = true
	res.EventsAfter = retained.Len()
	res.EventsDropped = snap.Len() - retained.Len()
	res.Duration = c.now().Sub(start)

	c.stats.RunsCompleted++
	c.stats.EventsDropped += int64(res.EventsDropped)
	c.stats.LastRunTime = start
	c.log.Info("pruned events",
		"dropped", res.EventsDropped,
		"remaining", res.EventsAfter,
		"took", res.Duration)
	return res, nil
}

// DryRun reports what Check would prune without touching the engine.
func (c *Controller) DryRun(eng *analytics.Engine) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := eng.TableSnapshot()
	res := Result{EventsBefore: snap.Len(), EventsAfter: snap.Len()}
	if !c.policy.Enabled() {
		return res
	}

	retained := c.retained(snap, c.now().UTC())
	res.EventsAfter = retained.Len()
	res.EventsDropped = snap.Len() - retained.Len()
	res.Pruned = res.EventsDropped > 0
	return res
}

// Stats returns a copy of the controller statistics.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
