// Package table implements the columnar event store backing the
// analytics engine.
//
// A Table keeps one typed slice per event field, in insertion order.
// Rows are append-only; sorting and filtering never mutate a table in
// place but produce derived tables. Column accessors hand out the
// backing slices for cheap scans, so callers must hold the owning
// engine's read lock while iterating and must never write through them.
package table

import (
	"sort"
	"time"

	"github.com/quakelens/quakelens/internal/errors"
	"github.com/quakelens/quakelens/internal/event"
)

// Table is an ordered, append-only columnar store of seismic events.
// Timestamps are stored as UTC nanoseconds since the epoch.
type Table struct {
	ids            []string
	times          []int64
	lastUpdates    []int64
	lats           []float64
	lons           []float64
	depths         []float64
	mags           []float64
	magTypes       []string
	evTypes        []string
	regions        []string
	sourceIDs      []string
	sourceCatalogs []string
	authors        []string
}

// New creates an empty table.
func New() *Table {
	return &Table{}
}

// WithCapacity creates an empty table with preallocated columns.
func WithCapacity(n int) *Table {
	return &Table{
		ids:            make([]string, 0, n),
		times:          make([]int64, 0, n),
		lastUpdates:    make([]int64, 0, n),
		lats:           make([]float64, 0, n),
		lons:           make([]float64, 0, n),
		depths:         make([]float64, 0, n),
		mags:           make([]float64, 0, n),
		magTypes:       make([]string, 0, n),
		evTypes:        make([]string, 0, n),
		regions:        make([]string, 0, n),
		sourceIDs:      make([]string, 0, n),
		sourceCatalogs: make([]string, 0, n),
		authors:        make([]string, 0, n),
	}
}

// FromEvents builds a table from a slice of events, preserving order.
func FromEvents(events []event.Event) *Table {
	t := WithCapacity(len(events))
	t.Append(events...)
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.ids)
}

// Append adds one or more events as new rows at the end of the table.
func (t *Table) Append(events ...event.Event) {
	for i := range events {
		ev := &events[i]
		t.ids = append(t.ids, ev.ID)
		t.times = append(t.times, ev.Time.UTC().UnixNano())
		t.lastUpdates = append(t.lastUpdates, ev.LastUpdate.UTC().UnixNano())
		t.lats = append(t.lats, ev.Latitude)
		t.lons = append(t.lons, ev.Longitude)
		t.depths = append(t.depths, ev.Depth)
		t.mags = append(t.mags, ev.Magnitude)
		t.magTypes = append(t.magTypes, ev.MagnitudeType)
		t.evTypes = append(t.evTypes, ev.EventType)
		t.regions = append(t.regions, ev.FlynnRegion)
		t.sourceIDs = append(t.sourceIDs, ev.SourceID)
		t.sourceCatalogs = append(t.sourceCatalogs, ev.SourceCatalog)
		t.authors = append(t.authors, ev.Author)
	}
}

// Row reconstructs the event stored at row i.
func (t *Table) Row(i int) (event.Event, error) {
	if i < 0 || i >= len(t.ids) {
		return event.Event{}, errors.Wrapf(errors.ErrRowOutOfRange, "row %d of %d", i, len(t.ids))
	}
	return event.Event{
		ID:            t.ids[i],
		Time:          time.Unix(0, t.times[i]).UTC(),
		LastUpdate:    time.Unix(0, t.lastUpdates[i]).UTC(),
		Latitude:      t.lats[i],
		Longitude:     t.lons[i],
		Depth:         t.depths[i],
		Magnitude:     t.mags[i],
		MagnitudeType: t.magTypes[i],
		EventType:     t.evTypes[i],
		FlynnRegion:   t.regions[i],
		SourceID:      t.sourceIDs[i],
		SourceCatalog: t.sourceCatalogs[i],
		Author:        t.authors[i],
	}, nil
}

// Events materializes all rows as event values, in row order.
func (t *Table) Events() []event.Event {
	out := make([]event.Event, len(t.ids))
	for i := range t.ids {
		out[i], _ = t.Row(i)
	}
	return out
}

// Column accessors. The returned slices alias the table's storage;
// treat them as read-only.

// IDs returns the event id column.
func (t *Table) IDs() []string { return t.ids }

// Times returns the origin time column (UTC nanoseconds).
func (t *Table) Times() []int64 { return t.times }

// Latitudes returns the latitude column.
func (t *Table) Latitudes() []float64 { return t.lats }

// Longitudes returns the longitude column.
func (t *Table) Longitudes() []float64 { return t.lons }

// Depths returns the depth column (km).
func (t *Table) Depths() []float64 { return t.depths }

// Magnitudes returns the magnitude column.
func (t *Table) Magnitudes() []float64 { return t.mags }

// Regions returns the Flynn region column.
func (t *Table) Regions() []string { return t.regions }

// CheckConsistency verifies that all columns have the same length.
// A mismatch means the table was corrupted and is a computation error.
func (t *Table) CheckConsistency() error {
	n := len(t.ids)
	cols := []struct {
		name string
		len  int
	}{
		{"time", len(t.times)},
		{"lastupdate", len(t.lastUpdates)},
		{"lat", len(t.lats)},
		{"lon", len(t.lons)},
		{"depth", len(t.depths)},
		{"mag", len(t.mags)},
		{"magtype", len(t.magTypes)},
		{"evtype", len(t.evTypes)},
		{"flynn_region", len(t.regions)},
		{"source_id", len(t.sourceIDs)},
		{"source_catalog", len(t.sourceCatalogs)},
		{"auth", len(t.authors)},
	}
	for _, c := range cols {
		if c.len != n {
			return errors.NewColumnMismatch(c.name, c.len, n)
		}
	}
	return nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := WithCapacity(len(t.ids))
	c.ids = append(c.ids, t.ids...)
	c.times = append(c.times, t.times...)
	c.lastUpdates = append(c.lastUpdates, t.lastUpdates...)
	c.lats = append(c.lats, t.lats...)
	c.lons = append(c.lons, t.lons...)
	c.depths = append(c.depths, t.depths...)
	c.mags = append(c.mags, t.mags...)
	c.magTypes = append(c.magTypes, t.magTypes...)
	c.evTypes = append(c.evTypes, t.evTypes...)
	c.regions = append(c.regions, t.regions...)
	c.sourceIDs = append(c.sourceIDs, t.sourceIDs...)
	c.sourceCatalogs = append(c.sourceCatalogs, t.sourceCatalogs...)
	c.authors = append(c.authors, t.authors...)
	return c
}

// Filter returns a new table containing only the rows for which keep
// returns true, preserving row order.
func (t *Table) Filter(keep func(ev *event.Event) bool) *Table {
	out := New()
	for i := range t.ids {
		ev, _ := t.Row(i)
		if keep(&ev) {
			out.Append(ev)
		}
	}
	return out
}

// SortByTimeDesc returns a new table with rows ordered newest first.
// Ties keep their original relative order.
func (t *Table) SortByTimeDesc() *Table {
	idx := make([]int, len(t.ids))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return t.times[idx[a]] > t.times[idx[b]]
	})
	out := WithCapacity(len(idx))
	for _, i := range idx {
		ev, _ := t.Row(i)
		out.Append(ev)
	}
	return out
}

// Head returns a new table with at most n leading rows.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > len(t.ids) {
		n = len(t.ids)
	}
	out := WithCapacity(n)
	for i := 0; i < n; i++ {
		ev, _ := t.Row(i)
		out.Append(ev)
	}
	return out
}
