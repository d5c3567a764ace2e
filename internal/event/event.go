// Package event defines the seismic event record and its validation rules.
//
// Events arrive from upstream seismic feeds as JSON objects; the field
// names on the wire (unid, lat, lon, mag, ...) are preserved in the JSON
// tags so feed payloads unmarshal directly.
package event

import (
	"time"
)

// Event is a single seismic event record. Events are immutable values;
// a revised report for the same ID arrives as a new Event with the same
// ID and a later LastUpdate.
type Event struct {
	// ID is the feed-assigned unique event identifier.
	ID string `json:"unid"`

	// Time is the origin time of the event, UTC.
	Time time.Time `json:"time"`

	// LastUpdate is when the feed last revised this event.
	LastUpdate time.Time `json:"lastupdate"`

	// Latitude in degrees, positive north.
	Latitude float64 `json:"lat"`

	// Longitude in degrees, positive east.
	Longitude float64 `json:"lon"`

	// Depth of the hypocenter in kilometers.
	Depth float64 `json:"depth"`

	// Magnitude on the scale named by MagnitudeType.
	Magnitude float64 `json:"mag"`

	// MagnitudeType is the magnitude scale (mb, ml, mw, ...).
	MagnitudeType string `json:"magtype"`

	// EventType classifies the event (ke = known earthquake, etc).
	EventType string `json:"evtype"`

	// FlynnRegion is the Flynn-Engdahl region name.
	FlynnRegion string `json:"flynn_region"`

	// SourceID and SourceCatalog identify the reporting agency's record.
	SourceID      string `json:"source_id"`
	SourceCatalog string `json:"source_catalog"`

	// Author is the agency that produced the solution.
	Author string `json:"auth"`
}

// Batch is a group of events ingested together.
type Batch struct {
	Events     []Event
	ReceivedAt time.Time
}

// NewBatch creates a batch with the given capacity hint.
func NewBatch(capacity int) *Batch {
	return &Batch{
		Events:     make([]Event, 0, capacity),
		ReceivedAt: time.Now().UTC(),
	}
}

// Add appends an event to the batch.
func (b *Batch) Add(ev Event) {
	b.Events = append(b.Events, ev)
}

// Len returns the number of events in the batch.
func (b *Batch) Len() int {
	return len(b.Events)
}

// IsEmpty returns true if the batch has no events.
func (b *Batch) IsEmpty() bool {
	return len(b.Events) == 0
}
