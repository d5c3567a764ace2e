// Package testutil provides event builders shared by tests.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/quakelens/quakelens/internal/event"
)

// BaseTime is a fixed reference origin time used by test events.
var BaseTime = time.Date(2024, time.December, 10, 12, 0, 0, 0, time.UTC)

// NewID returns a fresh unique event id.
func NewID() string {
	return uuid.NewString()
}

// Event builds a test event with the given parameters.
func Event(id string, mag, depth, lat, lon float64, t time.Time, region string) event.Event {
	return event.Event{
		ID:            id,
		Time:          t,
		LastUpdate:    t,
		Latitude:      lat,
		Longitude:     lon,
		Depth:         depth,
		Magnitude:     mag,
		MagnitudeType: "ml",
		EventType:     "ke",
		FlynnRegion:   region,
		SourceID:      id,
		SourceCatalog: "TEST",
		Author:        "TEST",
	}
}

// SimpleEvent builds a typical test event: magnitude 2.0, depth 10 km,
// in California, at BaseTime.
func SimpleEvent(id string) event.Event {
	return Event(id, 2.0, 10.0, 36.0, -120.0, BaseTime, "CENTRAL CALIFORNIA")
}

// Events builds n events with distinct ids, spacing origin times one
// minute apart and magnitudes 0.1 apart starting from startMag.
func Events(n int, startMag float64) []event.Event {
	out := make([]event.Event, n)
	for i := 0; i < n; i++ {
		out[i] = Event(
			NewID(),
			startMag+0.1*float64(i),
			10.0+float64(i),
			36.0, -120.0,
			BaseTime.Add(time.Duration(i)*time.Minute),
			"CENTRAL CALIFORNIA",
		)
	}
	return out
}
