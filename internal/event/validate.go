package event

import (
	"github.com/quakelens/quakelens/internal/errors"
)

// Physical plausibility ranges for event fields. Records outside these
// ranges are feed glitches and are rejected before they reach the
// analytics engine.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
	MinMagnitude = -5.0
	MaxMagnitude = 12.0
	MinDepthKm   = -10.0
	MaxDepthKm   = 1000.0
)

// Validate checks an event for structural and physical plausibility.
// Returns nil if the event is acceptable, otherwise a ValidationErrors
// describing every failed check.
func Validate(ev *Event) error {
	v := errors.NewValidationErrors()

	if ev.ID == "" {
		v.AddMissing("unid")
	}
	if ev.Time.IsZero() {
		v.AddMissing("time")
	}
	if ev.Latitude < MinLatitude || ev.Latitude > MaxLatitude {
		v.AddField("lat", "must be in [-90, 90]")
	}
	if ev.Longitude < MinLongitude || ev.Longitude > MaxLongitude {
		v.AddField("lon", "must be in [-180, 180]")
	}
	if ev.Magnitude < MinMagnitude || ev.Magnitude > MaxMagnitude {
		v.AddField("mag", "must be in [-5, 12]")
	}
	if ev.Depth < MinDepthKm || ev.Depth > MaxDepthKm {
		v.AddField("depth", "must be in [-10, 1000]")
	}

	return v.Err()
}

// ValidateBatch validates every event in a batch and returns the indexes
// of the invalid ones alongside a combined error.
func ValidateBatch(events []Event) ([]int, error) {
	var bad []int
	v := errors.NewValidationErrors()
	for i := range events {
		if err := Validate(&events[i]); err != nil {
			bad = append(bad, i)
			v.Add(errors.Wrapf(err, "event %d (%s)", i, events[i].ID))
		}
	}
	return bad, v.Err()
}
