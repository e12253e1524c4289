package weather

import (
	"time"
)

// Units is the unit system requested from providers.
type Units string

const (
	UnitsImperial Units = "imperial"
	UnitsMetric   Units = "metric"
)

// Valid reports whether u is a supported unit system.
func (u Units) Valid() bool {
	return u == UnitsImperial || u == UnitsMetric
}

// Symbol is the temperature suffix for u, or "" when u is unset.
func (u Units) Symbol() string {
	switch u {
	case UnitsImperial:
		return "°F"
	case UnitsMetric:
		return "°C"
	}
	return ""
}

// Coordinates is a point on the globe in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Snapshot is the current weather at a location, built fresh per request.
type Snapshot struct {
	LocationLabel string `json:"locationLabel"`
	ConditionText string `json:"conditionText"`

	// Temperature is in the units the snapshot was requested with.
	// Recommendation thresholds assume Fahrenheit.
	Temperature float64  `json:"temperature"`
	FeelsLike   *float64 `json:"feelsLike,omitempty"`
	HumidityPct *float64 `json:"humidityPercent,omitempty"`
	Units       Units    `json:"units"`

	Provider  string    `json:"provider"`
	Timestamp time.Time `json:"timestamp"` // always UTC
}
