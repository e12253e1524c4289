package weather

import (
	"context"
)

// Provider abstracts a current-conditions source (e.g. OpenWeatherMap,
// WeatherAPI, Open-Meteo).
type Provider interface {
	Name() string
	Current(ctx context.Context, at Coordinates, units Units) (Snapshot, error)
}
