// Package billboard sequences geocoding, weather, recommendation and message
// composition for one display request.
package billboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/i474232898/smart-billboard/internal/catalog"
	"github.com/i474232898/smart-billboard/internal/compose"
	"github.com/i474232898/smart-billboard/internal/geo"
	"github.com/i474232898/smart-billboard/internal/observability"
	"github.com/i474232898/smart-billboard/internal/recommend"
	"github.com/i474232898/smart-billboard/internal/weather"
)

var (
	ErrMissingCoordinates = errors.New("missing latitude or longitude")
	ErrInvalidCoordinates = errors.New("invalid latitude or longitude")
	ErrWeather            = errors.New("failed to fetch weather")
	ErrGeneration         = errors.New("failed to generate message")
)

// Request identifies the viewer location. A known Preset key wins over the
// coordinates.
type Request struct {
	Latitude     *float64
	Longitude    *float64
	LocationName string
	Preset       string
}

// Result is the outcome of a successful request.
type Result struct {
	Message        string
	Recommendation string
	ZipCode        string
	LocationLabel  string
}

// Tables is the part of the catalog the service reads.
type Tables interface {
	Preset(key string) (catalog.Preset, bool)
	Zip(code string) (catalog.ZipEntry, bool)
}

type WeatherSource interface {
	Current(ctx context.Context, at weather.Coordinates) (weather.Snapshot, error)
	Units() weather.Units
}

type MessageComposer interface {
	Compose(ctx context.Context, in compose.PromptInput) (string, error)
}

// Service is safe for concurrent use as long as its collaborators are.
type Service struct {
	tables   Tables
	geocoder geo.ReverseGeocoder
	weather  WeatherSource
	policy   recommend.Policy
	composer MessageComposer
	metrics  *observability.Metrics
}

// NewService wires the collaborators. geocoder and metrics may be nil.
func NewService(tables Tables, geocoder geo.ReverseGeocoder, ws WeatherSource, policy recommend.Policy, composer MessageComposer, metrics *observability.Metrics) *Service {
	if geocoder == nil {
		geocoder = geo.Nop{}
	}
	return &Service{
		tables:   tables,
		geocoder: geocoder,
		weather:  ws,
		policy:   policy,
		composer: composer,
		metrics:  metrics,
	}
}

// GenerateMessage runs the pipeline sequentially. A failed reverse geocode is
// not fatal: the request continues without a zip code.
func (s *Service) GenerateMessage(ctx context.Context, req Request) (res Result, err error) {
	start := time.Now()
	defer func() {
		s.observe(start, err)
	}()

	at, label, err := s.resolve(req)
	if err != nil {
		return Result{}, err
	}

	zip := s.zipFor(ctx, at)

	snap, err := s.weather.Current(ctx, at)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrWeather, err)
	}

	entry, _ := s.tables.Zip(zip)

	offering := s.policy.Recommend(recommend.Input{
		ZipCode:      zip,
		Weather:      snap.ConditionText,
		TemperatureF: snap.Temperature,
		Highlights:   entry.Highlights,
	})
	if s.metrics != nil {
		s.metrics.Recommendations.WithLabelValues(s.policy.Name(), offering).Inc()
	}

	if snap.LocationLabel != "" {
		label = snap.LocationLabel
	}

	message, err := s.composer.Compose(ctx, compose.PromptInput{
		Location:       label,
		Weather:        snap.ConditionText,
		Temperature:    snap.Temperature,
		TemperatureSym: snap.Units.Symbol(),
		Neighborhoods:  entry.Neighborhoods,
		Highlights:     entry.Highlights,
		Recommendation: offering,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	slog.Info("generated billboard message",
		"zip", zip,
		"location", label,
		"weather", snap.ConditionText,
		"provider", snap.Provider,
		"offering", offering,
	)

	return Result{
		Message:        message,
		Recommendation: offering,
		ZipCode:        zip,
		LocationLabel:  label,
	}, nil
}

func (s *Service) resolve(req Request) (weather.Coordinates, string, error) {
	if req.Preset != "" {
		if p, ok := s.tables.Preset(req.Preset); ok {
			return weather.Coordinates{Latitude: p.Latitude, Longitude: p.Longitude}, p.Name, nil
		}
		slog.Warn("unknown preset location, using request coordinates", "preset", req.Preset)
	}

	if req.Latitude == nil || req.Longitude == nil {
		return weather.Coordinates{}, "", ErrMissingCoordinates
	}
	lat, lon := *req.Latitude, *req.Longitude
	if !ValidCoordinates(lat, lon) {
		return weather.Coordinates{}, "", ErrInvalidCoordinates
	}
	return weather.Coordinates{Latitude: lat, Longitude: lon}, req.LocationName, nil
}

func (s *Service) zipFor(ctx context.Context, at weather.Coordinates) string {
	place, err := s.geocoder.ReverseGeocode(ctx, at.Latitude, at.Longitude)
	if err != nil {
		slog.Warn("reverse geocoding failed, continuing without zip code",
			"lat", at.Latitude,
			"lon", at.Longitude,
			"error", err,
		)
		return ""
	}
	return geo.NormalizePostalCode(place.PostalCode)
}

func (s *Service) observe(start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RequestDuration.Observe(time.Since(start).Seconds())
	s.metrics.MessagesGenerated.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrMissingCoordinates), errors.Is(err, ErrInvalidCoordinates):
		return "invalid"
	case errors.Is(err, ErrWeather):
		return "weather_error"
	case errors.Is(err, ErrGeneration):
		return "generation_error"
	default:
		return "error"
	}
}

// ValidCoordinates reports whether lat and lon are finite and in range.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
