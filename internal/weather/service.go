package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnavailable is returned when no provider produced a snapshot.
var ErrUnavailable = errors.New("weather unavailable")

// Service queries providers in order and returns the first success.
type Service struct {
	providers []Provider
	units     Units
	onFailure func(provider string, err error)
}

// Option configures a Service.
type Option func(*Service)

// WithFailureHook registers fn to be called for every failed provider.
func WithFailureHook(fn func(provider string, err error)) Option {
	return func(s *Service) {
		s.onFailure = fn
	}
}

// NewService creates a new Service. Providers are tried in slice order.
func NewService(providers []Provider, units Units, opts ...Option) *Service {
	if !units.Valid() {
		units = UnitsImperial
	}
	s := &Service{
		providers: providers,
		units:     units,
		onFailure: func(string, error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Units returns the unit system snapshots are requested in.
func (s *Service) Units() Units {
	return s.units
}

// Current fetches the current conditions for the coordinates.
func (s *Service) Current(ctx context.Context, at Coordinates) (Snapshot, error) {
	if len(s.providers) == 0 {
		return Snapshot{}, fmt.Errorf("%w: no weather providers configured", ErrUnavailable)
	}

	var lastErr error
	for _, p := range s.providers {
		snap, err := p.Current(ctx, at, s.units)
		if err != nil {
			slog.Warn("weather provider failed",
				"provider", p.Name(),
				"lat", at.Latitude,
				"lon", at.Longitude,
				"error", err,
			)
			s.onFailure(p.Name(), err)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if snap.Provider == "" {
			snap.Provider = p.Name()
		}
		return snap, nil
	}

	return Snapshot{}, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}
