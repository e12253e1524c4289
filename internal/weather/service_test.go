package weather

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	snap  Snapshot
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Current(ctx context.Context, at Coordinates, units Units) (Snapshot, error) {
	s.calls++
	if s.err != nil {
		return Snapshot{}, s.err
	}
	snap := s.snap
	snap.Units = units
	return snap, nil
}

func TestService_FailsOverInOrder(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("boom")}
	second := &stubProvider{name: "second", snap: Snapshot{LocationLabel: "Baltimore", ConditionText: "clear sky", Temperature: 85}}
	third := &stubProvider{name: "third"}

	svc := NewService([]Provider{first, second, third}, UnitsImperial)
	snap, err := svc.Current(context.Background(), Coordinates{Latitude: 39.29, Longitude: -76.61})
	require.NoError(t, err)

	assert.Equal(t, "Baltimore", snap.LocationLabel)
	assert.Equal(t, "second", snap.Provider)
	assert.Equal(t, UnitsImperial, snap.Units)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, third.calls)
}

func TestService_AllFail(t *testing.T) {
	svc := NewService([]Provider{&stubProvider{name: "a", err: errors.New("down")}}, UnitsImperial)
	_, err := svc.Current(context.Background(), Coordinates{})
	require.ErrorIs(t, err, ErrUnavailable)

	svc = NewService(nil, UnitsImperial)
	_, err = svc.Current(context.Background(), Coordinates{})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestService_InvalidUnitsDefaultToImperial(t *testing.T) {
	svc := NewService(nil, Units("kelvin"))
	assert.Equal(t, UnitsImperial, svc.Units())
}

func TestService_FailureHook(t *testing.T) {
	var failed []string
	hook := WithFailureHook(func(provider string, err error) {
		failed = append(failed, provider)
	})

	svc := NewService([]Provider{
		&stubProvider{name: "openweather", err: errors.New("429")},
		&stubProvider{name: "open-meteo", snap: Snapshot{ConditionText: "fog"}},
	}, UnitsImperial, hook)

	_, err := svc.Current(context.Background(), Coordinates{})
	require.NoError(t, err)
	assert.Equal(t, []string{"openweather"}, failed)
}
