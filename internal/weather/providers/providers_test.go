package providers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/smart-billboard/internal/upstream"
	"github.com/i474232898/smart-billboard/internal/weather"
)

var baltimore = weather.Coordinates{Latitude: 39.2904, Longitude: -76.6122}

func testClient(srv *httptest.Server) *upstream.Client {
	return upstream.NewClient("test", srv.Client(), upstream.BackoffConfig{
		MaxRetries:      0,
		InitialInterval: time.Millisecond,
	})
}

func TestOpenWeather_Current(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "39.290400", q.Get("lat"))
		assert.Equal(t, "-76.612200", q.Get("lon"))
		assert.Equal(t, "imperial", q.Get("units"))
		assert.Equal(t, "secret", q.Get("appid"))
		_, _ = w.Write([]byte(`{"name":"Baltimore","dt":1700000000,"weather":[{"main":"Clear","description":"clear sky"}],"main":{"temp":85.2,"feels_like":88,"humidity":40}}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(testClient(srv), "secret", srv.URL)
	snap, err := p.Current(context.Background(), baltimore, weather.UnitsImperial)
	require.NoError(t, err)

	assert.Equal(t, "Baltimore", snap.LocationLabel)
	assert.Equal(t, "clear sky", snap.ConditionText)
	assert.InDelta(t, 85.2, snap.Temperature, 1e-9)
	require.NotNil(t, snap.FeelsLike)
	assert.InDelta(t, 88.0, *snap.FeelsLike, 1e-9)
	require.NotNil(t, snap.HumidityPct)
	assert.InDelta(t, 40.0, *snap.HumidityPct, 1e-9)
	assert.Equal(t, "openweathermap", snap.Provider)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), snap.Timestamp)
}

func TestOpenWeather_OptionalFieldsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Somewhere","weather":[],"main":{"temp":60}}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(testClient(srv), "secret", srv.URL)
	snap, err := p.Current(context.Background(), baltimore, weather.UnitsImperial)
	require.NoError(t, err)
	assert.Equal(t, "unknown weather", snap.ConditionText)
	assert.Nil(t, snap.FeelsLike)
	assert.Nil(t, snap.HumidityPct)
}

func TestOpenWeather_Errors(t *testing.T) {
	p := NewOpenWeatherProvider(nil, "", "")
	_, err := p.Current(context.Background(), baltimore, weather.UnitsImperial)
	require.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p = NewOpenWeatherProvider(testClient(srv), "bad", srv.URL)
	_, err = p.Current(context.Background(), baltimore, weather.UnitsImperial)
	require.ErrorIs(t, err, upstream.ErrUnexpected)
}

func TestWeatherAPI_Current(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "39.290400,-76.612200", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"location":{"name":"Baltimore","localtime_epoch":1700000000},"current":{"temp_c":20,"temp_f":68,"feelslike_c":19,"feelslike_f":66.2,"humidity":55,"condition":{"text":"Partly cloudy"}}}`))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(testClient(srv), "key", srv.URL)

	snap, err := p.Current(context.Background(), baltimore, weather.UnitsImperial)
	require.NoError(t, err)
	assert.Equal(t, "Partly cloudy", snap.ConditionText)
	assert.InDelta(t, 68.0, snap.Temperature, 1e-9)
	assert.InDelta(t, 66.2, *snap.FeelsLike, 1e-9)

	snap, err = p.Current(context.Background(), baltimore, weather.UnitsMetric)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, snap.Temperature, 1e-9)
	assert.InDelta(t, 19.0, *snap.FeelsLike, 1e-9)
	assert.Equal(t, weather.UnitsMetric, snap.Units)
}

func TestOpenMeteo_Current(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fahrenheit", r.URL.Query().Get("temperature_unit"))
		_, _ = w.Write([]byte(`{"current_weather":{"temperature":71.5,"time":"2024-06-01T14:00","weathercode":61}}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(testClient(srv), srv.URL)
	snap, err := p.Current(context.Background(), baltimore, weather.UnitsImperial)
	require.NoError(t, err)
	assert.Equal(t, "rain", snap.ConditionText)
	assert.InDelta(t, 71.5, snap.Temperature, 1e-9)
	assert.Empty(t, snap.LocationLabel)
	assert.Equal(t, time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC), snap.Timestamp)
}

func TestDescribeWMOCode(t *testing.T) {
	assert.Equal(t, "clear sky", describeWMOCode(0))
	assert.Equal(t, "overcast clouds", describeWMOCode(3))
	assert.Equal(t, "snow", describeWMOCode(73))
	assert.Equal(t, "thunderstorm", describeWMOCode(99))
	assert.Equal(t, "unknown weather", describeWMOCode(42))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestChain_FailuresAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	httpClient := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(strings.NewReader("bad gateway")),
			Header:     make(http.Header),
			Request:    r,
		}, nil
	})}

	chain := Chain([]string{"openweather", "bogus", "weatherapi", "openmeteo"}, Keys{OpenWeather: "k1", WeatherAPI: "k2"}, httpClient)
	require.Len(t, chain, 3)

	for _, p := range chain {
		before := calls.Load()
		_, err := p.Current(context.Background(), baltimore, weather.UnitsImperial)
		require.ErrorIs(t, err, upstream.ErrServer, p.Name())
		assert.Equal(t, int32(1), calls.Load()-before, p.Name())
	}
}
