package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/smart-billboard/internal/upstream"
	"github.com/i474232898/smart-billboard/internal/weather"
)

const weatherAPIURL = "https://api.weatherapi.com/v1/current.json"

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *upstream.Client
}

func NewWeatherAPIProvider(client *upstream.Client, apiKey, baseURL string) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = weatherAPIURL
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Current(ctx context.Context, at weather.Coordinates, units weather.Units) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, fmt.Errorf("weatherapi api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "lat,lon".
		values.Set("q", formatCoord(at.Latitude)+","+formatCoord(at.Longitude))

		return http.NewRequest(http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := p.client.Do(ctx, buildRequest)
	if err != nil {
		return weather.Snapshot{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Location struct {
			Name           string `json:"name"`
			LocaltimeEpoch int64  `json:"localtime_epoch"`
		} `json:"location"`
		Current struct {
			TempC      float64  `json:"temp_c"`
			TempF      float64  `json:"temp_f"`
			FeelsLikeC *float64 `json:"feelslike_c"`
			FeelsLikeF *float64 `json:"feelslike_f"`
			Humidity   *float64 `json:"humidity"`
			Condition  struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("decode weatherapi response: %w", err)
	}

	snap := weather.Snapshot{
		LocationLabel: payload.Location.Name,
		ConditionText: payload.Current.Condition.Text,
		Temperature:   payload.Current.TempF,
		FeelsLike:     payload.Current.FeelsLikeF,
		HumidityPct:   payload.Current.Humidity,
		Units:         units,
		Provider:      p.name,
		Timestamp:     unixOrNow(payload.Location.LocaltimeEpoch),
	}
	if units == weather.UnitsMetric {
		snap.Temperature = payload.Current.TempC
		snap.FeelsLike = payload.Current.FeelsLikeC
	}
	if snap.ConditionText == "" {
		snap.ConditionText = unknownWeather
	}
	return snap, nil
}
