package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/smart-billboard/internal/upstream"
	"github.com/i474232898/smart-billboard/internal/weather"
)

const openWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *upstream.Client
}

// NewOpenWeatherProvider creates the provider. An empty baseURL uses the
// public API.
func NewOpenWeatherProvider(client *upstream.Client, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = openWeatherURL
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Current(ctx context.Context, at weather.Coordinates, units weather.Units) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", formatCoord(at.Latitude))
		values.Set("lon", formatCoord(at.Longitude))
		values.Set("units", string(units))
		values.Set("appid", p.apiKey)

		return http.NewRequest(http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := p.client.Do(ctx, buildRequest)
	if err != nil {
		return weather.Snapshot{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Name string `json:"name"`
		Dt   int64  `json:"dt"`
		Main struct {
			Temp      float64  `json:"temp"`
			FeelsLike *float64 `json:"feels_like"`
			Humidity  *float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("decode openweather response: %w", err)
	}

	return weather.Snapshot{
		LocationLabel: payload.Name,
		ConditionText: openWeatherDescription(payload.Weather),
		Temperature:   payload.Main.Temp,
		FeelsLike:     payload.Main.FeelsLike,
		HumidityPct:   payload.Main.Humidity,
		Units:         units,
		Provider:      p.name,
		Timestamp:     unixOrNow(payload.Dt),
	}, nil
}

func openWeatherDescription(items []struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}) string {
	if len(items) == 0 {
		return unknownWeather
	}
	if items[0].Description != "" {
		return items[0].Description
	}
	if items[0].Main != "" {
		return items[0].Main
	}
	return unknownWeather
}

const unknownWeather = "unknown weather"

func formatCoord(v float64) string {
	return fmt.Sprintf("%.6f", v)
}

func unixOrNow(sec int64) time.Time {
	if sec <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(sec, 0).UTC()
}
