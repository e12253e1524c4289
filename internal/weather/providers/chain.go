package providers

import (
	"net/http"

	"github.com/i474232898/smart-billboard/internal/upstream"
	"github.com/i474232898/smart-billboard/internal/weather"
)

// Keys holds the API keys of the keyed providers.
type Keys struct {
	OpenWeather string
	WeatherAPI  string
}

// Chain builds the failover chain in the given order: openweather,
// weatherapi, openmeteo. Unknown names are skipped. Each provider has its own
// breaker and reports a failed call without retrying it.
func Chain(names []string, keys Keys, httpClient *http.Client) []weather.Provider {
	var provs []weather.Provider
	for _, name := range names {
		client := upstream.NewClient(name, httpClient, upstream.NoRetry)
		switch name {
		case "openweather":
			provs = append(provs, NewOpenWeatherProvider(client, keys.OpenWeather, ""))
		case "weatherapi":
			provs = append(provs, NewWeatherAPIProvider(client, keys.WeatherAPI, ""))
		case "openmeteo":
			provs = append(provs, NewOpenMeteoProvider(client, ""))
		}
	}
	return provs
}
