package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setServerKeys(t *testing.T) {
	t.Helper()
	t.Setenv("OPENWEATHER_API_KEY", "ow-key")
	t.Setenv("OPENAI_API_KEY", "sk-key")
}

func TestLoadServer_Defaults(t *testing.T) {
	setServerKeys(t)

	cfg, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, []string{"openweather", "openmeteo"}, cfg.Weather.Providers)
	assert.Equal(t, "imperial", cfg.Weather.Units)
	assert.Equal(t, "nominatim", cfg.Geo.Provider)
	assert.Equal(t, time.Hour, cfg.Geo.CacheTTL)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.OpenAIModel)
	assert.Equal(t, 60, cfg.LLM.MaxTokens)
	assert.InDelta(t, 1.0, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, "keyword", cfg.Message.Policy)
	assert.Equal(t, "plain", cfg.Message.Format)
	assert.Equal(t, "off", cfg.Message.TalkingPoints)
	assert.True(t, cfg.Message.ContentGuard)
	assert.Equal(t, 3, cfg.Message.GuardAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadServer_Overrides(t *testing.T) {
	setServerKeys(t)
	t.Setenv("PORT", "9090")
	t.Setenv("WEATHER_PROVIDERS", "openmeteo,openweather")
	t.Setenv("RECOMMEND_POLICY", "score")
	t.Setenv("TALKING_POINTS", "random")
	t.Setenv("LLM_TEMPERATURE", "0.4")
	t.Setenv("CONTENT_GUARD_DELAY", "1s")

	cfg, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"openmeteo", "openweather"}, cfg.Weather.Providers)
	assert.Equal(t, "score", cfg.Message.Policy)
	assert.Equal(t, "random", cfg.Message.TalkingPoints)
	assert.InDelta(t, 0.4, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, time.Second, cfg.Message.GuardDelay)
}

func TestLoadServer_InvalidValuesNameVariable(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"RECOMMEND_POLICY", "astrology"},
		{"WEATHER_UNITS", "kelvin"},
		{"WEATHER_PROVIDERS", "openweather,accuweather"},
		{"GEOCODER", "mapquest"},
		{"LOG_FORMAT", "xml"},
		{"CONTENT_GUARD_ATTEMPTS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			setServerKeys(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadServer()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadServer_MissingKeys(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-key")
	_, err := LoadServer()
	require.ErrorContains(t, err, "OPENWEATHER_API_KEY")

	t.Setenv("OPENWEATHER_API_KEY", "ow-key")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")
	_, err = LoadServer()
	require.ErrorContains(t, err, "GEMINI_API_KEY")

	t.Setenv("WEATHER_PROVIDERS", "openmeteo")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENWEATHER_API_KEY", "")
	_, err = LoadServer()
	require.NoError(t, err)
}

func TestLoadDisplay(t *testing.T) {
	cfg, err := LoadDisplay()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	_, _, ok := cfg.Device()
	assert.False(t, ok)

	t.Setenv("DEVICE_LATITUDE", "39.2904")
	t.Setenv("DEVICE_LONGITUDE", "-76.6122")
	t.Setenv("POLL_INTERVAL", "30s")
	cfg, err = LoadDisplay()
	require.NoError(t, err)
	lat, lon, ok := cfg.Device()
	require.True(t, ok)
	assert.InDelta(t, 39.2904, lat, 1e-9)
	assert.InDelta(t, -76.6122, lon, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
}

func TestLoadDisplay_Invalid(t *testing.T) {
	t.Setenv("DEVICE_LATITUDE", "39.2")
	_, err := LoadDisplay()
	require.Error(t, err)

	t.Setenv("DEVICE_LONGITUDE", "-400")
	_, err = LoadDisplay()
	require.ErrorContains(t, err, "DEVICE_LONGITUDE")

	t.Setenv("DEVICE_LONGITUDE", "-76.6")
	t.Setenv("POLL_INTERVAL", "10ms")
	_, err = LoadDisplay()
	require.ErrorContains(t, err, "POLL_INTERVAL")
}
