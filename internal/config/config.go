package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	// File enables size-based rotation when set.
	File string `env:"LOG_FILE"`
}

type GeoConfig struct {
	Provider     string        `env:"GEOCODER" envDefault:"nominatim" validate:"oneof=nominatim google none"`
	NominatimURL string        `env:"NOMINATIM_URL" envDefault:"https://nominatim.openstreetmap.org" validate:"url"`
	UserAgent    string        `env:"GEOCODER_USER_AGENT" envDefault:"smart-billboard/1.0"`
	GoogleAPIKey string        `env:"GOOGLE_MAPS_API_KEY"`
	CacheSize    int           `env:"GEOCODE_CACHE_SIZE" envDefault:"1000" validate:"gte=0"`
	CacheTTL     time.Duration `env:"GEOCODE_CACHE_TTL" envDefault:"1h"`
}

type WeatherConfig struct {
	OpenWeatherAPIKey string   `env:"OPENWEATHER_API_KEY"`
	WeatherAPIKey     string   `env:"WEATHERAPI_API_KEY"`
	Providers         []string `env:"WEATHER_PROVIDERS" envDefault:"openweather,openmeteo" envSeparator:"," validate:"min=1,dive,oneof=openweather weatherapi openmeteo"`
	Units             string   `env:"WEATHER_UNITS" envDefault:"imperial" validate:"oneof=imperial metric"`
}

type LLMConfig struct {
	Provider      string  `env:"LLM_PROVIDER" envDefault:"openai" validate:"oneof=openai gemini"`
	OpenAIAPIKey  string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string  `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com" validate:"url"`
	OpenAIModel   string  `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	GeminiAPIKey  string  `env:"GEMINI_API_KEY"`
	GeminiModel   string  `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash-lite"`
	MaxTokens     int     `env:"LLM_MAX_TOKENS" envDefault:"60" validate:"gt=0"`
	Temperature   float32 `env:"LLM_TEMPERATURE" envDefault:"1.0" validate:"gte=0,lte=2"`
}

type MessageConfig struct {
	Policy        string        `env:"RECOMMEND_POLICY" envDefault:"keyword" validate:"oneof=keyword weighted score"`
	Format        string        `env:"MESSAGE_FORMAT" envDefault:"plain" validate:"oneof=plain structured"`
	TalkingPoints string        `env:"TALKING_POINTS" envDefault:"off" validate:"oneof=off first random"`
	RewriteDashes bool          `env:"REWRITE_DASHES" envDefault:"true"`
	ContentGuard  bool          `env:"CONTENT_GUARD" envDefault:"true"`
	GuardAttempts int           `env:"CONTENT_GUARD_ATTEMPTS" envDefault:"3" validate:"gte=1,lte=10"`
	GuardDelay    time.Duration `env:"CONTENT_GUARD_DELAY" envDefault:"200ms"`
	CatalogPath   string        `env:"CATALOG_PATH"`
}

// ServerConfig configures the message service.
type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080" validate:"numeric"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Weather WeatherConfig
	Geo     GeoConfig
	LLM     LLMConfig
	Message MessageConfig
	Log     LogConfig
}

// DisplayConfig configures the terminal display client.
type DisplayConfig struct {
	ServerURL    string        `env:"BILLBOARD_SERVER_URL" envDefault:"http://localhost:8080" validate:"url"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"60s" validate:"gte=1s"`
	HTTPTimeout  time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	Preset       string        `env:"BILLBOARD_PRESET"`
	StateFile    string        `env:"BILLBOARD_STATE_FILE" envDefault:".billboard-state.json"`
	Latitude     string        `env:"DEVICE_LATITUDE" validate:"omitempty,latitude"`
	Longitude    string        `env:"DEVICE_LONGITUDE" validate:"omitempty,longitude"`

	Geo GeoConfig
	Log LogConfig
}

// LoadServer reads the server configuration from the environment, after
// loading a .env file when one exists.
func LoadServer() (*ServerConfig, error) {
	loadDotEnv()

	cfg := &ServerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	if err := cfg.checkKeys(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDisplay reads the display client configuration.
func LoadDisplay() (*DisplayConfig, error) {
	loadDotEnv()

	cfg := &DisplayConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	if (cfg.Latitude == "") != (cfg.Longitude == "") {
		return nil, errors.New("DEVICE_LATITUDE and DEVICE_LONGITUDE must be set together")
	}
	return cfg, nil
}

// Device returns the fixed device coordinates, if configured.
func (c *DisplayConfig) Device() (lat, lon float64, ok bool) {
	if c.Latitude == "" || c.Longitude == "" {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(c.Latitude, 64)
	lon, errLon := strconv.ParseFloat(c.Longitude, 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
}

// checkKeys requires the API key of every selected provider.
func (c *ServerConfig) checkKeys() error {
	for _, p := range c.Weather.Providers {
		switch {
		case p == "openweather" && c.Weather.OpenWeatherAPIKey == "":
			return errors.New("OPENWEATHER_API_KEY is required when WEATHER_PROVIDERS includes openweather")
		case p == "weatherapi" && c.Weather.WeatherAPIKey == "":
			return errors.New("WEATHERAPI_API_KEY is required when WEATHER_PROVIDERS includes weatherapi")
		}
	}

	switch {
	case c.LLM.Provider == "openai" && c.LLM.OpenAIAPIKey == "":
		return errors.New("OPENAI_API_KEY is required when LLM_PROVIDER is openai")
	case c.LLM.Provider == "gemini" && c.LLM.GeminiAPIKey == "":
		return errors.New("GEMINI_API_KEY is required when LLM_PROVIDER is gemini")
	case c.Geo.Provider == "google" && c.Geo.GoogleAPIKey == "":
		return errors.New("GOOGLE_MAPS_API_KEY is required when GEOCODER is google")
	}
	return nil
}

var validate = newValidator()

// newValidator reports failures by environment variable name.
func newValidator() func(any) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("env"), ",")
		if name == "" {
			return f.Name
		}
		return name
	})

	return func(cfg any) error {
		err := v.Struct(cfg)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("invalid %s: %q fails %s", fe.Field(), fmt.Sprint(fe.Value()), fe.Tag()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
}
