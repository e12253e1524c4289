package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	httpapi "github.com/i474232898/smart-billboard/internal/api/http"
	"github.com/i474232898/smart-billboard/internal/billboard"
	"github.com/i474232898/smart-billboard/internal/catalog"
	"github.com/i474232898/smart-billboard/internal/compose"
	"github.com/i474232898/smart-billboard/internal/config"
	"github.com/i474232898/smart-billboard/internal/geo"
	"github.com/i474232898/smart-billboard/internal/llm"
	"github.com/i474232898/smart-billboard/internal/logging"
	"github.com/i474232898/smart-billboard/internal/observability"
	"github.com/i474232898/smart-billboard/internal/recommend"
	"github.com/i474232898/smart-billboard/internal/upstream"
	"github.com/i474232898/smart-billboard/internal/weather"
	"github.com/i474232898/smart-billboard/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logOut := logging.Setup(cfg.Log)
	defer logOut.Close()

	cat, err := catalog.Load(cfg.Message.CatalogPath)
	if err != nil {
		slog.Error("failed to load catalog", "path", cfg.Message.CatalogPath, "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	weatherService := weather.NewService(
		providers.Chain(cfg.Weather.Providers, providers.Keys{
			OpenWeather: cfg.Weather.OpenWeatherAPIKey,
			WeatherAPI:  cfg.Weather.WeatherAPIKey,
		}, httpClient),
		weather.Units(cfg.Weather.Units),
		weather.WithFailureHook(metrics.WeatherFailure),
	)
	if weatherService.Units() == weather.UnitsMetric {
		slog.Warn("WEATHER_UNITS=metric: recommendation thresholds are Fahrenheit and will classify Celsius readings as cold")
	}

	geocoder := newGeocoder(cfg.Geo, httpClient, metrics)

	policy, err := recommend.New(cfg.Message.Policy, cat, nil)
	if err != nil {
		slog.Error("invalid recommendation policy", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	generator, err := newGenerator(ctx, cfg.LLM, httpClient)
	if err != nil {
		slog.Error("failed to create language model client", "error", err)
		os.Exit(1)
	}

	var guard *compose.Guard
	if cfg.Message.ContentGuard {
		guard = compose.NewGuard(compose.DefaultDenylist, cfg.Message.GuardAttempts, cfg.Message.GuardDelay)
	}

	composer := compose.New(generator, guard, cat, nil, compose.Config{
		Temperature:   cfg.LLM.Temperature,
		MaxTokens:     cfg.LLM.MaxTokens,
		Structured:    cfg.Message.Format == "structured",
		RewriteDashes: cfg.Message.RewriteDashes,
		TalkingPoints: compose.TalkingPointMode(cfg.Message.TalkingPoints),
	}).WithObserver(metrics)

	// Core service orchestrating geocoding, weather, recommendation and generation.
	service := billboard.NewService(cat, geocoder, weatherService, policy, composer, metrics)

	app := httpapi.NewApp(httpapi.Options{
		Name:         "smart-billboard",
		WriteTimeout: 2 * cfg.HTTPTimeout,
		AccessLog:    logOut,
	})
	httpapi.RegisterRoutes(app, service, cat, prometheus.DefaultGatherer)

	go func() {
		slog.Info("listening",
			"port", cfg.Port,
			"policy", policy.Name(),
			"llm", generator.Name(),
			"geocoder", cfg.Geo.Provider,
		)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("fiber server stopped", "error", err)
			stop()
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
}

func newGeocoder(cfg config.GeoConfig, httpClient *http.Client, metrics *observability.Metrics) geo.Geocoder {
	var inner geo.Geocoder
	switch cfg.Provider {
	case "google":
		inner = geo.NewGoogle(cfg.GoogleAPIKey)
	case "none":
		return geo.Nop{}
	default:
		client := upstream.NewClient("nominatim", httpClient, upstream.NoRetry)
		inner = geo.NewNominatim(client, cfg.NominatimURL, cfg.UserAgent)
	}
	return geo.NewCached(inner, cfg.CacheSize, cfg.CacheTTL, metrics.ObserveGeocodeCache)
}

func newGenerator(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (llm.Generator, error) {
	if cfg.Provider == "gemini" {
		return llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "")
	}
	// A failed completion is reported as a generation failure, not retried.
	client := upstream.NewClient("openai", httpClient, upstream.NoRetry)
	return llm.NewOpenAI(client, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
}
