package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/smart-billboard/internal/billboard"
	"github.com/i474232898/smart-billboard/internal/catalog"
	"github.com/i474232898/smart-billboard/internal/compose"
	"github.com/i474232898/smart-billboard/internal/geo"
	"github.com/i474232898/smart-billboard/internal/llm"
	"github.com/i474232898/smart-billboard/internal/observability"
	"github.com/i474232898/smart-billboard/internal/recommend"
	"github.com/i474232898/smart-billboard/internal/weather"
)

type stubMessages struct {
	res  billboard.Result
	err  error
	last billboard.Request
	hook func()
}

func (s *stubMessages) GenerateMessage(ctx context.Context, req billboard.Request) (billboard.Result, error) {
	s.last = req
	if s.hook != nil {
		s.hook()
	}
	return s.res, s.err
}

func newTestApp(t *testing.T, messages MessageGenerator) *fiber.App {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	app := NewApp(Options{Name: "test", AccessLog: io.Discard})
	RegisterRoutes(app, messages, cat, nil)
	return app
}

func post(t *testing.T, app *fiber.App, target, body string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestGenerateMessage_EmptyBody(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	svc := billboard.NewService(cat, nil, nil, nil, nil, nil)
	app := newTestApp(t, svc)

	for _, body := range []string{"{}", ""} {
		resp, data := post(t, app, "/api/generate-message", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Missing latitude or longitude"}`, data)
	}
}

func TestGenerateMessage_BadInput(t *testing.T) {
	app := newTestApp(t, &stubMessages{})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"latitude out of range", `{"latitude":91,"longitude":-76.6}`, msgInvalidCoordinates},
		{"longitude out of range", `{"latitude":39.2,"longitude":-200}`, msgInvalidCoordinates},
		{"malformed json", `{"latitude":`, msgInvalidBody},
		{"wrong type", `{"latitude":"north"}`, msgInvalidBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := post(t, app, "/api/generate-message", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, data)
		})
	}
}

func TestGenerateMessage_ServiceErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
		want string
	}{
		{billboard.ErrMissingCoordinates, http.StatusBadRequest, msgMissingCoordinates},
		{billboard.ErrInvalidCoordinates, http.StatusBadRequest, msgInvalidCoordinates},
		{errors.Join(billboard.ErrWeather, errors.New("502")), http.StatusInternalServerError, msgWeatherFailed},
		{errors.Join(billboard.ErrGeneration, errors.New("401")), http.StatusInternalServerError, msgGenerationFailed},
		{errors.New("boom"), http.StatusInternalServerError, msgInternal},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			app := newTestApp(t, &stubMessages{err: tt.err})
			resp, data := post(t, app, "/api/generate-message", `{"latitude":39.29,"longitude":-76.61}`)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, data)
		})
	}
}

func TestGenerateMessage_PanicIsInternalError(t *testing.T) {
	app := newTestApp(t, &stubMessages{hook: func() { panic("nil map") }})

	resp, data := post(t, app, "/api/generate-message", `{"latitude":39.29,"longitude":-76.61}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Internal server error"}`, data)
}

func TestGenerateMessage_PassesRequest(t *testing.T) {
	stub := &stubMessages{res: billboard.Result{Message: "Hello Baltimore!"}}
	app := newTestApp(t, stub)

	resp, data := post(t, app, "/api/generate-message", `{"latitude":0,"longitude":0,"locationName":"Null Island"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Hello Baltimore!"}`, data)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	require.NotNil(t, stub.last.Latitude)
	assert.InDelta(t, 0, *stub.last.Latitude, 0)
	assert.Empty(t, stub.last.Preset)
	assert.Equal(t, "Null Island", stub.last.LocationName)
}

func TestGenerateMessage_KnownPresetIgnoresBody(t *testing.T) {
	bodies := []string{
		"not json",
		`{"latitude":"here"}`,
		`{"latitude":500,"longitude":0}`,
		`{"latitude":39.29,"longitude":-76.61,"locationName":"Baltimore"}`,
		"",
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			stub := &stubMessages{res: billboard.Result{Message: "Hello New York!"}}
			app := newTestApp(t, stub)

			resp, data := post(t, app, "/api/generate-message?location=nyc", body)
			require.Equal(t, http.StatusOK, resp.StatusCode, data)
			assert.JSONEq(t, `{"message":"Hello New York!"}`, data)

			assert.Equal(t, "nyc", stub.last.Preset)
			assert.Nil(t, stub.last.Latitude)
			assert.Nil(t, stub.last.Longitude)
			assert.Empty(t, stub.last.LocationName)
		})
	}
}

func TestGenerateMessage_UnknownPresetUsesBody(t *testing.T) {
	stub := &stubMessages{res: billboard.Result{Message: "Hello!"}}
	app := newTestApp(t, stub)

	resp, data := post(t, app, "/api/generate-message?location=atlantis", "not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, data)

	resp, _ = post(t, app, "/api/generate-message?location=atlantis", `{"latitude":39.29,"longitude":-76.61}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "atlantis", stub.last.Preset)
	require.NotNil(t, stub.last.Latitude)
	assert.InDelta(t, 39.29, *stub.last.Latitude, 1e-9)
}

type fixedGeocoder struct{ zip string }

func (f fixedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (geo.Place, error) {
	return geo.Place{Latitude: lat, Longitude: lon, PostalCode: f.zip}, nil
}

type fixedWeather struct{}

func (fixedWeather) Name() string { return "fixed" }

func (fixedWeather) Current(ctx context.Context, at weather.Coordinates, units weather.Units) (weather.Snapshot, error) {
	return weather.Snapshot{LocationLabel: "Baltimore", ConditionText: "clear sky", Temperature: 85, Units: units}, nil
}

type echoGenerator struct{ prompt string }

func (g *echoGenerator) Name() string { return "echo" }

func (g *echoGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	g.prompt = req.Prompt
	return "'Sunny Baltimore? Let community solar do the work!'", nil
}

func TestGenerateMessage_BaltimoreEndToEnd(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	gen := &echoGenerator{}
	composer := compose.New(gen, compose.NewGuard(compose.DefaultDenylist, 3, 0), cat, nil, compose.Config{MaxTokens: 60})
	ws := weather.NewService([]weather.Provider{fixedWeather{}}, weather.UnitsImperial)
	svc := billboard.NewService(cat, fixedGeocoder{zip: "21201"}, ws, recommend.NewKeyword(cat), composer, metrics)

	app := NewApp(Options{Name: "test", AccessLog: io.Discard})
	RegisterRoutes(app, svc, cat, reg)

	resp, data := post(t, app, "/api/generate-message", `{"latitude":39.2904,"longitude":-76.6122}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, data)

	var body generateResponse
	require.NoError(t, json.Unmarshal([]byte(data), &body))
	assert.Equal(t, "Sunny Baltimore? Let community solar do the work!", body.Message)
	assert.Contains(t, gen.prompt, "community solar")
	assert.Contains(t, gen.prompt, "Mount Vernon")

	mresp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, mresp.StatusCode)
	metricsBody, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(metricsBody), `smart_billboard_messages_total{outcome="success"} 1`)
}

func TestPresetsAndHealth(t *testing.T) {
	app := newTestApp(t, &stubMessages{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/presets", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var presets []presetResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&presets))
	require.Len(t, presets, 3)
	assert.Equal(t, "baltimore", presets[0].Key)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
