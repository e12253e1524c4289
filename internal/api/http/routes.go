package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/smart-billboard/internal/billboard"
	"github.com/i474232898/smart-billboard/internal/catalog"
)

// Error bodies returned to display clients.
const (
	msgMissingCoordinates = "Missing latitude or longitude"
	msgInvalidCoordinates = "Invalid latitude or longitude"
	msgInvalidBody        = "Invalid request body"
	msgWeatherFailed      = "Failed to fetch weather"
	msgGenerationFailed   = "Failed to generate message"
	msgInternal           = "Internal server error"
)

var validate = validator.New()

type MessageGenerator interface {
	GenerateMessage(ctx context.Context, req billboard.Request) (billboard.Result, error)
}

// Presets is the part of the catalog the routes read.
type Presets interface {
	Preset(key string) (catalog.Preset, bool)
	Presets() []catalog.Preset
}

// Options configures the Fiber application.
type Options struct {
	Name         string
	WriteTimeout time.Duration
	// AccessLog receives the request log; nil means stdout.
	AccessLog io.Writer
}

// NewApp creates the Fiber app with the shared error handler and middleware.
func NewApp(opts Options) *fiber.App {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 30 * time.Second
	}

	app := fiber.New(fiber.Config{
		AppName:               opts.Name,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          opts.WriteTimeout,
		ErrorHandler:          ErrorHandler,
	})

	logCfg := logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}
	if opts.AccessLog != nil {
		logCfg.Output = opts.AccessLog
	}

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logCfg))
	app.Use(recover.New())

	return app
}

// ErrorHandler renders every error as {"error": message}. Anything that is
// not a *fiber.Error, panics included, becomes a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := msgInternal

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		slog.Error("unhandled request error",
			"path", c.Path(),
			"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
			"error", err,
		)
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. gatherer may be
// nil, which disables /metrics.
func RegisterRoutes(app *fiber.App, messages MessageGenerator, presets Presets, gatherer prometheus.Gatherer) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "smart-billboard",
		})
	})

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	api.Post("/generate-message", func(c *fiber.Ctx) error {
		req, err := parseGenerateRequest(c, presets)
		if err != nil {
			return err
		}

		res, err := messages.GenerateMessage(c.UserContext(), req)
		if err != nil {
			return mapServiceError(err)
		}

		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(generateResponse{Message: res.Message})
	})

	api.Get("/presets", func(c *fiber.Ctx) error {
		list := presets.Presets()
		out := make([]presetResponse, 0, len(list))
		for _, p := range list {
			out = append(out, presetResponse(p))
		}
		return c.JSON(out)
	})
}

// generateRequest is the POST body. Coordinates are pointers so that an
// absent value can be told apart from 0.
type generateRequest struct {
	Latitude     *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,longitude"`
	LocationName string   `json:"locationName" validate:"max=200"`
}

type generateResponse struct {
	Message string `json:"message"`
}

type presetResponse struct {
	Key       string  `json:"key"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// parseGenerateRequest reads the POST body. A known preset key in the
// location query makes the body irrelevant, so it is not decoded at all.
func parseGenerateRequest(c *fiber.Ctx, presets Presets) (billboard.Request, error) {
	preset := c.Query("location")
	if preset != "" {
		if _, ok := presets.Preset(preset); ok {
			return billboard.Request{Preset: preset}, nil
		}
	}

	var body generateRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return billboard.Request{}, fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
		}
	}

	if err := validate.Struct(body); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() != "LocationName" {
			return billboard.Request{}, fiber.NewError(fiber.StatusBadRequest, msgInvalidCoordinates)
		}
		return billboard.Request{}, fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	return billboard.Request{
		Latitude:     body.Latitude,
		Longitude:    body.Longitude,
		LocationName: body.LocationName,
		Preset:       preset,
	}, nil
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, billboard.ErrMissingCoordinates):
		return fiber.NewError(fiber.StatusBadRequest, msgMissingCoordinates)
	case errors.Is(err, billboard.ErrInvalidCoordinates):
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidCoordinates)
	case errors.Is(err, billboard.ErrWeather):
		slog.Warn("weather fetch failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, msgWeatherFailed)
	case errors.Is(err, billboard.ErrGeneration):
		slog.Warn("message generation failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, msgGenerationFailed)
	default:
		return err
	}
}
