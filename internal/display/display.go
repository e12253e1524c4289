package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/smart-billboard/internal/geo"
	"github.com/i474232898/smart-billboard/internal/store"
)

// ManualLocationKey is the store key of the manual location override.
const ManualLocationKey = "manualLocation"

const (
	msgLocationUnavailable = "Unable to retrieve your location."
	msgConnectFailed       = "Failed to connect to server."
)

type MessageAPI interface {
	GenerateMessage(ctx context.Context, req MessageRequest) (string, error)
}

type Options struct {
	API      MessageAPI
	Locator  Locator
	Store    store.Store
	Geocoder geo.ForwardGeocoder
	Renderer Renderer
	Clock    clockwork.Clock
	// Preset, when set, replaces every other location source.
	Preset string
}

// Display drives one refresh cycle at a time: resolve the location, ask the
// message service, and render the resulting state.
type Display struct {
	api      MessageAPI
	locator  Locator
	store    store.Store
	geocoder geo.ForwardGeocoder
	renderer Renderer
	machine  *Machine
	preset   string

	refreshMu sync.Mutex
}

func New(opts Options) *Display {
	if opts.Locator == nil {
		opts.Locator = noLocator{}
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Geocoder == nil {
		opts.Geocoder = geo.Nop{}
	}
	if opts.Renderer == nil {
		opts.Renderer = nopRenderer{}
	}

	d := &Display{
		api:      opts.API,
		locator:  opts.Locator,
		store:    opts.Store,
		geocoder: opts.Geocoder,
		renderer: opts.Renderer,
		machine:  NewMachine(opts.Clock),
		preset:   strings.TrimSpace(opts.Preset),
	}
	d.renderer.Render(d.machine.Current())
	return d
}

// State returns the current display state.
func (d *Display) State() State {
	return d.machine.Current()
}

// Refresh runs one cycle. It never returns an error; failures end in the
// error state and the next cycle starts over.
func (d *Display) Refresh(ctx context.Context) State {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	d.renderer.Render(d.machine.Begin())

	req, label, err := d.request(ctx)
	if err != nil {
		slog.Warn("display: location unavailable", "error", err)
		return d.finish(d.machine.Fail(msgLocationUnavailable))
	}

	message, err := d.api.GenerateMessage(ctx, req)
	if err != nil {
		slog.Warn("display: message request failed", "error", err)
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return d.finish(d.machine.Fail(apiErr.Message))
		}
		return d.finish(d.machine.Fail(msgConnectFailed))
	}

	return d.finish(d.machine.Succeed(message, label))
}

func (d *Display) finish(s State) State {
	d.renderer.Render(s)
	return s
}

// request picks the location source: preset, then the manual override, then
// the device locator.
func (d *Display) request(ctx context.Context) (MessageRequest, string, error) {
	if d.preset != "" {
		return MessageRequest{Preset: d.preset}, d.preset, nil
	}

	loc, ok, err := d.ManualLocation()
	if err != nil {
		slog.Warn("display: ignoring unreadable manual location", "error", err)
	}
	if !ok {
		loc, err = d.locator.Locate(ctx)
		if err != nil {
			return MessageRequest{}, "", err
		}
	}

	lat, lon := loc.Latitude, loc.Longitude
	return MessageRequest{Latitude: &lat, Longitude: &lon, LocationName: loc.LocationName}, loc.LocationName, nil
}

// ManualLocation returns the persisted override, if any.
func (d *Display) ManualLocation() (Location, bool, error) {
	var loc Location
	err := d.store.Get(ManualLocationKey, &loc)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Location{}, false, nil
	case err != nil:
		return Location{}, false, err
	}
	return loc, true, nil
}

// SetManualLocation geocodes a zip code or "city, state" query and persists
// it as the override for all later cycles.
func (d *Display) SetManualLocation(ctx context.Context, query string) (Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Location{}, errors.New("location query is empty")
	}

	place, err := d.geocoder.Geocode(ctx, query)
	if err != nil {
		return Location{}, fmt.Errorf("could not find %q: %w", query, err)
	}

	loc := Location{Latitude: place.Latitude, Longitude: place.Longitude, LocationName: query}
	if err := d.store.Put(ManualLocationKey, loc); err != nil {
		return Location{}, fmt.Errorf("save manual location: %w", err)
	}
	slog.Info("display: manual location set", "query", query, "lat", loc.Latitude, "lon", loc.Longitude)
	return loc, nil
}

// ClearManualLocation discards the override and reverts to the device
// locator.
func (d *Display) ClearManualLocation() error {
	return d.store.Delete(ManualLocationKey)
}

type nopRenderer struct{}

func (nopRenderer) Render(State) {}
