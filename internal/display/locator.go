package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/i474232898/smart-billboard/internal/upstream"
)

// Location is a resolved viewer position. It is also the persisted shape of
// the manual override.
type Location struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	LocationName string  `json:"locationName"`
}

// Locator finds the device position.
type Locator interface {
	Locate(ctx context.Context) (Location, error)
}

// ErrNoLocator is returned when the device has no way to find itself.
var ErrNoLocator = errors.New("no device locator configured")

// StaticLocator always returns the same position.
type StaticLocator struct {
	Location Location
}

func (s StaticLocator) Locate(context.Context) (Location, error) {
	return s.Location, nil
}

type noLocator struct{}

func (noLocator) Locate(context.Context) (Location, error) {
	return Location{}, ErrNoLocator
}

const ipAPIURL = "http://ip-api.com"

// IPLocator approximates the device position from its public IP address
// using ip-api.com.
type IPLocator struct {
	baseURL string
	client  *upstream.Client
}

func NewIPLocator(client *upstream.Client, baseURL string) *IPLocator {
	if baseURL == "" {
		baseURL = ipAPIURL
	}
	return &IPLocator{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type ipAPIResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	City       string  `json:"city"`
	RegionName string  `json:"regionName"`
}

func (l *IPLocator) Locate(ctx context.Context) (Location, error) {
	endpoint := l.baseURL + "/json/?fields=status,message,lat,lon,city,regionName"

	resp, err := l.client.Do(ctx, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return Location{}, err
	}
	defer resp.Body.Close()

	var out ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Location{}, fmt.Errorf("decode ip-api response: %w", err)
	}
	if out.Status != "success" {
		return Location{}, fmt.Errorf("ip-api lookup failed: %s", out.Message)
	}

	name := out.City
	if out.RegionName != "" && name != "" {
		name += ", " + out.RegionName
	}
	return Location{Latitude: out.Lat, Longitude: out.Lon, LocationName: name}, nil
}
