package geo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
)

var googleKeyOnce sync.Once

// Google implements Geocoder with the Google Maps Geocoding API.
//
// The geocoder package keeps its API key in a package variable and does not
// take a context, so calls run in a goroutine and are abandoned (not
// cancelled) when ctx ends.
type Google struct{}

// NewGoogle sets the process-wide Google Maps API key. Only the first key is
// used.
func NewGoogle(apiKey string) *Google {
	googleKeyOnce.Do(func() {
		geocoder.ApiKey = apiKey
	})
	return &Google{}
}

func (g *Google) ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error) {
	return await(ctx, func() (Place, error) {
		addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
		if err != nil {
			return Place{}, fmt.Errorf("google reverse geocode: %w", err)
		}
		if len(addresses) == 0 {
			return Place{}, ErrNotFound
		}
		a := addresses[0]
		return Place{
			Latitude:    lat,
			Longitude:   lon,
			PostalCode:  NormalizePostalCode(a.PostalCode),
			City:        a.City,
			DisplayName: a.FormattedAddress,
		}, nil
	})
}

func (g *Google) Geocode(ctx context.Context, query string) (Place, error) {
	addr, ok := parseUSAddress(query)
	if !ok {
		return Place{}, ErrNotFound
	}
	return await(ctx, func() (Place, error) {
		loc, err := geocoder.Geocoding(addr)
		if err != nil {
			return Place{}, fmt.Errorf("google geocode %q: %w", query, err)
		}
		return Place{
			Latitude:    loc.Latitude,
			Longitude:   loc.Longitude,
			PostalCode:  addr.PostalCode,
			City:        addr.City,
			DisplayName: strings.TrimSpace(query),
		}, nil
	})
}

// parseUSAddress accepts a zip code or "city, state".
func parseUSAddress(query string) (geocoder.Address, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return geocoder.Address{}, false
	}
	if IsZipCode(query) {
		return geocoder.Address{PostalCode: query, Country: "United States"}, true
	}
	city, state, _ := strings.Cut(query, ",")
	return geocoder.Address{
		City:    strings.TrimSpace(city),
		State:   strings.TrimSpace(state),
		Country: "United States",
	}, true
}

func await(ctx context.Context, fn func() (Place, error)) (Place, error) {
	type result struct {
		place Place
		err   error
	}
	done := make(chan result, 1)
	go func() {
		p, err := fn()
		done <- result{p, err}
	}()

	select {
	case <-ctx.Done():
		return Place{}, ctx.Err()
	case r := <-done:
		return r.place, r.err
	}
}
