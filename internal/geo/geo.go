// Package geo resolves coordinates to postal codes and free-text locations
// to coordinates.
package geo

import (
	"context"
	"errors"
	"regexp"
)

// ErrNotFound is returned when a geocoder has no result for the input.
var ErrNotFound = errors.New("location not found")

// Place is a geocoding result.
type Place struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PostalCode  string  `json:"postalCode,omitempty"`
	City        string  `json:"city,omitempty"`
	DisplayName string  `json:"displayName,omitempty"`
}

// ReverseGeocoder converts coordinates to a place.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error)
}

// ForwardGeocoder converts a zip code or "city, state" string to a place.
type ForwardGeocoder interface {
	Geocode(ctx context.Context, query string) (Place, error)
}

// Geocoder does both directions.
type Geocoder interface {
	ReverseGeocoder
	ForwardGeocoder
}

var zip5 = regexp.MustCompile(`^\s*(\d{5})`)

// NormalizePostalCode trims ZIP+4 and surrounding noise down to five digits.
// Codes that do not start with five digits are returned unchanged.
func NormalizePostalCode(code string) string {
	if m := zip5.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	return code
}

// IsZipCode reports whether s is exactly a five digit zip code.
func IsZipCode(s string) bool {
	return len(s) == 5 && zip5.MatchString(s)
}

// Nop never resolves anything. It is used when geocoding is disabled.
type Nop struct{}

func (Nop) ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error) {
	return Place{Latitude: lat, Longitude: lon}, nil
}

func (Nop) Geocode(ctx context.Context, query string) (Place, error) {
	return Place{}, ErrNotFound
}
