package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/smart-billboard/internal/upstream"
)

const (
	nominatimURL       = "https://nominatim.openstreetmap.org"
	defaultUserAgent   = "smart-billboard/1.0"
	nominatimCountries = "us"
)

// Nominatim implements Geocoder against the OpenStreetMap Nominatim API.
// The usage policy requires an identifying User-Agent.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *upstream.Client
}

func NewNominatim(client *upstream.Client, baseURL, userAgent string) *Nominatim {
	if baseURL == "" {
		baseURL = nominatimURL
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		Postcode string `json:"postcode"`
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
	} `json:"address"`
}

func (p nominatimPlace) toPlace() Place {
	lat, _ := strconv.ParseFloat(p.Lat, 64)
	lon, _ := strconv.ParseFloat(p.Lon, 64)
	city := p.Address.City
	if city == "" {
		city = p.Address.Town
	}
	if city == "" {
		city = p.Address.Village
	}
	return Place{
		Latitude:    lat,
		Longitude:   lon,
		PostalCode:  NormalizePostalCode(p.Address.Postcode),
		City:        city,
		DisplayName: p.DisplayName,
	}
}

// ReverseGeocode resolves coordinates to an address with a postal code.
func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	values.Set("format", "json")
	values.Set("addressdetails", "1")

	var result nominatimPlace
	if err := n.get(ctx, "/reverse", values, &result); err != nil {
		return Place{}, err
	}
	if result.Error != "" {
		return Place{}, fmt.Errorf("%w: %s", ErrNotFound, result.Error)
	}

	place := result.toPlace()
	// Reverse results may point at the matched feature; keep the query point.
	place.Latitude, place.Longitude = lat, lon
	return place, nil
}

// Geocode resolves a zip code or "city, state" within the United States.
func (n *Nominatim) Geocode(ctx context.Context, query string) (Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Place{}, ErrNotFound
	}

	values := url.Values{}
	if IsZipCode(query) {
		values.Set("postalcode", query)
	} else {
		values.Set("q", query)
	}
	values.Set("countrycodes", nominatimCountries)
	values.Set("format", "json")
	values.Set("addressdetails", "1")
	values.Set("limit", "1")

	var results []nominatimPlace
	if err := n.get(ctx, "/search", values, &results); err != nil {
		return Place{}, err
	}
	if len(results) == 0 {
		return Place{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}
	return results[0].toPlace(), nil
}

func (n *Nominatim) get(ctx context.Context, path string, values url.Values, out any) error {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, n.baseURL+path+"?"+values.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", n.userAgent)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := n.client.Do(ctx, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode nominatim response: %w", err)
	}
	return nil
}
