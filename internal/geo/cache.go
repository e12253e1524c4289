package geo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maypok86/otter/v2"
)

// LookupObserver is told about every cache lookup.
type LookupObserver func(method string, hit bool)

// Cached wraps a Geocoder with an in-memory otter cache. Empty results are
// not cached so a transient miss can be retried.
type Cached struct {
	inner   Geocoder
	cache   *otter.Cache[string, Place]
	observe LookupObserver
}

// NewCached creates a cache decorator around a geocoder.
func NewCached(inner Geocoder, maxEntries int, ttl time.Duration, observe LookupObserver) *Cached {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if observe == nil {
		observe = func(string, bool) {}
	}
	return &Cached{
		inner: inner,
		cache: otter.Must(&otter.Options[string, Place]{
			MaximumSize:      maxEntries,
			ExpiryCalculator: otter.ExpiryWriting[string, Place](ttl),
		}),
		observe: observe,
	}
}

// ReverseGeocode rounds coordinates to four decimals (about 11 m) for the key.
func (c *Cached) ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error) {
	key := fmt.Sprintf("rev:%.4f,%.4f", lat, lon)
	if p, ok := c.cache.GetIfPresent(key); ok {
		c.observe("reverse", true)
		p.Latitude, p.Longitude = lat, lon
		return p, nil
	}
	c.observe("reverse", false)

	p, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return p, err
	}
	if p.PostalCode != "" {
		c.cache.Set(key, p)
	}
	return p, nil
}

func (c *Cached) Geocode(ctx context.Context, query string) (Place, error) {
	key := "fwd:" + strings.ToLower(strings.Join(strings.Fields(query), " "))
	if p, ok := c.cache.GetIfPresent(key); ok {
		c.observe("forward", true)
		return p, nil
	}
	c.observe("forward", false)

	p, err := c.inner.Geocode(ctx, query)
	if err != nil {
		return p, err
	}
	if p.Latitude != 0 || p.Longitude != 0 {
		c.cache.Set(key, p)
	}
	return p, nil
}
