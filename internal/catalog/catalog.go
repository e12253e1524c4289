// Package catalog holds the static lookup tables: zip code neighborhoods,
// recommendable offerings, talking points, scoring rules and preset locations.
// A Catalog is immutable once loaded.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
)

//go:embed data/baltimore.json
var embedded []byte

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// ErrInvalid is returned when catalog data fails validation.
var ErrInvalid = errors.New("invalid catalog")

// Catalog is the loaded, read-only set of tables.
type Catalog struct {
	zips          map[string]ZipEntry
	offerings     map[string]Offerings
	general       []string
	talkingPoints map[string][]string
	scoring       ScoringRules
	presets       map[string]Preset
}

type rawCatalog struct {
	Zips          []ZipEntry           `json:"zips"`
	Offerings     map[string][3]string `json:"offerings"`
	General       []string             `json:"general"`
	TalkingPoints map[string][]string  `json:"talking_points"`
	Scoring       ScoringRules         `json:"scoring"`
	Presets       map[string]Preset    `json:"presets"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Load reads a catalog from a JSON file. An empty path loads the embedded
// catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog JSON.
func Parse(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing catalog JSON: %w", err)
	}

	c := &Catalog{
		zips:          make(map[string]ZipEntry, len(raw.Zips)),
		offerings:     make(map[string]Offerings, len(raw.Offerings)),
		general:       append([]string(nil), raw.General...),
		talkingPoints: make(map[string][]string, len(raw.TalkingPoints)),
		scoring:       raw.Scoring,
		presets:       make(map[string]Preset, len(raw.Presets)),
	}

	for _, z := range raw.Zips {
		if !zipPattern.MatchString(z.ZipCode) {
			return nil, fmt.Errorf("%w: zip code %q is not 5 digits", ErrInvalid, z.ZipCode)
		}
		if _, dup := c.zips[z.ZipCode]; dup {
			return nil, fmt.Errorf("%w: duplicate zip code %s", ErrInvalid, z.ZipCode)
		}
		c.zips[z.ZipCode] = z
	}

	for key, slots := range raw.Offerings {
		for i, name := range slots {
			if name == "" {
				return nil, fmt.Errorf("%w: offerings[%s] slot %d is empty", ErrInvalid, key, i)
			}
		}
		c.offerings[key] = Offerings{Hot: slots[0], Cold: slots[1], Normal: slots[2]}
	}
	if _, ok := c.offerings[DefaultKey]; !ok {
		return nil, fmt.Errorf("%w: missing %q offerings entry", ErrInvalid, DefaultKey)
	}
	if len(c.general) == 0 {
		return nil, fmt.Errorf("%w: general offerings must not be empty", ErrInvalid)
	}

	for name, points := range raw.TalkingPoints {
		c.talkingPoints[name] = append([]string(nil), points...)
	}

	for key, p := range raw.Presets {
		p.Key = key
		c.presets[key] = p
	}

	return c, nil
}

// Zip returns the neighborhood entry for a zip code.
func (c *Catalog) Zip(code string) (ZipEntry, bool) {
	z, ok := c.zips[code]
	if !ok {
		return ZipEntry{}, false
	}
	return ZipEntry{
		ZipCode:       z.ZipCode,
		Neighborhoods: append([]string(nil), z.Neighborhoods...),
		Highlights:    append([]string(nil), z.Highlights...),
	}, true
}

// OfferingsFor returns the offerings for a zip code, falling back to the
// default entry for empty or unknown codes.
func (c *Catalog) OfferingsFor(code string) Offerings {
	if o, ok := c.offerings[code]; ok && code != "" {
		return o
	}
	return c.offerings[DefaultKey]
}

// General returns the catalog-wide fallback offerings.
func (c *Catalog) General() []string {
	return append([]string(nil), c.general...)
}

// TalkingPoints returns the promotional lines for an offering.
func (c *Catalog) TalkingPoints(offering string) []string {
	return append([]string(nil), c.talkingPoints[offering]...)
}

// Scoring returns the score policy rules.
func (c *Catalog) Scoring() ScoringRules {
	return c.scoring
}

// Preset looks up a named location.
func (c *Catalog) Preset(key string) (Preset, bool) {
	p, ok := c.presets[key]
	return p, ok
}

// Presets returns all presets ordered by key.
func (c *Catalog) Presets() []Preset {
	out := make([]Preset, 0, len(c.presets))
	for _, p := range c.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ZipCodes returns every zip code in the neighborhood table, sorted.
func (c *Catalog) ZipCodes() []string {
	out := make([]string, 0, len(c.zips))
	for code := range c.zips {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
