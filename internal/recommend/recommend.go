// Package recommend picks the utility program to promote for a viewer's zip
// code and current weather.
package recommend

import (
	"fmt"
	"strings"

	"github.com/i474232898/smart-billboard/internal/catalog"
	"github.com/i474232898/smart-billboard/internal/common"
)

// Fahrenheit thresholds used by every policy. They are applied to whatever
// temperature the weather provider returned; see WEATHER_UNITS.
const (
	HotThresholdF  = 80.0
	ColdThresholdF = 50.0
)

// Policy names accepted by New.
const (
	PolicyKeyword  = "keyword"
	PolicyWeighted = "weighted"
	PolicyScore    = "score"
)

// Input is everything a policy may look at for one request.
type Input struct {
	ZipCode      string
	Weather      string
	TemperatureF float64
	Highlights   []string
}

// Policy selects exactly one offering name for an input.
type Policy interface {
	Name() string
	Recommend(in Input) string
}

// Tables is the subset of the catalog the policies read.
type Tables interface {
	OfferingsFor(zip string) catalog.Offerings
	General() []string
	Scoring() catalog.ScoringRules
}

// Category is the situational axis derived from weather and temperature.
type Category string

const (
	CategoryHot    Category = "hot"
	CategoryCold   Category = "cold"
	CategoryNormal Category = "normal"
)

// Classify derives the category from the weather text and temperature.
// "hot" wins over "cold" when both apply.
func Classify(weather string, tempF float64) Category {
	w := strings.ToLower(weather)
	switch {
	case strings.Contains(w, "hot") || tempF > HotThresholdF:
		return CategoryHot
	case strings.Contains(w, "cold") || tempF < ColdThresholdF:
		return CategoryCold
	default:
		return CategoryNormal
	}
}

// New builds the named policy. rnd may be nil for deterministic policies.
func New(name string, tables Tables, rnd common.RandSource) (Policy, error) {
	if rnd == nil {
		rnd = common.GlobalRand{}
	}
	switch name {
	case PolicyKeyword, "":
		return NewKeyword(tables), nil
	case PolicyWeighted:
		return NewWeighted(tables, rnd, DefaultCategoryRatio), nil
	case PolicyScore:
		return NewScore(tables), nil
	default:
		return nil, fmt.Errorf("unknown recommendation policy %q", name)
	}
}

func slotFor(o catalog.Offerings, c Category) string {
	switch c {
	case CategoryHot:
		return o.Hot
	case CategoryCold:
		return o.Cold
	default:
		return o.Normal
	}
}

func firstContaining(names []string, sub string) string {
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), strings.ToLower(sub)) {
			return n
		}
	}
	return ""
}
