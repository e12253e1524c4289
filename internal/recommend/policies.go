package recommend

import (
	"strings"

	"github.com/i474232898/smart-billboard/internal/common"
)

// Keyword matches weather keywords against offering names and otherwise
// falls back to the temperature slot.
type Keyword struct {
	tables Tables
}

func NewKeyword(tables Tables) *Keyword {
	return &Keyword{tables: tables}
}

func (p *Keyword) Name() string { return PolicyKeyword }

func (p *Keyword) Recommend(in Input) string {
	offers := p.tables.OfferingsFor(in.ZipCode)
	names := offers.Slice()
	w := strings.ToLower(in.Weather)

	if common.HasAny(w, "sun", "clear") {
		if s := firstContaining(names, "solar"); s != "" {
			return s
		}
	}
	if common.HasAny(w, "rain", "humid", "storm") {
		if s := firstContaining(names, "dehumidifier"); s != "" {
			return s
		}
	}
	return slotFor(offers, Classify(w, in.TemperatureF))
}

// DefaultCategoryRatio is the chance a hot or cold category returns its own
// slot. The normal category uses the complement.
const DefaultCategoryRatio = 0.7

// Weighted returns the category slot with a fixed probability and a random
// general offering otherwise.
type Weighted struct {
	tables Tables
	rand   common.RandSource
	ratio  float64
}

func NewWeighted(tables Tables, rnd common.RandSource, ratio float64) *Weighted {
	return &Weighted{tables: tables, rand: rnd, ratio: ratio}
}

func (p *Weighted) Name() string { return PolicyWeighted }

func (p *Weighted) Recommend(in Input) string {
	offers := p.tables.OfferingsFor(in.ZipCode)
	cat := Classify(in.Weather, in.TemperatureF)

	threshold := p.ratio
	if cat == CategoryNormal {
		threshold = 1 - p.ratio
	}
	if p.rand.Float64() < threshold {
		return slotFor(offers, cat)
	}

	general := p.tables.General()
	if len(general) == 0 {
		return slotFor(offers, cat)
	}
	return general[p.rand.IntN(len(general))]
}

// Score sums keyword and temperature points per offering and returns the
// highest scoring one. Ties go to the earlier slot.
type Score struct {
	tables Tables
}

func NewScore(tables Tables) *Score {
	return &Score{tables: tables}
}

func (p *Score) Name() string { return PolicyScore }

func (p *Score) Recommend(in Input) string {
	offers := p.tables.OfferingsFor(in.ZipCode)
	names := offers.Slice()
	scores := p.Scores(in)

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return names[best]
}

// Scores returns the accumulated points per slot (hot, cold, normal).
func (p *Score) Scores(in Input) []int {
	rules := p.tables.Scoring()
	names := p.tables.OfferingsFor(in.ZipCode).Slice()
	scores := make([]int, len(names))

	award := func(sub string, points int) {
		for i, n := range names {
			if strings.Contains(strings.ToLower(n), strings.ToLower(sub)) {
				scores[i] += points
			}
		}
	}

	w := strings.ToLower(in.Weather)
	for _, r := range rules.Weather {
		if common.HasAny(w, r.Keywords...) {
			award(r.Offering, r.Points)
		}
	}

	for _, r := range rules.Highlights {
		for _, h := range in.Highlights {
			if common.HasAny(h, r.Keywords...) {
				award(r.Offering, r.Points)
				break
			}
		}
	}

	if in.TemperatureF > HotThresholdF {
		scores[0] += rules.HotPoints
	}
	if in.TemperatureF < ColdThresholdF {
		scores[1] += rules.ColdPoints
	}
	return scores
}
