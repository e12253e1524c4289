package compose

import (
	"strings"
	"time"
)

// DefaultDenylist holds topics a public billboard must never mention.
var DefaultDenylist = []string{
	"war", "riot", "massacre", "shooting", "terror", "bomb", "murder",
	"killed", "disaster", "tragedy", "protest", "election", "attack",
}

const (
	DefaultGuardAttempts = 3
	DefaultGuardDelay    = 200 * time.Millisecond

	temperatureStep = 0.1
	maxTemperature  = 2.0
)

// Guard rejects generated text that contains a denylisted term anywhere,
// ignoring case. Inflected forms ("riots", "attacked") are caught as well.
type Guard struct {
	terms    []string
	attempts uint
	delay    time.Duration
}

// NewGuard builds a guard allowing attempts total generation calls.
func NewGuard(terms []string, attempts int, delay time.Duration) *Guard {
	if attempts < 1 {
		attempts = 1
	}
	if delay < 0 {
		delay = 0
	}

	g := &Guard{attempts: uint(attempts), delay: delay}

	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			g.terms = append(g.terms, t)
		}
	}
	return g
}

// Match returns the first denylisted term found in text, lowercased, or ""
// when the text is clean. A nil Guard matches nothing.
func (g *Guard) Match(text string) string {
	if g == nil {
		return ""
	}
	lower := strings.ToLower(text)
	for _, t := range g.terms {
		if strings.Contains(lower, t) {
			return t
		}
	}
	return ""
}

// Attempts is the total number of generation calls allowed per message.
func (g *Guard) Attempts() uint {
	if g == nil {
		return 1
	}
	return g.attempts
}

func (g *Guard) retryDelay() time.Duration {
	if g == nil {
		return 0
	}
	return g.delay
}

// perturb raises the sampling temperature for the nth retry.
func perturb(base float32, retry int) float32 {
	t := base + temperatureStep*float32(retry)
	if t > maxTemperature {
		return maxTemperature
	}
	return t
}
