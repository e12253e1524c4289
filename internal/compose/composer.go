package compose

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/i474232898/smart-billboard/internal/common"
	"github.com/i474232898/smart-billboard/internal/llm"
)

// FallbackMessage replaces an empty model answer.
const FallbackMessage = "Welcome!"

// TalkingPointMode selects how a talking point is appended.
type TalkingPointMode string

const (
	TalkingPointsOff    TalkingPointMode = "off"
	TalkingPointsFirst  TalkingPointMode = "first"
	TalkingPointsRandom TalkingPointMode = "random"
)

func (m TalkingPointMode) Valid() bool {
	switch m {
	case TalkingPointsOff, TalkingPointsFirst, TalkingPointsRandom:
		return true
	}
	return false
}

// TalkingPointSource returns the talking points of an offering.
type TalkingPointSource interface {
	TalkingPoints(offering string) []string
}

// Observer is told about every generation call and every rejected answer.
type Observer interface {
	GenerationCall(provider string)
	ContentRejected(term string)
}

type nopObserver struct{}

func (nopObserver) GenerationCall(string)  {}
func (nopObserver) ContentRejected(string) {}

type Config struct {
	Temperature   float32
	MaxTokens     int
	Structured    bool
	RewriteDashes bool
	TalkingPoints TalkingPointMode
}

// rejectedError marks an answer that contained a denylisted term.
type rejectedError struct {
	term string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("generated text mentions %q", e.term)
}

type Composer struct {
	gen    llm.Generator
	guard  *Guard
	points TalkingPointSource
	rand   common.RandSource
	cfg    Config
	obs    Observer
}

// New creates a Composer. guard and points may be nil.
func New(gen llm.Generator, guard *Guard, points TalkingPointSource, rnd common.RandSource, cfg Config) *Composer {
	if rnd == nil {
		rnd = common.GlobalRand{}
	}
	if !cfg.TalkingPoints.Valid() {
		cfg.TalkingPoints = TalkingPointsOff
	}
	return &Composer{gen: gen, guard: guard, points: points, rand: rnd, cfg: cfg, obs: nopObserver{}}
}

// WithObserver sets the observer and returns c.
func (c *Composer) WithObserver(o Observer) *Composer {
	if o != nil {
		c.obs = o
	}
	return c
}

// Compose generates and normalizes the billboard message. Only a failure of
// the first generation call is returned as an error; later failures and a
// guard that never passes fall back to the last text obtained.
func (c *Composer) Compose(ctx context.Context, in PromptInput) (string, error) {
	in.Structured = c.cfg.Structured
	prompt := BuildPrompt(in)
	normalize := NormalizeOptions{Structured: c.cfg.Structured, RewriteDashes: c.cfg.RewriteDashes}

	var (
		last     string
		haveText bool
		term     string
		calls    int
	)

	err := retry.Do(
		func() error {
			req := llm.Request{Prompt: prompt, Temperature: c.cfg.Temperature, MaxTokens: c.cfg.MaxTokens}
			if calls > 0 {
				req.Prompt = amendPrompt(prompt, term)
				req.Temperature = perturb(c.cfg.Temperature, calls)
			}
			calls++
			c.obs.GenerationCall(c.gen.Name())

			raw, err := c.gen.Generate(ctx, req)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			last = Normalize(raw, normalize)
			haveText = true

			if term = c.guard.Match(last); term != "" {
				c.obs.ContentRejected(term)
				return &rejectedError{term: term}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.guard.Attempts()),
		retry.Delay(c.guard.retryDelay()),
		retry.MaxDelay(2*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("regenerating billboard message",
				"attempt", n+2,
				"provider", c.gen.Name(),
				"reason", err)
		}),
	)

	if err != nil {
		if !haveText {
			return "", fmt.Errorf("generate message: %w", err)
		}
		slog.Warn("using last generated message",
			"calls", calls,
			"provider", c.gen.Name(),
			"error", err)
	}

	if last == "" {
		last = FallbackMessage
	}
	return AppendTalkingPoint(last, c.pickTalkingPoint(in.Recommendation)), nil
}

func (c *Composer) pickTalkingPoint(offering string) string {
	if c.points == nil || c.cfg.TalkingPoints == TalkingPointsOff {
		return ""
	}
	points := c.points.TalkingPoints(offering)
	if len(points) == 0 {
		return ""
	}
	if c.cfg.TalkingPoints == TalkingPointsRandom {
		return points[c.rand.IntN(len(points))]
	}
	return points[0]
}
