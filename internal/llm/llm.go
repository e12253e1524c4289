// Package llm talks to the language-model providers that phrase billboard
// messages.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answered without any text.
var ErrEmptyResponse = errors.New("empty model response")

// Request is a single-turn generation request.
type Request struct {
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Generator produces text for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
