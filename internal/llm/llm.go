package llm

import (
	"context"
	"fmt"
)

// Generator is a text-completion backend. Implementations hold a long-lived
// transport that is safe for concurrent use and released by Close.
type Generator interface {
	GenerateText(ctx context.Context, req GenerationRequest) (string, error)
	Close() error
}

// GenerationRequest is built fresh per call and never persisted.
type GenerationRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Validate checks the token budget and the sampling temperature range.
func (r GenerationRequest) Validate() error {
	if r.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", r.MaxTokens)
	}
	if r.Temperature < 0 || r.Temperature > 1 {
		return fmt.Errorf("temperature must be within [0,1], got %g", r.Temperature)
	}
	return nil
}
