package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bookshelf-ai/internal/llm"
	"bookshelf-ai/internal/metrics"
)

const (
	summaryMaxTokens        = 300
	recommendationMaxTokens = 500
	defaultTemperature      = 0.7

	opSummary         = "summary"
	opRecommendations = "recommendations"
)

// ModelError is the single error kind returned by Service. It wraps the
// failure that interrupted generation, so errors.As still reaches
// *llm.ServiceError or *llm.ConnectionError.
type ModelError struct {
	Op  string
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("failed to generate %s: %v", e.Op, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// Service produces book summaries and recommendations from a Generator.
// It keeps no per-call state and is safe for concurrent use.
type Service struct {
	gen llm.Generator
	log *slog.Logger
}

// NewService returns a Service backed by gen.
func NewService(gen llm.Generator, log *slog.Logger) *Service {
	return &Service{gen: gen, log: log}
}

// GenerateSummary asks the model for a 3-5 paragraph summary of content.
func (s *Service) GenerateSummary(ctx context.Context, content string) (summary string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			summary, err = "", s.fail(opSummary, err)
		}
		metrics.ObserveGeneration(opSummary, err, time.Since(start))
	}()

	text, err := s.gen.GenerateText(ctx, llm.GenerationRequest{
		Prompt:      BuildSummaryPrompt(content),
		MaxTokens:   summaryMaxTokens,
		Temperature: defaultTemperature,
	})
	if err != nil {
		return "", err
	}
	return ExtractSummary(text), nil
}

// GenerateRecommendations asks the model for five books matching prefs that
// are not in booksRead.
func (s *Service) GenerateRecommendations(ctx context.Context, prefs Preferences, booksRead []ReadingEntry) (recs []Recommendation, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			recs, err = nil, s.fail(opRecommendations, err)
		} else {
			metrics.RecommendationsParsed.Observe(float64(len(recs)))
		}
		metrics.ObserveGeneration(opRecommendations, err, time.Since(start))
	}()

	text, err := s.gen.GenerateText(ctx, llm.GenerationRequest{
		Prompt:      BuildRecommendationPrompt(prefs, booksRead),
		MaxTokens:   recommendationMaxTokens,
		Temperature: defaultTemperature,
	})
	if err != nil {
		return nil, err
	}
	return ExtractRecommendations(text), nil
}

func (s *Service) fail(op string, err error) error {
	s.log.Error("error generating "+op, "err", err)
	return &ModelError{Op: op, Err: err}
}
