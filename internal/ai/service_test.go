package ai

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookshelf-ai/internal/llm"
	"bookshelf-ai/internal/logger"
)

func TestGenerateSummary(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*llm.MockGenerator)
		want     string
		wantErr  bool
		checkErr func(*testing.T, error)
	}{
		{
			name: "extracts summary from model output",
			setup: func(g *llm.MockGenerator) {
				g.On("GenerateText", mock.Anything, mock.MatchedBy(func(req llm.GenerationRequest) bool {
					return req.MaxTokens == 300 && req.Temperature == 0.7 &&
						req.Prompt == BuildSummaryPrompt("chapter one")
				})).Return("SUMMARY: A quiet story.", nil).Once()
			},
			want: "A quiet story.",
		},
		{
			name: "empty model output falls back",
			setup: func(g *llm.MockGenerator) {
				g.On("GenerateText", mock.Anything, mock.Anything).Return("", nil).Once()
			},
			want: "Could not generate summary.",
		},
		{
			name: "service error is wrapped",
			setup: func(g *llm.MockGenerator) {
				g.On("GenerateText", mock.Anything, mock.Anything).
					Return("", &llm.ServiceError{StatusCode: http.StatusBadGateway}).Once()
			},
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				var modelErr *ModelError
				require.ErrorAs(t, err, &modelErr)
				assert.Equal(t, "failed to generate summary: http error: 502", err.Error())

				var svcErr *llm.ServiceError
				require.ErrorAs(t, err, &svcErr)
				assert.Equal(t, http.StatusBadGateway, svcErr.StatusCode)
			},
		},
		{
			name: "connection error is wrapped",
			setup: func(g *llm.MockGenerator) {
				g.On("GenerateText", mock.Anything, mock.Anything).
					Return("", &llm.ConnectionError{Err: errors.New("dial tcp: connection refused")}).Once()
			},
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				var modelErr *ModelError
				require.ErrorAs(t, err, &modelErr)
				assert.Contains(t, err.Error(), "connection refused")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(llm.MockGenerator)
			tt.setup(gen)
			svc := NewService(gen, logger.Discard())

			got, err := svc.GenerateSummary(context.Background(), "chapter one")

			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, got)
				tt.checkErr(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			gen.AssertExpectations(t)
		})
	}
}

func TestGenerateRecommendations(t *testing.T) {
	prefs := Preferences{PreferredGenres: []string{"sci-fi"}}
	history := []ReadingEntry{{Title: "Dune", Author: "Frank Herbert"}}

	t.Run("parses model output", func(t *testing.T) {
		gen := new(llm.MockGenerator)
		gen.On("GenerateText", mock.Anything, llm.GenerationRequest{
			Prompt:      BuildRecommendationPrompt(prefs, history),
			MaxTokens:   500,
			Temperature: 0.7,
		}).Return("1. Hyperion by Dan Simmons: Pilgrims.\n2. Foundation by Isaac Asimov\nEmpires.", nil).Once()
		svc := NewService(gen, logger.Discard())

		got, err := svc.GenerateRecommendations(context.Background(), prefs, history)

		require.NoError(t, err)
		assert.Equal(t, []Recommendation{
			{Title: "Hyperion", Author: "Dan Simmons", Explanation: "Pilgrims."},
			{Title: "Foundation", Author: "Isaac Asimov", Explanation: "Empires."},
		}, got)
		gen.AssertExpectations(t)
	})

	t.Run("failure returns no partial result", func(t *testing.T) {
		gen := new(llm.MockGenerator)
		gen.On("GenerateText", mock.Anything, mock.Anything).
			Return("", &llm.ServiceError{StatusCode: http.StatusInternalServerError}).Once()
		svc := NewService(gen, logger.Discard())

		got, err := svc.GenerateRecommendations(context.Background(), prefs, history)

		assert.Nil(t, got)
		var modelErr *ModelError
		require.ErrorAs(t, err, &modelErr)
		assert.Equal(t, "recommendations", modelErr.Op)
		assert.Equal(t, "failed to generate recommendations: http error: 500", err.Error())
	})

	t.Run("panic in generator is wrapped", func(t *testing.T) {
		gen := new(llm.MockGenerator)
		gen.On("GenerateText", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { panic("decoder exploded") }).
			Return("", nil).Once()
		svc := NewService(gen, logger.Discard())

		got, err := svc.GenerateRecommendations(context.Background(), prefs, history)

		assert.Nil(t, got)
		var modelErr *ModelError
		require.ErrorAs(t, err, &modelErr)
		assert.Contains(t, err.Error(), "decoder exploded")
	})
}
