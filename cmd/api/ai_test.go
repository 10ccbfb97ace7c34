package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookshelf-ai/internal/ai"
	"bookshelf-ai/internal/cache"
	"bookshelf-ai/internal/llm"
)

func TestGenerateSummary(t *testing.T) {
	content := "Call me Ishmael."
	key := cache.SummaryKey(content)

	tests := []struct {
		name       string
		body       any
		setup      func(*testEnv)
		wantStatus int
		want       summaryResponse
	}{
		{
			name: "generated and cached",
			body: generateSummaryRequest{Content: content},
			setup: func(e *testEnv) {
				e.cache.On("GetSummary", mock.Anything, key).Return(nil, nil).Once()
				e.gen.On("GenerateText", mock.Anything, mock.MatchedBy(func(req llm.GenerationRequest) bool {
					return req.MaxTokens == 300 && req.Temperature == 0.7
				})).Return("SUMMARY: A whaling voyage.", nil).Once()
				e.cache.On("SetSummary", mock.Anything, key, mock.MatchedBy(func(r *cache.SummaryResult) bool {
					return r.Summary == "A whaling voyage."
				}), 60*time.Second).Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			want:       summaryResponse{Summary: "A whaling voyage."},
		},
		{
			name: "cache hit skips the model",
			body: generateSummaryRequest{Content: content},
			setup: func(e *testEnv) {
				e.cache.On("GetSummary", mock.Anything, key).Return(&cache.SummaryResult{Summary: "cached"}, nil).Once()
			},
			wantStatus: http.StatusOK,
			want:       summaryResponse{Summary: "cached", Cached: true},
		},
		{
			name: "model unavailable",
			body: generateSummaryRequest{Content: content},
			setup: func(e *testEnv) {
				e.cache.On("GetSummary", mock.Anything, key).Return(nil, nil).Once()
				e.gen.On("GenerateText", mock.Anything, mock.Anything).Return("", &llm.ServiceError{StatusCode: 500}).Once()
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "empty content",
			body:       generateSummaryRequest{},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			token := env.login(t, alice)
			if tt.setup != nil {
				tt.setup(env)
			}

			rec := env.do(http.MethodPost, "/api/v1/generate-summary", token, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			switch tt.wantStatus {
			case http.StatusOK:
				assert.Equal(t, tt.want, decode[summaryResponse](t, rec))
			case http.StatusServiceUnavailable:
				assert.Equal(t, "failed to generate summary: http error: 500", decode[map[string]any](t, rec)["detail"])
			}
			env.assertMocks(t)
		})
	}
}

func TestRecommendations(t *testing.T) {
	user := alice
	user.Preferences = ai.Preferences{PreferredGenres: []string{"sci-fi"}}
	history := []ai.ReadingEntry{{Title: "Dune", Author: "Frank Herbert"}}
	key := cache.RecommendationKey(user.ID, user.Preferences, history)

	raw := "RECOMMENDATIONS:\n1. Hyperion by Dan Simmons: Layered pilgrim tales\n2. Foundation by Isaac Asimov: Empire in decline"
	want := []ai.Recommendation{
		{Title: "Hyperion", Author: "Dan Simmons", Explanation: "Layered pilgrim tales"},
		{Title: "Foundation", Author: "Isaac Asimov", Explanation: "Empire in decline"},
	}

	t.Run("generated", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.login(t, user)
		env.store.On("ReadingHistory", mock.Anything, user.ID).Return(history, nil).Once()
		env.cache.On("GetRecommendations", mock.Anything, key).Return(nil, nil).Once()
		env.gen.On("GenerateText", mock.Anything, mock.MatchedBy(func(req llm.GenerationRequest) bool {
			return req.MaxTokens == 500 && req.Prompt == ai.BuildRecommendationPrompt(user.Preferences, history)
		})).Return(raw, nil).Once()
		env.cache.On("SetRecommendations", mock.Anything, key, mock.Anything, 60*time.Second).Return(nil).Once()

		rec := env.do(http.MethodGet, "/api/v1/recommendations", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, want, decode[recommendationsResponse](t, rec).Recommendations)
		env.assertMocks(t)
	})

	t.Run("cached", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.login(t, user)
		env.store.On("ReadingHistory", mock.Anything, user.ID).Return(history, nil).Once()
		env.cache.On("GetRecommendations", mock.Anything, key).Return(&cache.RecommendationResult{Recommendations: want}, nil).Once()

		rec := env.do(http.MethodGet, "/api/v1/recommendations", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[recommendationsResponse](t, rec)
		assert.True(t, resp.Cached)
		assert.Equal(t, want, resp.Recommendations)
		env.assertMocks(t)
	})

	t.Run("connection failure", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.login(t, user)
		env.store.On("ReadingHistory", mock.Anything, user.ID).Return(nil, nil).Once()
		env.cache.On("GetRecommendations", mock.Anything, mock.Anything).Return(nil, nil).Once()
		env.gen.On("GenerateText", mock.Anything, mock.Anything).
			Return("", &llm.ConnectionError{Err: assert.AnError}).Once()

		rec := env.do(http.MethodGet, "/api/v1/recommendations", token, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		env.assertMocks(t)
	})
}
