package main

import (
	"net/http"
	"time"

	"bookshelf-ai/internal/ai"
	"bookshelf-ai/internal/app"
	"bookshelf-ai/internal/auth"
	"bookshelf-ai/internal/cache"
	"bookshelf-ai/internal/httputil"
)

type generateSummaryRequest struct {
	Content string `json:"content" validate:"required"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
	Cached  bool   `json:"cached"`
}

type recommendationsResponse struct {
	Recommendations []ai.Recommendation `json:"recommendations"`
	Cached          bool                `json:"cached"`
}

func generateSummaryHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req generateSummaryRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Fail(deps.Log, w, "invalid summary request", err, http.StatusUnprocessableEntity)
			return
		}

		key := cache.SummaryKey(req.Content)
		if cached, err := deps.Cache.GetSummary(ctx, key); err != nil {
			deps.Log.Warn("summary cache lookup failed", "err", err)
		} else if cached != nil {
			httputil.WriteJSON(w, http.StatusOK, summaryResponse{Summary: cached.Summary, Cached: true})
			return
		}

		summary, err := deps.AI.GenerateSummary(ctx, req.Content)
		if err != nil {
			failAI(deps, w, err)
			return
		}

		result := &cache.SummaryResult{Summary: summary, GeneratedAt: time.Now().UTC()}
		if err := deps.Cache.SetSummary(ctx, key, result, deps.Config.CacheExpiry()); err != nil {
			deps.Log.Warn("failed to cache summary", "err", err)
		}
		httputil.WriteJSON(w, http.StatusOK, summaryResponse{Summary: summary})
	}
}

func recommendationsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user, _ := auth.UserFromContext(ctx)
		log := deps.Log.With("user_id", user.ID)

		history, err := deps.Store.ReadingHistory(ctx, user.ID)
		if err != nil {
			httputil.Fail(log, w, "failed to load reading history", err, http.StatusInternalServerError)
			return
		}

		key := cache.RecommendationKey(user.ID, user.Preferences, history)
		if cached, err := deps.Cache.GetRecommendations(ctx, key); err != nil {
			log.Warn("recommendation cache lookup failed", "err", err)
		} else if cached != nil {
			httputil.WriteJSON(w, http.StatusOK, recommendationsResponse{Recommendations: cached.Recommendations, Cached: true})
			return
		}

		recs, err := deps.AI.GenerateRecommendations(ctx, user.Preferences, history)
		if err != nil {
			failAI(deps, w, err)
			return
		}

		result := &cache.RecommendationResult{Recommendations: recs, GeneratedAt: time.Now().UTC()}
		if err := deps.Cache.SetRecommendations(ctx, key, result, deps.Config.CacheExpiry()); err != nil {
			log.Warn("failed to cache recommendations", "err", err)
		}
		httputil.WriteJSON(w, http.StatusOK, recommendationsResponse{Recommendations: recs})
	}
}
