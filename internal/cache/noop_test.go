package cache

import (
	"context"
	"testing"
	"time"

	"bookshelf-ai/internal/ai"
)

// TestNoOpCache verifies that NoOpCache implements the Cache interface correctly
func TestNoOpCache(t *testing.T) {
	var cache Cache = NewNoOpCache()
	ctx := context.Background()

	// GetSummary should always miss
	result, err := cache.GetSummary(ctx, "key")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil result (cache miss), got %v", result)
	}

	err = cache.SetSummary(ctx, "key", &SummaryResult{Summary: "text", GeneratedAt: time.Now()}, time.Hour)
	if err != nil {
		t.Errorf("Expected no error on SetSummary, got %v", err)
	}

	// Still a miss; nothing was stored
	result, err = cache.GetSummary(ctx, "key")
	if err != nil || result != nil {
		t.Errorf("Expected nil result and no error, got %v, %v", result, err)
	}

	err = cache.SetRecommendations(ctx, "1:abc", &RecommendationResult{
		Recommendations: []ai.Recommendation{{Title: "Dune", Author: "Frank Herbert"}},
	}, time.Hour)
	if err != nil {
		t.Errorf("Expected no error on SetRecommendations, got %v", err)
	}
	recs, err := cache.GetRecommendations(ctx, "1:abc")
	if err != nil || recs != nil {
		t.Errorf("Expected nil result and no error, got %v, %v", recs, err)
	}

	if err := cache.InvalidateUser(ctx, 1); err != nil {
		t.Errorf("Expected no error on InvalidateUser, got %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Errorf("Expected no error on Close, got %v", err)
	}
}
