package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used when CACHE_PROVIDER=none or as a fallback when Redis is unavailable.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetSummary(ctx context.Context, key string) (*SummaryResult, error) {
	return nil, nil
}

func (c *NoOpCache) SetSummary(ctx context.Context, key string, result *SummaryResult, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) GetRecommendations(ctx context.Context, key string) (*RecommendationResult, error) {
	return nil, nil
}

func (c *NoOpCache) SetRecommendations(ctx context.Context, key string, result *RecommendationResult, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) InvalidateUser(ctx context.Context, userID int64) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
