package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"bookshelf-ai/internal/ai"
)

// Cache stores generated AI output so repeated requests skip the model.
type Cache interface {
	// GetSummary returns nil on a cache miss.
	GetSummary(ctx context.Context, key string) (*SummaryResult, error)
	SetSummary(ctx context.Context, key string, result *SummaryResult, ttl time.Duration) error

	// GetRecommendations returns nil on a cache miss.
	GetRecommendations(ctx context.Context, key string) (*RecommendationResult, error)
	SetRecommendations(ctx context.Context, key string, result *RecommendationResult, ttl time.Duration) error

	// InvalidateUser drops every cached recommendation for a user.
	InvalidateUser(ctx context.Context, userID int64) error

	Close() error
}

type SummaryResult struct {
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
}

type RecommendationResult struct {
	Recommendations []ai.Recommendation `json:"recommendations"`
	GeneratedAt     time.Time           `json:"generated_at"`
}

// SummaryKey derives a cache key from the content being summarized.
func SummaryKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// RecommendationKey derives a per-user key that changes whenever the
// preferences or reading history change.
func RecommendationKey(userID int64, prefs ai.Preferences, history []ai.ReadingEntry) string {
	// json.Marshal of these types cannot fail.
	body, _ := json.Marshal(struct {
		Prefs   ai.Preferences    `json:"p"`
		History []ai.ReadingEntry `json:"h"`
	}{prefs, history})
	sum := sha256.Sum256(body)
	return fmt.Sprintf("%d:%s", userID, hex.EncodeToString(sum[:]))
}
