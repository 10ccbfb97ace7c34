// Package ai builds prompts for the generation service and turns its
// free-text output into summaries and structured recommendations.
package ai

// Recommendation is a single suggested book recovered from generated text.
type Recommendation struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Explanation string `json:"explanation,omitempty"`
}

// Preferences is the reader profile used to steer recommendations.
type Preferences struct {
	PreferredGenres []string `json:"preferred_genres"`
	FavoriteAuthors []string `json:"favorite_authors"`
	Interests       []string `json:"interests"`
}

// ReadingEntry is one book from the reader's history.
type ReadingEntry struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}
