package ai

import (
	"fmt"
	"strings"
)

const summaryPromptTemplate = `Please provide a concise summary of the following book content in 3-5 paragraphs.
Focus on the main themes, characters, and plot elements.

BOOK CONTENT:
%s

SUMMARY:`

const recommendationPromptTemplate = `Please recommend 5 books based on the following user preferences and reading history.
For each recommendation, explain why it fits the user's taste in 2-3 sentences.

USER PREFERENCES:
- Preferred genres: %s
- Favorite authors: %s
- Interests: %s

BOOKS ALREADY READ:
%s

RECOMMENDATIONS:`

// BuildSummaryPrompt wraps book content in the summary instructions.
func BuildSummaryPrompt(content string) string {
	return fmt.Sprintf(summaryPromptTemplate, content)
}

// BuildRecommendationPrompt renders the reader profile and history into the
// recommendation instructions. Empty lists render as empty strings.
func BuildRecommendationPrompt(prefs Preferences, booksRead []ReadingEntry) string {
	history := make([]string, 0, len(booksRead))
	for _, b := range booksRead {
		history = append(history, fmt.Sprintf("- %s by %s", b.Title, b.Author))
	}
	return fmt.Sprintf(recommendationPromptTemplate,
		strings.Join(prefs.PreferredGenres, ", "),
		strings.Join(prefs.FavoriteAuthors, ", "),
		strings.Join(prefs.Interests, ", "),
		strings.Join(history, "\n"),
	)
}
