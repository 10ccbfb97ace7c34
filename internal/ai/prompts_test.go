package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSummaryPrompt(t *testing.T) {
	prompt := BuildSummaryPrompt("Call me Ishmael.")

	assert.Contains(t, prompt, "3-5 paragraphs")
	assert.Contains(t, prompt, "main themes, characters, and plot elements")
	assert.Contains(t, prompt, "BOOK CONTENT:\nCall me Ishmael.\n")
	assert.True(t, strings.HasSuffix(prompt, "SUMMARY:"))
}

func TestBuildRecommendationPrompt(t *testing.T) {
	prefs := Preferences{
		PreferredGenres: []string{"sci-fi", "fantasy"},
		FavoriteAuthors: []string{"Ursula K. Le Guin"},
		Interests:       []string{"ecology", "politics"},
	}
	history := []ReadingEntry{
		{Title: "Dune", Author: "Frank Herbert"},
		{Title: "Emma", Author: "Jane Austen"},
	}

	prompt := BuildRecommendationPrompt(prefs, history)

	assert.Contains(t, prompt, "recommend 5 books")
	assert.Contains(t, prompt, "2-3 sentences")
	assert.Contains(t, prompt, "- Preferred genres: sci-fi, fantasy\n")
	assert.Contains(t, prompt, "- Favorite authors: Ursula K. Le Guin\n")
	assert.Contains(t, prompt, "- Interests: ecology, politics\n")
	assert.Contains(t, prompt, "BOOKS ALREADY READ:\n- Dune by Frank Herbert\n- Emma by Jane Austen\n")
	assert.True(t, strings.HasSuffix(prompt, "RECOMMENDATIONS:"))
}

func TestBuildRecommendationPromptEmptyInputs(t *testing.T) {
	prompt := BuildRecommendationPrompt(Preferences{}, nil)

	assert.Contains(t, prompt, "- Preferred genres: \n")
	assert.Contains(t, prompt, "- Favorite authors: \n")
	assert.Contains(t, prompt, "- Interests: \n")
	assert.Contains(t, prompt, "BOOKS ALREADY READ:\n\n\nRECOMMENDATIONS:")
}
