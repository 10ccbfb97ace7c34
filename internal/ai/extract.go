package ai

import "strings"

const (
	summaryMarker   = "SUMMARY:"
	summaryFallback = "Could not generate summary."

	titleSeparator  = " by "
	titleTrimCutset = "- 123456789."
)

// ExtractSummary cleans generated summary text. Everything after the first
// "SUMMARY:" marker is kept when the marker is present.
func ExtractSummary(raw string) string {
	if raw == "" {
		return summaryFallback
	}
	if _, after, found := strings.Cut(raw, summaryMarker); found {
		raw = after
	}
	return strings.TrimSpace(raw)
}

// pendingRecommendation tracks whether an explanation slot was filled, even
// with an empty string, so continuation lines do not overwrite it.
type pendingRecommendation struct {
	Recommendation
	explained bool
}

// ExtractRecommendations parses list-style generated text into records.
//
// A line opens a new record when it starts with "- " or "1. ", or when any
// of "1." through "5." occurs within its first three characters. Markers
// "6." and above are not recognized and are treated as continuation lines.
//
// Records without a title are dropped. The first continuation line after a
// titled record fills its explanation if the record has none; later
// continuation lines are ignored.
func ExtractRecommendations(raw string) []Recommendation {
	recs := []Recommendation{}
	if raw == "" {
		return recs
	}

	var current *pendingRecommendation
	flush := func() {
		if current != nil && current.Title != "" {
			recs = append(recs, current.Recommendation)
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isBoundary(line) {
			flush()
			current = parseBoundary(line)
			continue
		}

		if current != nil && current.Title != "" && !current.explained {
			current.Explanation = line
			current.explained = true
		}
	}
	flush()

	return recs
}

func isBoundary(line string) bool {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "1. ") {
		return true
	}
	head := runePrefix(line, 3)
	for i := '1'; i <= '5'; i++ {
		if strings.Contains(head, string(i)+".") {
			return true
		}
	}
	return false
}

func parseBoundary(line string) *pendingRecommendation {
	rec := &pendingRecommendation{}
	left, right, found := strings.Cut(line, titleSeparator)
	if !found {
		return rec
	}
	rec.Title = strings.TrimLeft(left, titleTrimCutset)
	if author, explanation, ok := strings.Cut(right, ":"); ok {
		rec.Author = strings.TrimSpace(author)
		rec.Explanation = strings.TrimSpace(explanation)
		rec.explained = true
	} else {
		rec.Author = strings.TrimSpace(right)
	}
	return rec
}

// runePrefix returns at most n leading characters of s.
func runePrefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
