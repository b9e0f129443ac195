package pipeline

import (
	"strings"
)

const (
	maxHighlights       = 5
	minHighlightLen     = 10
	maxTags             = 10
	wordsPerMinute      = 200
	maxTitleLen         = 100
	truncatedTitleLen   = 97
	untitledSourceTitle = "Untitled"
)

var (
	fallbackHighlights = []string{"Recent updates", "Key improvements", "Latest features"}
	tagKeywords        = []string{"release", "feature", "update", "version", "api", "framework"}
)

// ExtractHighlights pulls non-trivial bullet lines out of the first five
// summary lines, falling back to a generic list when nothing qualifies.
// Lines past the fifth never contribute, even when earlier ones are thin.
func ExtractHighlights(summary string) []string {
	lines := strings.Split(summary, "\n")
	if len(lines) > maxHighlights {
		lines = lines[:maxHighlights]
	}

	var highlights []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cleaned := strings.TrimSpace(strings.TrimLeft(line, "-*• \t"))
		if len(cleaned) > minHighlightLen {
			highlights = append(highlights, cleaned)
		}
	}
	if len(highlights) == 0 {
		return append([]string(nil), fallbackHighlights...)
	}
	return highlights
}

// DeriveTags builds the tag list from the technology name plus a fixed
// keyword set found in the draft, capped at 10.
func DeriveTags(tech, content string) []string {
	tags := []string{strings.ToLower(tech), "technology", "updates"}
	seen := map[string]struct{}{}
	for _, t := range tags {
		seen[t] = struct{}{}
	}

	lower := strings.ToLower(content)
	for _, kw := range tagKeywords {
		if _, dup := seen[kw]; dup {
			continue
		}
		if strings.Contains(lower, kw) {
			tags = append(tags, kw)
			seen[kw] = struct{}{}
		}
	}

	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

// ReadingTime estimates minutes at 200 words per minute, floored at 1.
func ReadingTime(text string) int {
	words := len(strings.Fields(text))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// TitleFor caps an article title at 100 chars with an ellipsis.
func TitleFor(article ExtractedArticle) string {
	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = untitledSourceTitle
	}
	if len(title) > maxTitleLen {
		title = title[:truncatedTitleLen] + "..."
	}
	return title
}
