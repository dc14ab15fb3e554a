package sections

import (
	"strings"
	"unicode"

	"docportal-backend/internal/models"
)

const (
	minWords        = 30
	minLines        = 3
	minContentChars = 50
)

// Phrases that mark generated filler or a failed generation.
var emptyPhrases = []string{
	"no content available",
	"content not available",
	"content generation failed",
	"failed to generate",
	"error generating content",
	"this section is empty",
	"to be added",
	"coming soon",
	"lorem ipsum",
}

const markupChars = "#*_`~>|-=[](){}"

// Keep reports whether a section body is substantial enough to show.
// Content saved from the rich editor is always kept.
func Keep(content string) bool {
	if strings.Contains(content, models.RichHTMLMarker) {
		return true
	}

	lower := strings.ToLower(content)
	for _, phrase := range emptyPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}

	return countWords(content) >= minWords &&
		countMeaningfulLines(content) >= minLines &&
		countContentChars(content) > minContentChars
}

func countWords(content string) int {
	n := 0
	for _, field := range strings.Fields(content) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(word)) >= 2 {
			n++
		}
	}
	return n
}

func countMeaningfulLines(content string) int {
	n := 0
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "```") {
			continue
		}
		if strings.IndexFunc(line, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}) >= 0 {
			n++
		}
	}
	return n
}

func countContentChars(content string) int {
	n := 0
	for _, r := range content {
		if unicode.IsSpace(r) || strings.ContainsRune(markupChars, r) {
			continue
		}
		n++
	}
	return n
}
