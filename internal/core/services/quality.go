package services

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

// ScoreQuality rates extracted content from 0 to 1 by the presence of a
// title and description, the length and structure of the body, and the
// share of printable characters.
func ScoreQuality(c *domain.ExtractedContent) float64 {
	if c == nil {
		return 0
	}

	score := 0.0
	if strings.TrimSpace(c.Title) != "" {
		score += 0.2
	}
	if strings.TrimSpace(c.Description) != "" {
		score += 0.2
	}

	content := strings.TrimSpace(c.Content)
	switch n := utf8.RuneCountInString(content); {
	case n >= 600:
		score += 0.4
	case n >= 200:
		score += 0.25
	case n >= 80:
		score += 0.1
	}

	if strings.Contains(content, "\n") {
		score += 0.2
	} else {
		score += 0.05
	}

	score = math.Min(score, 1)
	if ratio := printableRatio(content); ratio < 0.8 {
		score *= ratio
	}
	return domain.RoundQuality(score)
}

// printableRatio returns the share of printable or whitespace runes, 1 for empty text.
func printableRatio(s string) float64 {
	total, printable := 0, 0
	for _, r := range s {
		total++
		if r != utf8.RuneError && (unicode.IsPrint(r) || unicode.IsSpace(r)) {
			printable++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(printable) / float64(total)
}
