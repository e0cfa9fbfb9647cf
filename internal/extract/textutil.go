package extract

import (
	"regexp"
	"strings"
)

const wordsPerMinute = 225

// noiseExpr matches the ad/navigation markers that survive boilerplate removal.
var noiseExpr = regexp.MustCompile(`(?i)(Advertisement|Click here|Subscribe|Sign up)`)

// CleanText collapses whitespace and strips common ad/navigation markers.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = noiseExpr.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// WordCount counts whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ReadingTime estimates minutes to read at 225 words per minute, rounded up,
// never below one minute.
func ReadingTime(wordCount int) int {
	if wordCount <= 0 {
		return 1
	}
	minutes := (wordCount + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
