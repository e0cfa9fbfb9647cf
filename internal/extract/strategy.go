package extract

import (
	"net/url"
	"time"
)

// Result is a single strategy's take on the article behind a page.
type Result struct {
	Title       string
	Content     string
	Author      string
	PublishDate *time.Time
	Description string
	Images      []string
}

// Strategy derives structured article content from already-fetched HTML.
// Implementations must be independent: a failure in one never affects the
// others, and the set of strategies is an ordered list resolved at wiring
// time rather than hardcoded call sites.
type Strategy interface {
	Name() string
	Run(pageURL *url.URL, html []byte) (Result, error)
}

// score values a result by body length plus weighted metadata presence.
func score(r Result) int {
	s := len(r.Content)
	if r.Title != "" {
		s += 100
	}
	if r.Author != "" {
		s += 50
	}
	if r.PublishDate != nil {
		s += 50
	}
	return s
}
