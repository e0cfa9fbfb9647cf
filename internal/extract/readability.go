package extract

import (
	"bytes"
	"fmt"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

// ReadabilityStrategy strips boilerplate with go-readability to recover a
// readable title and body.
type ReadabilityStrategy struct{}

func (s ReadabilityStrategy) Name() string { return "readability" }

func (s ReadabilityStrategy) Run(pageURL *url.URL, html []byte) (Result, error) {
	article, err := readability.FromReader(bytes.NewReader(html), pageURL)
	if err != nil {
		return Result{}, fmt.Errorf("readability: %w", err)
	}

	result := Result{
		Title:       CleanText(article.Title),
		Content:     CleanText(article.TextContent),
		Author:      CleanText(article.Byline),
		Description: CleanText(article.Excerpt),
		PublishDate: article.PublishedTime,
	}
	if article.Image != "" {
		result.Images = []string{article.Image}
	}

	return result, nil
}
