package extract

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/markusmobius/go-trafilatura"
)

// StructuredStrategy extracts through trafilatura's library-grade article
// parser, which pairs the URL with the HTML to recover title, body, author,
// publish date, description and a lead image.
type StructuredStrategy struct{}

func (s StructuredStrategy) Name() string { return "structured-parser" }

func (s StructuredStrategy) Run(pageURL *url.URL, html []byte) (Result, error) {
	extracted, err := trafilatura.Extract(bytes.NewReader(html), trafilatura.Options{
		OriginalURL:     pageURL,
		ExcludeComments: true,
		IncludeImages:   true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("trafilatura: %w", err)
	}

	meta := extracted.Metadata
	result := Result{
		Title:       CleanText(meta.Title),
		Content:     CleanText(extracted.ContentText),
		Author:      CleanText(meta.Author),
		Description: CleanText(meta.Description),
	}
	if !meta.Date.IsZero() {
		date := meta.Date
		result.PublishDate = &date
	}
	if meta.Image != "" {
		result.Images = []string{meta.Image}
	}

	return result, nil
}
