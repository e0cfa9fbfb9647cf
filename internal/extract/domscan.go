package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

const (
	minBodyLength = 200
	maxImages     = 5
	minImageSide  = 100
)

var titleSelectors = []string{
	"h1", "h2", ".title", ".headline", "[class*='title']", "[class*='headline']",
}

var contentSelectors = []string{
	"article", ".article", ".content", ".post", ".entry",
	"[class*='article']", "[class*='content']", "[class*='post']",
	".story", "[class*='story']", "main",
}

var authorSelectors = []string{
	"meta[name='author']", "meta[property='article:author']",
	".author", ".byline", "[class*='author']", "[class*='byline']",
}

var dateSelectors = []string{
	"meta[property='article:published_time']",
	"meta[name='publishdate']",
	"time[datetime]",
	".date", ".publish-date", "[class*='date']",
}

// DOMScanStrategy probes a fixed, ordered list of selectors after stripping
// chrome elements, falling back to the whole <body> when nothing substantial
// matches. It is the last line of defense when the smarter parsers fail.
type DOMScanStrategy struct{}

func (s DOMScanStrategy) Name() string { return "heuristic-dom-scan" }

func (s DOMScanStrategy) Run(pageURL *url.URL, html []byte) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Result{}, fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()

	result := Result{
		Title:       scanTitle(doc),
		Content:     scanContent(doc),
		Author:      scanAuthor(doc),
		Description: scanDescription(doc),
		Images:      scanImages(doc, pageURL),
	}

	if raw := scanDate(doc); raw != "" {
		if parsed, err := dateparse.ParseAny(raw); err == nil {
			result.PublishDate = &parsed
		}
	}

	return result, nil
}

func scanTitle(doc *goquery.Document) string {
	for _, selector := range titleSelectors {
		text := CleanText(doc.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

func scanContent(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		text := CleanText(doc.Find(selector).First().Text())
		if len(text) > minBodyLength {
			return text
		}
	}
	// Nothing substantial matched; take the whole body.
	return CleanText(doc.Find("body").Text())
}

func scanAuthor(doc *goquery.Document) string {
	for _, selector := range authorSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}

		var author string
		if goquery.NodeName(sel) == "meta" {
			author, _ = sel.Attr("content")
		} else {
			author = sel.Text()
		}
		if author = CleanText(author); author != "" {
			return author
		}
	}
	return ""
}

func scanDate(doc *goquery.Document) string {
	for _, selector := range dateSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}

		var raw string
		switch goquery.NodeName(sel) {
		case "meta":
			raw, _ = sel.Attr("content")
		case "time":
			raw, _ = sel.Attr("datetime")
			if raw == "" {
				raw = sel.Text()
			}
		default:
			raw = sel.Text()
		}
		if raw = CleanText(raw); raw != "" {
			return raw
		}
	}
	return ""
}

func scanDescription(doc *goquery.Document) string {
	if content, ok := doc.Find("meta[name='description']").First().Attr("content"); ok {
		if cleaned := CleanText(content); cleaned != "" {
			return cleaned
		}
	}
	if content, ok := doc.Find("meta[property='og:description']").First().Attr("content"); ok {
		return CleanText(content)
	}
	return ""
}

// scanImages harvests <img> sources, resolving relative URLs against the
// page and dropping images whose declared dimensions fall under 100x100.
func scanImages(doc *goquery.Document, pageURL *url.URL) []string {
	var images []string

	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			src, _ = img.Attr("data-src")
		}
		if src == "" {
			return true
		}

		if tooSmall(img.AttrOr("width", ""), img.AttrOr("height", "")) {
			return true
		}

		if resolved := resolveImageURL(pageURL, src); resolved != "" {
			images = append(images, resolved)
		}
		return len(images) < maxImages
	})

	return images
}

func tooSmall(width, height string) bool {
	w, werr := strconv.Atoi(width)
	h, herr := strconv.Atoi(height)
	if werr != nil || herr != nil {
		return false // undeclared dimensions pass through
	}
	return w < minImageSide || h < minImageSide
}

func resolveImageURL(pageURL *url.URL, src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}
	if pageURL == nil {
		return ""
	}
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	return pageURL.ResolveReference(ref).String()
}
