package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}

// pickImage selects one representative image per entry, by priority:
// media:thumbnail, media:content carrying an image, an image enclosure, then
// the first inline <img> inside the description HTML.
func pickImage(item *gofeed.Item) string {
	if url := mediaExtensionURL(item, "thumbnail", false); url != "" {
		return url
	}
	if url := mediaExtensionURL(item, "content", true); url != "" {
		return url
	}

	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image") && enclosure.URL != "" {
			return enclosure.URL
		}
	}

	return inlineImage(item.Description)
}

func mediaExtensionURL(item *gofeed.Item, element string, requireImage bool) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}

	for _, ext := range media[element] {
		url := ext.Attrs["url"]
		if url == "" {
			continue
		}
		if requireImage && !looksLikeImage(ext.Attrs["type"], url) {
			continue
		}
		return url
	}
	return ""
}

// looksLikeImage accepts declared image MIME types, untyped media (feeds
// frequently omit the attribute) and URLs with an image-like extension.
func looksLikeImage(mimeType, url string) bool {
	mimeType = strings.ToLower(mimeType)
	if strings.HasPrefix(mimeType, "image") || mimeType == "" || mimeType == "unknown" {
		return true
	}

	lower := strings.ToLower(url)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func inlineImage(descriptionHTML string) string {
	if descriptionHTML == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(descriptionHTML))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if ok && strings.HasPrefix(src, "http") {
			found = src
			return false
		}
		return true
	})

	return found
}
