package language

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/RadhiFadlillah/whatlanggo"

	"newsharvest/internal/domain"
)

// minDetectionLength is the shortest cleaned text worth running statistical
// detection on; anything below it is too noisy to trust.
const minDetectionLength = 20

// detectedMapping folds raw detector output into the supported language set.
// Italian and Spanish hits on Tunisian sources are almost always misread
// French, so they map to fr.
var detectedMapping = map[string]string{
	"ar": domain.LangArabic,
	"fr": domain.LangFrench,
	"en": domain.LangEnglish,
	"it": domain.LangFrench,
	"es": domain.LangFrench,
}

var tagExpr = regexp.MustCompile(`<[^>]+>`)

// Classifier resolves article language from feed metadata first and content
// statistics second. The zero value is ready to use.
type Classifier struct{}

// New returns a ready classifier.
func New() *Classifier {
	return &Classifier{}
}

// Resolve applies the resolution order: entry-level tag, feed-level tag, then
// statistical detection over title+summary. Metadata always outranks content.
func (c *Classifier) Resolve(entryTag, feedTag, title, summary string) string {
	if lang := fromTag(entryTag); lang != "" {
		return lang
	}
	if lang := fromTag(feedTag); lang != "" {
		return lang
	}

	return c.DetectFromContent(title + " " + summary)
}

// DetectFromContent runs trigram-based detection over cleaned text. The
// detector is purely statistical with no randomness, so identical input
// always yields identical output.
func (c *Classifier) DetectFromContent(text string) string {
	cleaned := cleanText(text)
	// Count characters, not bytes: ten Arabic letters are twenty UTF-8 bytes
	// but still too little text to detect from.
	if utf8.RuneCountInString(cleaned) < minDetectionLength {
		return domain.LangUnknown
	}

	info := whatlanggo.Detect(cleaned)
	if mapped, ok := detectedMapping[info.Lang.Iso6391()]; ok {
		return mapped
	}
	return domain.LangUnknown
}

// fromTag normalizes a language tag ("ar-TN", "fr_FR") to its 2-letter
// prefix and accepts only the supported families.
func fromTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(tag, "ar"):
		return domain.LangArabic
	case strings.HasPrefix(tag, "fr"):
		return domain.LangFrench
	case strings.HasPrefix(tag, "en"):
		return domain.LangEnglish
	}
	return ""
}

func cleanText(text string) string {
	text = tagExpr.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}
