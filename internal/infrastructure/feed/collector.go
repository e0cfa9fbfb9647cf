package feed

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"newsharvest/internal/domain"
	"newsharvest/internal/language"
	"newsharvest/internal/ports"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; newsharvest/1.0; +https://github.com/newsharvest)"
)

var tagExpr = regexp.MustCompile(`<[^>]+>`)

// Collector fetches one feed document and turns its entries into candidate
// articles: cleaned metadata, resolved language, representative image and a
// dedup fingerprint.
type Collector struct {
	client     *http.Client
	classifier *language.Classifier
	logger     *slog.Logger
}

var _ ports.FeedSource = (*Collector)(nil)

// NewCollector wires an HTTP client with the feed fetch timeout.
func NewCollector(timeout time.Duration, classifier *language.Classifier, logger *slog.Logger) *Collector {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if classifier == nil {
		classifier = language.New()
	}
	return &Collector{
		client:     &http.Client{Timeout: timeout},
		classifier: classifier,
		logger:     logger,
	}
}

// Collect downloads and parses a single feed. Entries without a title or
// link are dropped; everything else becomes a Candidate.
func (c *Collector) Collect(ctx context.Context, sourceName, feedURL string) ([]domain.Candidate, error) {
	raw, err := c.fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", sourceName, err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", sourceName, err)
	}

	candidates := make([]domain.Candidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		candidate, ok := c.buildCandidate(parsed, item, sourceName, feedURL)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}

	c.debug("feed collected", "source", sourceName, "entries", len(parsed.Items), "candidates", len(candidates))
	return candidates, nil
}

func (c *Collector) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Collector) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func (c *Collector) buildCandidate(parsedFeed *gofeed.Feed, item *gofeed.Item, sourceName, feedURL string) (domain.Candidate, bool) {
	title := CleanEntryText(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return domain.Candidate{}, false
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}
	summary = CleanEntryText(summary)

	candidate := domain.Candidate{
		Title:         title,
		URL:           link,
		Summary:       summary,
		Author:        CleanEntryText(entryAuthor(item)),
		PublishedAt:   entryPublished(item),
		SourceName:    sourceName,
		SourceFeedURL: feedURL,
		ImageURL:      pickImage(item),
		Language:      c.classifier.Resolve(entryLanguage(item), parsedFeed.Language, title, summary),
		ContentHash:   Fingerprint(title, link),
		CollectedAt:   time.Now().UTC(),
	}

	return candidate, true
}

// Fingerprint computes the dedup key from normalized title and URL.
func Fingerprint(title, url string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(title)) + strings.TrimSpace(url)))
	return hex.EncodeToString(sum[:])
}

// CleanEntryText strips markup and collapses whitespace in feed-entry fields.
func CleanEntryText(text string) string {
	if text == "" {
		return ""
	}
	text = tagExpr.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

func entryAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			return author.Name
		}
	}
	return ""
}

// entryPublished resolves the published date through a fallback chain: the
// already-parsed value, a lenient re-parse of the raw string, then the
// updated timestamp.
func entryPublished(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	if item.Published != "" {
		if parsed, err := dateparse.ParseAny(item.Published); err == nil {
			return &parsed
		}
	}
	return item.UpdatedParsed
}

func entryLanguage(item *gofeed.Item) string {
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Language) > 0 {
		return item.DublinCoreExt.Language[0]
	}
	return ""
}
