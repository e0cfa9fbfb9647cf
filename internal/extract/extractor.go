package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"newsharvest/internal/domain"
	"newsharvest/internal/ports"
)

const (
	defaultTimeout = 10 * time.Second
	maxRedirects   = 3
	maxBodyBytes   = 10 << 20
)

var errTooManyRedirects = errors.New("redirect limit exceeded")

// Extractor fetches a page once and runs every configured strategy against
// the same HTML, keeping the highest-scoring result.
type Extractor struct {
	client     *http.Client
	timeout    time.Duration
	agents     *AgentRotation
	strategies []Strategy
	logger     *slog.Logger
}

var _ ports.ContentExtractor = (*Extractor)(nil)

// New builds an extractor with the default strategy order: structured
// parser, readability, then the heuristic DOM scan.
func New(timeout time.Duration, logger *slog.Logger) *Extractor {
	return NewWithStrategies(timeout, logger,
		StructuredStrategy{},
		ReadabilityStrategy{},
		DOMScanStrategy{},
	)
}

// NewWithStrategies builds an extractor over an explicit ordered strategy list.
func NewWithStrategies(timeout time.Duration, logger *slog.Logger, strategies ...Strategy) *Extractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Extractor{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		timeout:    timeout,
		agents:     NewAgentRotation(),
		strategies: strategies,
		logger:     logger,
	}
}

// Extract fetches the URL and returns the best strategy result. Failures are
// typed (*Error) so callers can map them onto status codes.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (domain.ExtractedContent, error) {
	started := time.Now()

	pageURL, err := url.Parse(rawURL)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") || pageURL.Host == "" {
		return domain.ExtractedContent{}, newError(KindInvalidURL, err)
	}

	html, err := e.fetch(ctx, pageURL)
	if err != nil {
		return domain.ExtractedContent{}, err
	}

	var (
		best     Result
		bestName string
		bestSet  bool
	)
	for _, strategy := range e.strategies {
		result, err := runStrategy(strategy, pageURL, html)
		if err != nil {
			e.debug("strategy failed", "strategy", strategy.Name(), "url", rawURL, "error", err)
			continue
		}
		// Strict comparison keeps the first-examined result on ties.
		if !bestSet || score(result) > score(best) {
			best = result
			bestName = strategy.Name()
			bestSet = true
		}
	}

	if !bestSet || score(best) == 0 {
		return domain.ExtractedContent{}, newError(KindExtractionFailed, nil)
	}

	title := best.Title
	if title == "" {
		title = "Untitled"
	}

	wordCount := WordCount(best.Content)
	return domain.ExtractedContent{
		Title:       title,
		Content:     best.Content,
		Author:      best.Author,
		PublishDate: best.PublishDate,
		Images:      best.Images,
		Description: best.Description,
		WordCount:   wordCount,
		ReadingTime: ReadingTime(wordCount),
		Strategy:    bestName,
		Elapsed:     time.Since(started),
	}, nil
}

func (e *Extractor) fetch(ctx context.Context, pageURL *url.URL) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, newError(KindFetchError, err)
	}
	req.Header.Set("User-Agent", e.agents.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, classifyFetchError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Kind: KindHTTPError, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyFetchError(err)
	}

	return body, nil
}

func classifyFetchError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(KindTimeout, err)
	}
	return newError(KindFetchError, err)
}

// runStrategy isolates a strategy run so an internal panic cannot abort the
// remaining strategies.
func runStrategy(s Strategy, pageURL *url.URL, html []byte) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Run(pageURL, html)
}

func (e *Extractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
