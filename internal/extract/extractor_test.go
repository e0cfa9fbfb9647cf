package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

// failingStrategy always errors; used to prove fault isolation.
type failingStrategy struct{ name string }

func (f failingStrategy) Name() string { return f.name }
func (f failingStrategy) Run(*url.URL, []byte) (Result, error) {
	return Result{}, errors.New("boom")
}

type panickingStrategy struct{}

func (panickingStrategy) Name() string { return "panicking" }
func (panickingStrategy) Run(*url.URL, []byte) (Result, error) {
	panic("unexpected node")
}

type fixedStrategy struct {
	name   string
	result Result
}

func (f fixedStrategy) Name() string                     { return f.name }
func (f fixedStrategy) Run(*url.URL, []byte) (Result, error) { return f.result, nil }

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExtractInvalidURL(t *testing.T) {
	t.Parallel()

	e := New(time.Second, nil)

	for _, raw := range []string{"", "ftp://example.com/a", "not a url", "http://"} {
		_, err := e.Extract(context.Background(), raw)
		if KindOf(err) != KindInvalidURL {
			t.Fatalf("url %q: expected invalid_url, got %v", raw, err)
		}
	}
}

func TestExtractHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	e := New(time.Second, nil)
	_, err := e.Extract(context.Background(), server.URL)

	var ee *Error
	if !errors.As(err, &ee) || ee.Kind != KindHTTPError || ee.Status != http.StatusForbidden {
		t.Fatalf("expected http_error 403, got %v", err)
	}
}

func TestExtractTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	e := New(50*time.Millisecond, nil)
	_, err := e.Extract(context.Background(), server.URL)
	if KindOf(err) != KindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestExtractFetchError(t *testing.T) {
	t.Parallel()

	e := New(time.Second, nil)
	_, err := e.Extract(context.Background(), "http://127.0.0.1:1/unreachable")
	if KindOf(err) != KindFetchError {
		t.Fatalf("expected fetch_error, got %v", err)
	}
}

func TestExtractHeuristicFallbackWins(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("Budget talks resumed in parliament on Monday morning. ", 10)
	server := serveHTML(t, `<html><body><h1>Budget Talks</h1><article>`+body+`</article></body></html>`)

	// Both preferred strategies fail outright; only the DOM scan survives.
	e := NewWithStrategies(time.Second, nil,
		failingStrategy{name: "structured-parser"},
		panickingStrategy{},
		DOMScanStrategy{},
	)

	content, err := e.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if content.Strategy != "heuristic-dom-scan" {
		t.Fatalf("expected heuristic-dom-scan, got %s", content.Strategy)
	}
	if content.Content == "" {
		t.Fatal("expected non-empty content")
	}
	if content.WordCount == 0 || content.ReadingTime < 1 {
		t.Fatalf("derived metrics missing: words=%d reading=%d", content.WordCount, content.ReadingTime)
	}
}

func TestExtractHighestScoreSelected(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, "<html><body>stub</body></html>")

	now := time.Now()
	rich := Result{Title: "T", Content: strings.Repeat("x", 300), Author: "A", PublishDate: &now}
	poor := Result{Content: strings.Repeat("y", 100)}

	e := NewWithStrategies(time.Second, nil,
		fixedStrategy{name: "first", result: poor},
		fixedStrategy{name: "second", result: rich},
	)

	content, err := e.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if content.Strategy != "second" {
		t.Fatalf("expected richer result to win, got %s", content.Strategy)
	}
}

func TestExtractTieKeepsFirst(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, "<html><body>stub</body></html>")

	same := Result{Content: strings.Repeat("z", 250)}
	e := NewWithStrategies(time.Second, nil,
		fixedStrategy{name: "first", result: same},
		fixedStrategy{name: "second", result: same},
	)

	content, err := e.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if content.Strategy != "first" {
		t.Fatalf("tie should keep the first strategy, got %s", content.Strategy)
	}
}

func TestExtractAllStrategiesFail(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, "<html><body></body></html>")

	e := NewWithStrategies(time.Second, nil,
		failingStrategy{name: "a"},
		failingStrategy{name: "b"},
	)

	_, err := e.Extract(context.Background(), server.URL)
	if KindOf(err) != KindExtractionFailed {
		t.Fatalf("expected extraction_failed, got %v", err)
	}
}

func TestExtractZeroScoreFails(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, "<html><body></body></html>")

	e := NewWithStrategies(time.Second, nil, fixedStrategy{name: "empty", result: Result{}})

	_, err := e.Extract(context.Background(), server.URL)
	if KindOf(err) != KindExtractionFailed {
		t.Fatalf("expected extraction_failed for zero score, got %v", err)
	}
}

func TestExtractUntitledFallback(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, "<html><body>stub</body></html>")

	e := NewWithStrategies(time.Second, nil,
		fixedStrategy{name: "bodyonly", result: Result{Content: strings.Repeat("w ", 120)}})

	content, err := e.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if content.Title != "Untitled" {
		t.Fatalf("expected Untitled fallback, got %q", content.Title)
	}
}
