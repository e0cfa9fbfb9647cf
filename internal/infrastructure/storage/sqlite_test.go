package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"newsharvest/internal/domain"
	"newsharvest/internal/ports"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func feedArticle(title, url, hash string, collected time.Time) domain.Article {
	return domain.Article{
		Title:       title,
		Content:     title + "\n\n(Click to read full article)",
		URL:         url,
		SourceName:  "Test Source",
		Language:    domain.LangFrench,
		ContentHash: hash,
		CollectedAt: &collected,
	}
}

func TestInsertAndGet(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	published := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	article := feedArticle("Premier titre", "https://example.com/a", "hash-a", time.Now().UTC())
	article.PublishedAt = &published
	article.Summary = "Un résumé"

	id, err := store.Insert(ctx, article)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Premier titre" || got.Summary != "Un résumé" {
		t.Errorf("unexpected article: %+v", got)
	}
	if got.AnalysisStatus != domain.AnalysisNotAnalyzed {
		t.Errorf("expected default analysis status, got %q", got.AnalysisStatus)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(published) {
		t.Errorf("published_at mismatch: %v", got.PublishedAt)
	}
	if got.CollectedAt == nil {
		t.Error("collected_at should survive a round trip")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be set on insert")
	}
}

func TestInsertRejectsEmptyContent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	article := feedArticle("Titre", "https://example.com/empty", "hash-empty", time.Now().UTC())
	article.Content = ""
	if _, err := store.Insert(context.Background(), article); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExistsByHashOrURL(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Insert(ctx, feedArticle("Titre", "https://example.com/a", "hash-a", time.Now().UTC())); err != nil {
		t.Fatalf("insert: %v", err)
	}

	cases := []struct {
		name string
		hash string
		url  string
		want bool
	}{
		{"both match", "hash-a", "https://example.com/a", true},
		{"hash only", "hash-a", "https://example.com/other", true},
		{"url only", "hash-other", "https://example.com/a", true},
		{"neither", "hash-other", "https://example.com/other", false},
	}
	for _, tc := range cases {
		got, err := store.ExistsByHashOrURL(ctx, tc.hash, tc.url)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestInsertDuplicateFails(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Insert(ctx, feedArticle("Titre", "https://example.com/a", "hash-a", time.Now().UTC())); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := store.Insert(ctx, feedArticle("Autre", "https://example.com/b", "hash-a", time.Now().UTC())); err == nil {
		t.Error("duplicate hash should violate the unique constraint")
	}
	if _, err := store.Insert(ctx, feedArticle("Autre", "https://example.com/a", "hash-b", time.Now().UTC())); err == nil {
		t.Error("duplicate url should violate the unique constraint")
	}
}

func TestUpdateContent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Insert(ctx, feedArticle("Titre", "https://example.com/a", "hash-a", time.Now().UTC()))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	extractedAt := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	if err := store.UpdateContent(ctx, id, "Full text of the article.", 5, 1, extractedAt, "https://example.com/img.jpg"); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "Full text of the article." || got.WordCount != 5 || got.ReadingTime != 1 {
		t.Errorf("content fields not updated: %+v", got)
	}
	if got.ContentExtractedAt == nil || !got.ContentExtractedAt.Equal(extractedAt) {
		t.Errorf("content_extracted_at mismatch: %v", got.ContentExtractedAt)
	}
	if got.ImageURL != "https://example.com/img.jpg" {
		t.Errorf("image_url not updated: %q", got.ImageURL)
	}

	// An empty imageURL must not clobber the stored one.
	if err := store.UpdateContent(ctx, id, "Revised text.", 2, 1, extractedAt, ""); err != nil {
		t.Fatalf("second update: %v", err)
	}
	got, _ = store.GetByID(ctx, id)
	if got.ImageURL != "https://example.com/img.jpg" {
		t.Errorf("image_url should be preserved, got %q", got.ImageURL)
	}

	if err := store.UpdateContent(ctx, "missing", "text", 1, 1, extractedAt, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestSetAnalysisStatusForwardOnly(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Insert(ctx, feedArticle("Titre", "https://example.com/a", "hash-a", time.Now().UTC()))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := store.SetAnalysisStatus(ctx, id, domain.AnalysisPending, "job-1"); err != nil {
		t.Fatalf("advance to pending: %v", err)
	}
	if err := store.SetAnalysisStatus(ctx, id, domain.AnalysisCompleted, ""); err != nil {
		t.Fatalf("advance to completed: %v", err)
	}

	got, _ := store.GetByID(ctx, id)
	if got.AnalysisStatus != domain.AnalysisCompleted || got.AnalysisID != "job-1" {
		t.Errorf("unexpected state after transitions: %+v", got)
	}

	if err := store.SetAnalysisStatus(ctx, id, domain.AnalysisPending, ""); err == nil {
		t.Error("backward transition should be rejected")
	}
}

func TestListPagedFiltersAndPagination(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seed := []domain.Article{
		feedArticle("Tunisie économie", "https://a.example.com/1", "h1", now),
		feedArticle("Sports update", "https://a.example.com/2", "h2", now),
		feedArticle("Tech news", "https://b.example.com/1", "h3", now),
	}
	seed[1].Language = domain.LangEnglish
	seed[2].SourceName = "Other Source"
	manual := domain.Article{
		Title:       "Manual entry",
		Content:     "Hand-curated text",
		URL:         "https://manual.example.com/1",
		ContentHash: "h4",
		Language:    domain.LangEnglish,
	}

	for _, a := range append(seed, manual) {
		if _, err := store.Insert(ctx, a); err != nil {
			t.Fatalf("seed insert %q: %v", a.Title, err)
		}
	}

	all, total, err := store.ListPaged(ctx, ports.ListFilters{}, 1, 10)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if total != 4 || len(all) != 4 {
		t.Fatalf("expected 4 articles, got total=%d len=%d", total, len(all))
	}

	feedOnly, total, err := store.ListPaged(ctx, ports.ListFilters{FeedOnly: true}, 1, 10)
	if err != nil {
		t.Fatalf("list feed-only: %v", err)
	}
	if total != 3 {
		t.Errorf("feed-only total = %d, want 3", total)
	}
	for _, a := range feedOnly {
		if a.CollectedAt == nil {
			t.Errorf("feed-only listing leaked manual article %q", a.Title)
		}
	}

	_, total, err = store.ListPaged(ctx, ports.ListFilters{Source: "Test"}, 1, 10)
	if err != nil {
		t.Fatalf("list by source: %v", err)
	}
	if total != 2 {
		t.Errorf("source filter total = %d, want 2", total)
	}

	_, total, err = store.ListPaged(ctx, ports.ListFilters{Language: domain.LangEnglish}, 1, 10)
	if err != nil {
		t.Fatalf("list by language: %v", err)
	}
	if total != 2 {
		t.Errorf("language filter total = %d, want 2", total)
	}

	_, total, err = store.ListPaged(ctx, ports.ListFilters{Search: "économie"}, 1, 10)
	if err != nil {
		t.Fatalf("list by search: %v", err)
	}
	if total != 1 {
		t.Errorf("search filter total = %d, want 1", total)
	}

	pageOne, total, err := store.ListPaged(ctx, ports.ListFilters{}, 1, 3)
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	pageTwo, _, err := store.ListPaged(ctx, ports.ListFilters{}, 2, 3)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if total != 4 || len(pageOne) != 3 || len(pageTwo) != 1 {
		t.Errorf("pagination mismatch: total=%d page1=%d page2=%d", total, len(pageOne), len(pageTwo))
	}

	empty, total, err := store.ListPaged(ctx, ports.ListFilters{}, 5, 3)
	if err != nil {
		t.Fatalf("list past end: %v", err)
	}
	if total != 4 || len(empty) != 0 {
		t.Errorf("past-end page should be empty, got %d rows", len(empty))
	}
}

func TestDeleteOlderThan(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := feedArticle("Vieux", "https://example.com/old", "h-old", now.AddDate(0, 0, -31))
	fresh := feedArticle("Récent", "https://example.com/fresh", "h-fresh", now.AddDate(0, 0, -29))
	manual := domain.Article{
		Title:       "Manual",
		Content:     "Hand-curated text",
		URL:         "https://example.com/manual",
		ContentHash: "h-manual",
	}
	for _, a := range []domain.Article{old, fresh, manual} {
		if _, err := store.Insert(ctx, a); err != nil {
			t.Fatalf("seed insert %q: %v", a.Title, err)
		}
	}

	deleted, err := store.DeleteOlderThan(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	remaining, total, err := store.ListPaged(ctx, ports.ListFilters{}, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 survivors, got %d", total)
	}
	for _, a := range remaining {
		if a.Title == "Vieux" {
			t.Error("expired article survived the sweep")
		}
	}
}
