package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsharvest/internal/config"
	"newsharvest/internal/domain"
	"newsharvest/internal/ports"
)

// contentPlaceholder is appended to the title as the stored content until
// full-text extraction replaces it. The store rejects empty content, so every
// feed-origin article carries at least this.
const contentPlaceholder = "\n\n(Click to read full article)"

// IngestStats summarizes one ingestion run. Per-source failures land in
// Errors; a run never fails as a whole because some feeds are down.
type IngestStats struct {
	Timestamp          time.Time `json:"timestamp"`
	FeedsProcessed     int       `json:"feeds_processed"`
	TotalArticlesFound int       `json:"total_articles_found"`
	NewArticlesStored  int       `json:"new_articles_stored"`
	ProcessingTime     string    `json:"processing_time"`
	Errors             []string  `json:"errors,omitempty"`
}

// Ingestor polls every registered feed, deduplicates the resulting
// candidates and stores the survivors as placeholder articles.
type Ingestor struct {
	store     ports.ArticleStore
	source    ports.FeedSource
	sources   []config.SourceConfig
	retention time.Duration
	logger    *slog.Logger
}

// NewIngestor wires an ingestion pipeline over the given store and feed source.
func NewIngestor(store ports.ArticleStore, source ports.FeedSource, sources []config.SourceConfig, retention time.Duration, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:     store,
		source:    source,
		sources:   sources,
		retention: retention,
		logger:    logger.With("component", "ingestor"),
	}
}

type sourceResult struct {
	name       string
	candidates []domain.Candidate
	err        error
}

// Run collects every source concurrently, one goroutine per feed, and stores
// new articles as they come in. Finishes with a retention sweep.
func (i *Ingestor) Run(ctx context.Context) IngestStats {
	started := time.Now()
	stats := IngestStats{Timestamp: started.UTC()}

	results := make(chan sourceResult, len(i.sources))
	for _, src := range i.sources {
		go func(src config.SourceConfig) {
			candidates, err := i.source.Collect(ctx, src.Name, src.URL)
			results <- sourceResult{name: src.Name, candidates: candidates, err: err}
		}(src)
	}

	for range i.sources {
		result := <-results
		if result.err != nil {
			i.logger.Warn("feed collection failed", "source", result.name, "error", result.err)
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", result.name, result.err))
			continue
		}

		stats.FeedsProcessed++
		stats.TotalArticlesFound += len(result.candidates)
		stats.NewArticlesStored += i.storeCandidates(ctx, result.candidates)
	}

	if deleted, err := i.Sweep(ctx); err != nil {
		i.logger.Error("retention sweep failed", "error", err)
		stats.Errors = append(stats.Errors, fmt.Sprintf("retention: %v", err))
	} else if deleted > 0 {
		i.logger.Info("retention sweep removed expired articles", "deleted", deleted)
	}

	stats.ProcessingTime = time.Since(started).Round(time.Millisecond).String()
	i.logger.Info("ingestion run finished",
		"feeds", stats.FeedsProcessed,
		"found", stats.TotalArticlesFound,
		"stored", stats.NewArticlesStored,
		"errors", len(stats.Errors),
		"elapsed", stats.ProcessingTime,
	)
	return stats
}

// Sweep deletes feed-origin articles whose collection time fell out of the
// retention window. Manually submitted articles are never swept.
func (i *Ingestor) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-i.retention)
	return i.store.DeleteOlderThan(ctx, cutoff)
}

func (i *Ingestor) storeCandidates(ctx context.Context, candidates []domain.Candidate) int {
	stored := 0
	for _, candidate := range candidates {
		exists, err := i.store.ExistsByHashOrURL(ctx, candidate.ContentHash, candidate.URL)
		if err != nil {
			i.logger.Error("dedup check failed", "url", candidate.URL, "error", err)
			continue
		}
		if exists {
			continue
		}

		if _, err := i.store.Insert(ctx, candidateToArticle(candidate)); err != nil {
			// A concurrent run may have won the race to the unique index;
			// losing one insert is fine.
			i.logger.Warn("insert skipped", "url", candidate.URL, "error", err)
			continue
		}
		stored++
	}
	return stored
}

func candidateToArticle(c domain.Candidate) domain.Article {
	collected := c.CollectedAt
	return domain.Article{
		Title:          c.Title,
		Content:        c.Title + contentPlaceholder,
		URL:            c.URL,
		Summary:        c.Summary,
		Author:         c.Author,
		SourceName:     c.SourceName,
		SourceFeedURL:  c.SourceFeedURL,
		ImageURL:       c.ImageURL,
		Language:       c.Language,
		ContentHash:    c.ContentHash,
		PublishedAt:    c.PublishedAt,
		CollectedAt:    &collected,
		AnalysisStatus: domain.AnalysisNotAnalyzed,
	}
}
