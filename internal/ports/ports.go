package ports

import (
	"context"
	"errors"
	"time"

	"newsharvest/internal/domain"
)

// ErrArticleNotFound is returned by store lookups for unknown ids.
var ErrArticleNotFound = errors.New("article not found")

// ListFilters narrows the paginated article listing.
type ListFilters struct {
	FeedOnly bool   // only feed-origin articles (collected_at present)
	Source   string // substring match on source name
	Language string // exact match
	Search   string // substring match on title or summary
}

// ArticleStore persists articles and arbitrates dedup correctness; insert
// must be atomic with respect to the unique hash/url constraints.
type ArticleStore interface {
	ExistsByHashOrURL(ctx context.Context, hash, url string) (bool, error)
	Insert(ctx context.Context, article domain.Article) (string, error)
	GetByID(ctx context.Context, id string) (domain.Article, error)
	UpdateContent(ctx context.Context, id, content string, wordCount, readingTime int, extractedAt time.Time, imageURL string) error
	SetAnalysisStatus(ctx context.Context, id string, status domain.AnalysisStatus, analysisID string) error
	ListPaged(ctx context.Context, filters ListFilters, page, limit int) ([]domain.Article, int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// FeedSource fetches and parses a single feed into candidate articles.
type FeedSource interface {
	Collect(ctx context.Context, sourceName, feedURL string) ([]domain.Candidate, error)
}

// ContentExtractor derives full article text from an arbitrary URL.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (domain.ExtractedContent, error)
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
