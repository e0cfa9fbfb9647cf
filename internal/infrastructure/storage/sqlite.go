package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"newsharvest/internal/domain"
	"newsharvest/internal/ports"
)

// ErrNotFound signals a lookup for an id the store does not hold.
var ErrNotFound = ports.ErrArticleNotFound

var articleColumns = []string{
	"id", "title", "content", "url", "summary", "author",
	"source_name", "source_url", "image_url", "language", "content_hash",
	"published_at", "collected_at", "word_count", "reading_time",
	"content_extracted_at", "analysis_status", "analysis_id",
	"created_at", "updated_at",
}

const schema = `
CREATE TABLE IF NOT EXISTS articles (
    id                   TEXT PRIMARY KEY,
    title                TEXT NOT NULL,
    content              TEXT NOT NULL CHECK (content <> ''),
    url                  TEXT NOT NULL UNIQUE,
    summary              TEXT NOT NULL DEFAULT '',
    author               TEXT NOT NULL DEFAULT '',
    source_name          TEXT NOT NULL DEFAULT '',
    source_url           TEXT NOT NULL DEFAULT '',
    image_url            TEXT NOT NULL DEFAULT '',
    language             TEXT NOT NULL DEFAULT 'unknown',
    content_hash         TEXT NOT NULL UNIQUE,
    published_at         TIMESTAMP,
    collected_at         TIMESTAMP,
    word_count           INTEGER NOT NULL DEFAULT 0,
    reading_time         INTEGER NOT NULL DEFAULT 0,
    content_extracted_at TIMESTAMP,
    analysis_status      TEXT NOT NULL DEFAULT 'not_analyzed',
    analysis_id          TEXT NOT NULL DEFAULT '',
    created_at           TIMESTAMP NOT NULL,
    updated_at           TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_collected_at ON articles (collected_at);
CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles (created_at);
`

// SQLiteStore persists articles in SQLite. The UNIQUE constraints on
// content_hash and url make insert-if-absent atomic under concurrent writers.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.ArticleStore = (*SQLiteStore)(nil)

// Open creates a store over the given SQLite path and applies the schema.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps in-memory databases coherent and sidesteps
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ExistsByHashOrURL reports whether either dedup key is already present.
// Hash and URL are independent unique constraints: the same content under a
// new URL and the same URL with an edited title both count as duplicates.
func (s *SQLiteStore) ExistsByHashOrURL(ctx context.Context, hash, url string) (bool, error) {
	query, args, err := sq.Select("1").From("articles").
		Where(sq.Or{sq.Eq{"content_hash": hash}, sq.Eq{"url": url}}).
		Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// Insert stores a new article and returns its id. Content must be non-empty;
// feed ingestion always supplies at least a title-derived placeholder.
func (s *SQLiteStore) Insert(ctx context.Context, article domain.Article) (string, error) {
	if article.Content == "" {
		return "", fmt.Errorf("refusing to insert article with empty content")
	}

	id := article.ID
	if id == "" {
		id = uuid.New().String()
	}
	status := article.AnalysisStatus
	if status == "" {
		status = domain.AnalysisNotAnalyzed
	}
	now := time.Now().UTC()

	query, args, err := sq.Insert("articles").Columns(articleColumns...).Values(
		id, article.Title, article.Content, article.URL, article.Summary, article.Author,
		article.SourceName, article.SourceFeedURL, article.ImageURL, article.Language, article.ContentHash,
		nullableTime(article.PublishedAt), nullableTime(article.CollectedAt),
		article.WordCount, article.ReadingTime,
		nullableTime(article.ContentExtractedAt), string(status), article.AnalysisID,
		now, now,
	).ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert article: %w", err)
	}
	return id, nil
}

// GetByID loads a single article.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Article, error) {
	query, args, err := sq.Select(articleColumns...).From("articles").
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build get query: %w", err)
	}

	article, err := scanArticle(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article %s: %w", id, err)
	}
	return article, nil
}

// UpdateContent replaces the placeholder with extracted full text and its
// derived metrics; imageURL is only written when non-empty.
func (s *SQLiteStore) UpdateContent(ctx context.Context, id, content string, wordCount, readingTime int, extractedAt time.Time, imageURL string) error {
	if content == "" {
		return fmt.Errorf("refusing to overwrite article %s with empty content", id)
	}

	update := sq.Update("articles").
		Set("content", content).
		Set("word_count", wordCount).
		Set("reading_time", readingTime).
		Set("content_extracted_at", extractedAt.UTC()).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})
	if imageURL != "" {
		update = update.Set("image_url", imageURL)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update content %s: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAnalysisStatus advances the analysis state, rejecting backward moves.
func (s *SQLiteStore) SetAnalysisStatus(ctx context.Context, id string, status domain.AnalysisStatus, analysisID string) error {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !current.AnalysisStatus.CanAdvanceTo(status) {
		return fmt.Errorf("illegal analysis transition %s -> %s for article %s", current.AnalysisStatus, status, id)
	}

	update := sq.Update("articles").
		Set("analysis_status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})
	if analysisID != "" {
		update = update.Set("analysis_id", analysisID)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update analysis status %s: %w", id, err)
	}
	return nil
}

// ListPaged returns one page of articles, newest first, plus the total count
// under the same filters.
func (s *SQLiteStore) ListPaged(ctx context.Context, filters ports.ListFilters, page, limit int) ([]domain.Article, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	countQuery, countArgs, err := applyFilters(sq.Select("COUNT(*)").From("articles"), filters).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	query, args, err := applyFilters(sq.Select(articleColumns...).From("articles"), filters).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate articles: %w", err)
	}

	return articles, total, nil
}

// DeleteOlderThan purges feed-origin articles collected before the cutoff.
// Manually submitted articles carry no collected_at and are never touched.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := sq.Delete("articles").
		Where(sq.NotEq{"collected_at": nil}).
		Where(sq.Lt{"collected_at": cutoff.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete old articles: %w", err)
	}
	return result.RowsAffected()
}

func applyFilters(builder sq.SelectBuilder, filters ports.ListFilters) sq.SelectBuilder {
	if filters.FeedOnly {
		builder = builder.Where(sq.NotEq{"collected_at": nil})
	}
	if filters.Source != "" {
		builder = builder.Where(sq.Like{"source_name": "%" + filters.Source + "%"})
	}
	if filters.Language != "" {
		builder = builder.Where(sq.Eq{"language": filters.Language})
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		builder = builder.Where(sq.Or{
			sq.Like{"title": pattern},
			sq.Like{"summary": pattern},
		})
	}
	return builder
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		article                             domain.Article
		status                              string
		publishedAt, collectedAt, extracted sql.NullTime
	)

	err := row.Scan(
		&article.ID, &article.Title, &article.Content, &article.URL, &article.Summary, &article.Author,
		&article.SourceName, &article.SourceFeedURL, &article.ImageURL, &article.Language, &article.ContentHash,
		&publishedAt, &collectedAt, &article.WordCount, &article.ReadingTime,
		&extracted, &status, &article.AnalysisID,
		&article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return domain.Article{}, err
	}

	article.AnalysisStatus = domain.AnalysisStatus(status)
	article.PublishedAt = timePtr(publishedAt)
	article.CollectedAt = timePtr(collectedAt)
	article.ContentExtractedAt = timePtr(extracted)
	return article, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	value := t.Time
	return &value
}
