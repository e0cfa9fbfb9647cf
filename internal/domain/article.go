package domain

import "time"

// Language codes the classifier is allowed to produce.
const (
	LangArabic  = "ar"
	LangFrench  = "fr"
	LangEnglish = "en"
	LangUnknown = "unknown"
)

// AnalysisStatus tracks the external analysis subsystem's progress on an article.
type AnalysisStatus string

const (
	AnalysisNotAnalyzed AnalysisStatus = "not_analyzed"
	AnalysisPending     AnalysisStatus = "pending"
	AnalysisCompleted   AnalysisStatus = "completed"
	AnalysisFailed      AnalysisStatus = "failed"
)

// CanAdvanceTo reports whether a status transition is legal. The status only
// moves forward: not_analyzed -> pending -> {completed, failed}.
func (s AnalysisStatus) CanAdvanceTo(next AnalysisStatus) bool {
	switch s {
	case AnalysisNotAnalyzed:
		return next == AnalysisPending
	case AnalysisPending:
		return next == AnalysisCompleted || next == AnalysisFailed
	default:
		return false
	}
}

// Candidate is a transient article record produced per feed entry. It lives
// only between parsing and the dedup-check/insert step.
type Candidate struct {
	Title         string
	URL           string
	Summary       string
	Author        string
	PublishedAt   *time.Time
	SourceName    string
	SourceFeedURL string
	ImageURL      string
	Language      string
	ContentHash   string
	CollectedAt   time.Time
}

// Article is the persisted record. CollectedAt is non-nil only for
// feed-origin articles; it gates retention sweeping.
type Article struct {
	ID                 string
	Title              string
	Content            string
	URL                string
	Summary            string
	Author             string
	SourceName         string
	SourceFeedURL      string
	ImageURL           string
	Language           string
	ContentHash        string
	PublishedAt        *time.Time
	CollectedAt        *time.Time
	WordCount          int
	ReadingTime        int
	ContentExtractedAt *time.Time
	AnalysisStatus     AnalysisStatus
	AnalysisID         string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ExtractedContent is the transient result of a full-text extraction run.
type ExtractedContent struct {
	Title       string
	Content     string
	Author      string
	PublishDate *time.Time
	Images      []string
	Description string
	WordCount   int
	ReadingTime int
	Strategy    string
	Elapsed     time.Duration
}
