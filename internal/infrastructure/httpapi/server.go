package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"newsharvest/internal/config"
	"newsharvest/internal/domain"
	"newsharvest/internal/extract"
	"newsharvest/internal/ports"
	"newsharvest/internal/usecase"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Refresher triggers one ingestion run on demand.
type Refresher interface {
	Run(ctx context.Context) usecase.IngestStats
}

// TaskQueue schedules background article extraction and exposes task state.
type TaskQueue interface {
	Enqueue(articleID string) (string, error)
	Get(taskID string) (usecase.Task, bool)
}

// Server exposes the REST API over the article store and pipeline.
type Server struct {
	store     ports.ArticleStore
	extractor ports.ContentExtractor
	refresher Refresher
	tasks     TaskQueue
	sources   []config.SourceConfig
	logger    *slog.Logger
}

// New wires the API server; call Handler to obtain the routed http.Handler.
func New(store ports.ArticleStore, extractor ports.ContentExtractor, refresher Refresher, tasks TaskQueue, sources []config.SourceConfig, logger *slog.Logger) *Server {
	return &Server{
		store:     store,
		extractor: extractor,
		refresher: refresher,
		tasks:     tasks,
		sources:   sources,
		logger:    logger.With("component", "httpapi"),
	}
}

// Handler builds the router with all API routes registered.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/news/feed", s.handleFeed).Methods(http.MethodGet)
	api.HandleFunc("/news/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/news/sources", s.handleSources).Methods(http.MethodGet)
	api.HandleFunc("/news/{id}/extract", s.handleArticleExtract).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", s.handleTask).Methods(http.MethodGet)
	api.HandleFunc("/extract", s.handleDirectExtract).Methods(http.MethodPost)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type articleResponse struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Content            string     `json:"content"`
	URL                string     `json:"url"`
	Summary            string     `json:"summary,omitempty"`
	Author             string     `json:"author,omitempty"`
	SourceName         string     `json:"source_name,omitempty"`
	SourceFeedURL      string     `json:"source_url,omitempty"`
	ImageURL           string     `json:"image_url,omitempty"`
	Language           string     `json:"language"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	CollectedAt        *time.Time `json:"collected_at,omitempty"`
	WordCount          int        `json:"word_count"`
	ReadingTime        int        `json:"reading_time"`
	ContentExtractedAt *time.Time `json:"content_extracted_at,omitempty"`
	AnalysisStatus     string     `json:"analysis_status"`
	AnalysisID         string     `json:"analysis_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type paginationResponse struct {
	CurrentPage   int  `json:"current_page"`
	TotalPages    int  `json:"total_pages"`
	TotalArticles int  `json:"total_articles"`
	HasNext       bool `json:"has_next"`
	HasPrev       bool `json:"has_prev"`
	Limit         int  `json:"limit"`
}

type feedResponse struct {
	Articles   []articleResponse  `json:"articles"`
	Pagination paginationResponse `json:"pagination"`
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := positiveIntParam(query.Get("page"), 1)
	limit := positiveIntParam(query.Get("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	filters := ports.ListFilters{
		FeedOnly: boolParam(query.Get("rss_only"), false),
		Source:   query.Get("source"),
		Language: query.Get("language"),
		Search:   query.Get("search"),
	}

	articles, total, err := s.store.ListPaged(r.Context(), filters, page, limit)
	if err != nil {
		s.logger.Error("list articles failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to load articles")
		return
	}

	totalPages := (total + limit - 1) / limit
	response := feedResponse{
		Articles: make([]articleResponse, 0, len(articles)),
		Pagination: paginationResponse{
			CurrentPage:   page,
			TotalPages:    totalPages,
			TotalArticles: total,
			HasNext:       page < totalPages,
			HasPrev:       page > 1 && total > 0,
			Limit:         limit,
		},
	}
	for _, a := range articles {
		response.Articles = append(response.Articles, toArticleResponse(a))
	}

	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	stats := s.refresher.Run(r.Context())
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	type sourceResponse struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	out := make([]sourceResponse, 0, len(s.sources))
	for _, src := range s.sources {
		out = append(out, sourceResponse{Name: src.Name, URL: src.URL})
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"sources": out})
}

func (s *Server) handleArticleExtract(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := s.store.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, ports.ErrArticleNotFound) {
			s.respondError(w, http.StatusNotFound, "article not found")
			return
		}
		s.logger.Error("load article failed", "id", id, "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to load article")
		return
	}

	taskID, err := s.tasks.Enqueue(id)
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.tasks.Get(mux.Vars(r)["id"])
	if !ok {
		s.respondError(w, http.StatusNotFound, "task not found")
		return
	}
	s.respondJSON(w, http.StatusOK, task)
}

type extractRequest struct {
	URL string `json:"url"`
}

type extractResponse struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Author      string     `json:"author,omitempty"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	Images      []string   `json:"images,omitempty"`
	Description string     `json:"description,omitempty"`
	WordCount   int        `json:"word_count"`
	ReadingTime int        `json:"reading_time"`
	Strategy    string     `json:"strategy"`
	ElapsedMs   int64      `json:"elapsed_ms"`
}

func (s *Server) handleDirectExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		s.respondError(w, http.StatusBadRequest, "request body must be a JSON object with a url field")
		return
	}

	result, err := s.extractor.Extract(r.Context(), req.URL)
	if err != nil {
		s.respondError(w, statusForExtractError(err), err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, extractResponse{
		URL:         req.URL,
		Title:       result.Title,
		Content:     result.Content,
		Author:      result.Author,
		PublishDate: result.PublishDate,
		Images:      result.Images,
		Description: result.Description,
		WordCount:   result.WordCount,
		ReadingTime: result.ReadingTime,
		Strategy:    result.Strategy,
		ElapsedMs:   result.Elapsed.Milliseconds(),
	})
}

// statusForExtractError maps typed extraction failures onto HTTP statuses:
// the caller's mistake is 400, upstream trouble is 502/504, an unreadable
// page is 422.
func statusForExtractError(err error) int {
	switch extract.KindOf(err) {
	case extract.KindInvalidURL:
		return http.StatusBadRequest
	case extract.KindHTTPError:
		return http.StatusBadGateway
	case extract.KindTimeout:
		return http.StatusGatewayTimeout
	case extract.KindFetchError:
		return http.StatusBadGateway
	case extract.KindExtractionFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func toArticleResponse(a domain.Article) articleResponse {
	return articleResponse{
		ID:                 a.ID,
		Title:              a.Title,
		Content:            a.Content,
		URL:                a.URL,
		Summary:            a.Summary,
		Author:             a.Author,
		SourceName:         a.SourceName,
		SourceFeedURL:      a.SourceFeedURL,
		ImageURL:           a.ImageURL,
		Language:           a.Language,
		PublishedAt:        a.PublishedAt,
		CollectedAt:        a.CollectedAt,
		WordCount:          a.WordCount,
		ReadingTime:        a.ReadingTime,
		ContentExtractedAt: a.ContentExtractedAt,
		AnalysisStatus:     string(a.AnalysisStatus),
		AnalysisID:         a.AnalysisID,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func boolParam(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func positiveIntParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
