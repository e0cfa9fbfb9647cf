package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsharvest/internal/ports"
)

// TaskState is the lifecycle of one background extraction task.
type TaskState string

const (
	TaskQueued  TaskState = "queued"
	TaskRunning TaskState = "running"
	TaskDone    TaskState = "done"
	TaskFailed  TaskState = "failed"
)

// Task tracks one background extraction request for polling clients.
type Task struct {
	ID         string     `json:"id"`
	ArticleID  string     `json:"article_id"`
	State      TaskState  `json:"state"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

const (
	queueCapacity = 128

	// taskRetention is how long finished tasks stay visible to polling
	// clients before eviction.
	taskRetention = time.Hour
)

// ExtractionQueue runs article full-text extraction on a fixed pool of
// workers so a burst of requests cannot pile up unbounded goroutines.
type ExtractionQueue struct {
	store     ports.ArticleStore
	extractor ports.ContentExtractor
	workers   int
	retention time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	tasks  map[string]*Task
	closed bool

	jobs chan string
	wg   sync.WaitGroup
}

// NewExtractionQueue builds a queue; call Start before enqueueing.
func NewExtractionQueue(store ports.ArticleStore, extractor ports.ContentExtractor, workers int, logger *slog.Logger) *ExtractionQueue {
	if workers < 1 {
		workers = 1
	}
	return &ExtractionQueue{
		store:     store,
		extractor: extractor,
		workers:   workers,
		retention: taskRetention,
		logger:    logger.With("component", "extraction_queue"),
		tasks:     make(map[string]*Task),
		jobs:      make(chan string, queueCapacity),
	}
}

// Start launches the worker pool. Workers exit when the context is cancelled
// or Stop closes the queue.
func (q *ExtractionQueue) Start(ctx context.Context) {
	for n := 0; n < q.workers; n++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case taskID, ok := <-q.jobs:
					if !ok {
						return
					}
					q.run(ctx, taskID)
				}
			}
		}()
	}
}

// Stop drains the queue and waits for in-flight tasks to finish. Enqueue
// calls arriving after Stop fail instead of racing the closed channel.
func (q *ExtractionQueue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.jobs)
	q.wg.Wait()
}

// Enqueue registers a new task for the given article and returns its id.
func (q *ExtractionQueue) Enqueue(articleID string) (string, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.New().String(),
		ArticleID: articleID,
		State:     TaskQueued,
		CreatedAt: now,
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return "", fmt.Errorf("extraction queue is stopped")
	}

	q.evictFinished(now)
	q.tasks[task.ID] = task

	select {
	case q.jobs <- task.ID:
		return task.ID, nil
	default:
		task.State = TaskFailed
		task.Error = "extraction queue is full"
		task.FinishedAt = &now
		return "", fmt.Errorf("extraction queue is full")
	}
}

// evictFinished drops settled tasks past the retention window so the task
// map cannot grow for the process lifetime. Caller holds q.mu.
func (q *ExtractionQueue) evictFinished(now time.Time) {
	for id, task := range q.tasks {
		if task.FinishedAt != nil && now.Sub(*task.FinishedAt) > q.retention {
			delete(q.tasks, id)
		}
	}
}

// Get returns a snapshot of a task.
func (q *ExtractionQueue) Get(taskID string) (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.tasks[taskID]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

func (q *ExtractionQueue) run(ctx context.Context, taskID string) {
	q.setState(taskID, TaskRunning)

	task, ok := q.Get(taskID)
	if !ok {
		return
	}

	article, err := q.store.GetByID(ctx, task.ArticleID)
	if err != nil {
		q.finish(taskID, TaskFailed, fmt.Sprintf("load article: %v", err))
		return
	}

	extracted, err := q.extractor.Extract(ctx, article.URL)
	if err != nil {
		q.logger.Warn("extraction failed", "article", article.ID, "url", article.URL, "error", err)
		q.finish(taskID, TaskFailed, err.Error())
		return
	}

	// Keep the feed-supplied image when one exists; only backfill from the
	// page when the feed had none.
	imageURL := ""
	if article.ImageURL == "" && len(extracted.Images) > 0 {
		imageURL = extracted.Images[0]
	}

	err = q.store.UpdateContent(ctx, article.ID, extracted.Content,
		extracted.WordCount, extracted.ReadingTime, time.Now().UTC(), imageURL)
	if err != nil {
		q.finish(taskID, TaskFailed, fmt.Sprintf("store content: %v", err))
		return
	}

	q.logger.Info("extraction finished",
		"article", article.ID,
		"strategy", extracted.Strategy,
		"words", extracted.WordCount,
		"elapsed", extracted.Elapsed.Round(time.Millisecond).String(),
	)
	q.finish(taskID, TaskDone, "")
}

func (q *ExtractionQueue) setState(taskID string, state TaskState) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if task, ok := q.tasks[taskID]; ok {
		task.State = state
	}
}

func (q *ExtractionQueue) finish(taskID string, state TaskState, errMsg string) {
	now := time.Now().UTC()
	q.mu.Lock()
	defer q.mu.Unlock()
	if task, ok := q.tasks[taskID]; ok {
		task.State = state
		task.Error = errMsg
		task.FinishedAt = &now
	}
}
