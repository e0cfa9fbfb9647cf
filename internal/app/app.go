package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"newsharvest/internal/config"
	"newsharvest/internal/extract"
	"newsharvest/internal/infrastructure/feed"
	"newsharvest/internal/infrastructure/httpapi"
	"newsharvest/internal/infrastructure/scheduler"
	"newsharvest/internal/infrastructure/storage"
	"newsharvest/internal/language"
	"newsharvest/internal/logging"
	"newsharvest/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	store     *storage.SQLiteStore
	ingestor  *usecase.Ingestor
	queue     *usecase.ExtractionQueue
	server    *http.Server
	ingestJob *scheduler.IntervalScheduler
	sweepJob  *scheduler.IntervalScheduler
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open article store: %w", err)
	}

	classifier := language.New()
	collector := feed.NewCollector(cfg.Ingest.FeedTimeout, classifier, baseLogger)
	extractor := extract.New(cfg.Extract.Timeout, baseLogger)

	ingestor := usecase.NewIngestor(store, collector, cfg.Sources, cfg.Ingest.RetentionHorizon(), baseLogger)
	queue := usecase.NewExtractionQueue(store, extractor, cfg.Extract.Workers, baseLogger)

	api := httpapi.New(store, extractor, ingestor, queue, cfg.Sources, baseLogger)
	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: api.Handler(),
	}

	return &Application{
		cfg:       cfg,
		logger:    baseLogger.With("component", "app"),
		store:     store,
		ingestor:  ingestor,
		queue:     queue,
		server:    server,
		ingestJob: scheduler.NewIntervalScheduler(cfg.Ingest.Interval),
		sweepJob:  scheduler.NewIntervalScheduler(24 * time.Hour),
	}, nil
}

// Run starts the scheduled jobs and the HTTP listener, then blocks until the
// context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	a.queue.Start(ctx)

	if err := a.ingestJob.Start(ctx, func(time.Time) {
		a.ingestor.Run(ctx)
	}); err != nil {
		return fmt.Errorf("start ingest job: %w", err)
	}

	if err := a.sweepJob.Start(ctx, func(time.Time) {
		if _, err := a.ingestor.Sweep(ctx); err != nil {
			a.logger.Error("retention sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("start retention job: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	return a.shutdown()
}

func (a *Application) shutdown() error {
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.ingestJob.Stop(shutdownCtx)
	_ = a.sweepJob.Stop(shutdownCtx)

	// The server must go first: handlers enqueue extraction work, so draining
	// the queue while requests are still in flight would race its channel.
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stop http server: %w", err)
	}
	a.queue.Stop()

	return a.store.Close()
}
