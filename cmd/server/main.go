// Package main is the entrypoint for the JobDesk API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/kiranshivaraju/jobdesk/internal/ai"
	"github.com/kiranshivaraju/jobdesk/internal/api"
	"github.com/kiranshivaraju/jobdesk/internal/api/handler"
	mw "github.com/kiranshivaraju/jobdesk/internal/api/middleware"
	"github.com/kiranshivaraju/jobdesk/internal/cache"
	"github.com/kiranshivaraju/jobdesk/internal/config"
	"github.com/kiranshivaraju/jobdesk/internal/intake"
	"github.com/kiranshivaraju/jobdesk/internal/report"
	"github.com/kiranshivaraju/jobdesk/internal/sheets"
	"github.com/kiranshivaraju/jobdesk/internal/store"
	"github.com/kiranshivaraju/jobdesk/internal/tracker"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the job store
	jobStore, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Optional Redis cache
	jobCache, closeCache, err := openCache(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeCache()

	// 4. Create AI provider
	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	adapter := ai.NewAdapter(provider, cfg.AI.InferenceTimeout, cfg.AI.Temperature)
	slog.Info("AI provider initialized", "provider", provider.Name())

	// 5. Optional Google Sheets mirror
	mirror, err := openMirror(ctx, cfg.Sheets, jobStore)
	if err != nil {
		return err
	}

	// 6. Build router with dependencies
	router := newRouter(cfg, routerDeps{
		store:    jobStore,
		cache:    jobCache,
		provider: provider,
		intake:   intake.NewService(jobStore, adapter, jobCache, mirror, cfg.Jobs.DefaultDueDays),
		tracker:  tracker.New(jobStore, mirror, tracker.WithExtractionCache(jobCache, provider.Name())),
		reports:  report.NewGenerator(jobStore, adapter),
	})

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.InferenceTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// openStore picks Postgres when a database URL is set, the embedded Badger
// store when a data directory is set, and memory otherwise.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (store.Store, func(), error) {
	switch {
	case cfg.URL != "":
		s, err := store.OpenPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return s, s.Close, nil

	case cfg.DataDir != "":
		s, err := store.NewBadgerStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open data dir: %w", err)
		}
		slog.Info("job store ready", "backend", "badger", "dir", cfg.DataDir)
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Warn("closing job store", "error", err)
			}
		}, nil

	default:
		s, err := store.NewMemoryStore()
		if err != nil {
			return nil, nil, fmt.Errorf("create memory store: %w", err)
		}
		slog.Warn("no DATABASE_URL or JOBDESK_DATA_DIR set, jobs are kept in memory only")
		return s, func() {}, nil
	}
}

// openCache connects to Redis when configured. Without it extraction results
// are not cached and rate limiting is off.
func openCache(ctx context.Context, cfg config.RedisConfig) (cache.Cache, func(), error) {
	if cfg.URL == "" {
		slog.Info("no REDIS_URL set, cache disabled")
		return cache.Nop{}, func() {}, nil
	}

	rc, err := cache.NewRedisCache(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("create redis cache: %w", err)
	}
	if err := rc.Ping(ctx); err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")
	return rc, func() { rc.Close() }, nil
}

// openMirror returns nil when no spreadsheet is configured. A nil mirror is
// a valid no-op refresher.
func openMirror(ctx context.Context, cfg config.SheetsConfig, s store.Store) (*sheets.Mirror, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := sheets.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	mirror := sheets.NewMirror(s, client)
	mirror.Refresh(ctx)
	slog.Info("google sheets mirror enabled", "sheet", cfg.SheetName)
	return mirror, nil
}

type routerDeps struct {
	store    store.Store
	cache    cache.Cache
	provider models.AIProvider
	intake   *intake.Service
	tracker  *tracker.Tracker
	reports  *report.Generator
}

func newRouter(cfg *config.Config, d routerDeps) http.Handler {
	auth := mw.NewAuth(cfg.Server.APITokenHash)
	if !auth.Enabled() {
		slog.Warn("JOBDESK_API_TOKEN_HASH not set, API authentication disabled")
	}

	return api.NewRouter(api.Dependencies{
		Auth:      auth,
		RateLimit: mw.NewRateLimit(d.cache, cfg.Server.RateLimit),

		HealthHandler: handler.NewHealthHandler(d.store, d.cache, d.provider.Name()),

		IntakeHandler:  handler.NewIntakeHandler(d.intake),
		PreviewHandler: handler.NewPreviewHandler(d.intake),

		CreateJobHandler:        handler.NewCreateJobHandler(d.intake),
		ListJobsHandler:         handler.NewListJobsHandler(d.store),
		GetJobHandler:           handler.NewGetJobHandler(d.store),
		CorrectJobHandler:       handler.NewCorrectJobHandler(d.tracker),
		SetStatusHandler:        handler.NewSetStatusHandler(d.tracker),
		SetDueDateHandler:       handler.NewSetDueDateHandler(d.tracker),
		SetChecklistItemHandler: handler.NewSetChecklistItemHandler(d.tracker),

		WeeklyReportHandler: handler.NewWeeklyReportHandler(d.reports, time.Now),
	})
}
