// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/snapnote/snapnote/internal/api"
	"github.com/snapnote/snapnote/internal/collection"
	"github.com/snapnote/snapnote/internal/export"
	"github.com/snapnote/snapnote/internal/inbox"
	"github.com/snapnote/snapnote/internal/models"
	"github.com/snapnote/snapnote/internal/ocr"
	"github.com/snapnote/snapnote/internal/sse"
	"github.com/snapnote/snapnote/internal/store"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("inbox_enabled", cfg.Inbox.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Storage is fatal: the application cannot proceed without it.
	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer st.Close()

	// SSE broker for note change events.
	broker := sse.NewBroker(25 * time.Second)
	defer broker.Close()

	// In-memory collection mirroring storage, feeding the broker.
	notes := collection.New(st, func(kind string, n models.Note) {
		broker.PublishNoteEvent(kind, n.ID, n.Title)
	})
	if err := notes.LoadAll(ctx); err != nil {
		logger.Warn("initial load failed", slog.String("error", err.Error()))
	}

	exporter, err := export.New(cfg.Export.Dir)
	if err != nil {
		return fmt.Errorf("init export: %w", err)
	}
	sharer := export.NewCommandSharer(cfg.Export.Opener)
	ocrSvc := ocr.NewService(ocr.NewCommandRecognizer(cfg.OCR.Command, cfg.OCR.Args))

	// Build API handler and router.
	h := api.NewHandler(notes, exporter, sharer, ocrSvc)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	// runCtx is cancelled by the signal goroutine so that long-running group
	// members (the inbox watcher) unblock and Wait can return.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	g, gCtx := errgroup.WithContext(runCtx)

	// Start inbox watcher.
	if cfg.Inbox.Enabled {
		watcher, err := inbox.New(cfg.Inbox.Path, ocrSvc, notes, logger)
		if err != nil {
			return fmt.Errorf("init inbox: %w", err)
		}
		g.Go(func() error {
			return watcher.Run(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Unblock the remaining group members (inbox watcher) so Wait
		// returns and the deferred store close runs.
		cancelRun()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// newLogger builds the slog logger per config: JSON for machine ingestion
// or a tinted console handler for local development.
func newLogger(cfg *Config) *slog.Logger {
	if cfg.App.LogFormat == LogFormatConsole {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.App.LogLevel,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}
