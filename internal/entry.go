// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
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
	"golang.org/x/sync/errgroup"

	"github.com/0Janvier/citadelle-library/internal/api"
	"github.com/0Janvier/citadelle-library/internal/library"
	"github.com/0Janvier/citadelle-library/internal/mcpserver"
	"github.com/0Janvier/citadelle-library/internal/models"
	"github.com/0Janvier/citadelle-library/internal/persist"
	"github.com/0Janvier/citadelle-library/internal/sse"
	"github.com/0Janvier/citadelle-library/internal/storage"
)

// newLibrary wires storage, persistence and the store for the given config.
func newLibrary(cfg *Config, logger *slog.Logger, opts ...library.Option) (*library.Service, error) {
	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Library.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	p := persist.New(store, cfg.Legacy.ClausesFile, cfg.Legacy.SnippetsFile)
	return library.New(p, logger, opts...), nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_path", cfg.Library.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, err := newLibrary(cfg, logger, library.WithNotifier(func(e library.Event) {
		broker.PublishChange(e.Type, e.ID)
	}))
	if err != nil {
		return err
	}

	// A failed load still leaves the store serving what it could recover;
	// the /api/state endpoint and the readiness probe surface the problem.
	if err := svc.Initialize(ctx); err != nil {
		logger.Error("library initialization failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		if svc.State() != library.StateReady {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher: external edits to the record files reload the store.
	g.Go(func() error {
		watcher := library.NewWatcher(svc, cfg.Library.Path, logger)
		if err := watcher.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

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

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

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

// RunMCP starts the MCP stdio server. Logs go to stderr: stdout carries the
// protocol stream.
func RunMCP(ctx context.Context, cfg *Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svc, err := newLibrary(cfg, logger)
	if err != nil {
		return err
	}
	if err := svc.Initialize(ctx); err != nil {
		logger.Error("library initialization failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(svc).ServeStdio()
}

// RunExport writes the full library export document to the given path, or to
// stdout when path is "-".
func RunExport(ctx context.Context, cfg *Config, path string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	svc, err := newLibrary(cfg, logger)
	if err != nil {
		return err
	}
	if err := svc.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize library: %w", err)
	}
	doc, err := svc.Export(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// RunImport folds an export document from the given path into the library.
func RunImport(ctx context.Context, cfg *Config, path string, merge bool) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	svc, err := newLibrary(cfg, logger)
	if err != nil {
		return err
	}
	if err := svc.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize library: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var doc models.LibraryExport
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse import file: %w", err)
	}

	res, err := svc.Import(ctx, &doc, merge)
	if err != nil {
		return err
	}
	logger.Info("import finished",
		slog.Int("items_imported", res.ItemsImported),
		slog.Int("items_skipped", res.ItemsSkipped),
		slog.Int("categories_imported", res.CategoriesImported),
		slog.Int("errors", len(res.Errors)))
	for _, msg := range res.Errors {
		logger.Warn("import error", slog.String("detail", msg))
	}
	return nil
}
