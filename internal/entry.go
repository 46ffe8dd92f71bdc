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

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/engine"
	"github.com/starford/ansuz/internal/healer"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/persist"
	"github.com/starford/ansuz/internal/semantic"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
)

// Sentinel errors the CLI maps to distinct exit codes.
var (
	// ErrHealthThreshold is returned by RunScan when the scan finds more
	// violations than the configured maximum.
	ErrHealthThreshold = errors.New("scan violations exceed threshold")
	// ErrStaleDeclined is returned by RunSearch when persisted artifacts
	// mismatch the runtime and rebuilding was declined.
	ErrStaleDeclined = errors.New("persisted artifacts are stale and rebuild was declined")
	// ErrNoCorpus is returned by RunSearch when no documents are loaded.
	ErrNoCorpus = errors.New("no corpus loaded")
)

// runtime bundles the wired components shared by every command.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	store  *storage.FS
	db     *index.DB
	eng    *engine.Engine
}

func (rt *runtime) close() {
	if rt.db != nil {
		rt.db.Close()
	}
}

func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func newEmbedder(cfg *Config) semantic.Embedder {
	if cfg.Encoder.Provider == EncoderOpenAI {
		return semantic.NewOpenAIEmbedder(
			os.Getenv(cfg.Encoder.APIKeyEnv),
			cfg.Encoder.Model,
			cfg.Encoder.Dimension,
		)
	}
	return semantic.NewHashEmbedder(cfg.Encoder.Dimension)
}

// setup wires storage, the SQLite index, the artifact store, and the
// engine from configuration. extra options are appended after the
// standard ones.
func setup(cfg *Config, logger *slog.Logger, extra ...engine.Option) (*runtime, error) {
	if err := os.MkdirAll(cfg.Docs.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create docs dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Docs.Path, cfg.Docs.IgnorePatterns)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	artifacts, err := persist.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init artifacts: %w", err)
	}

	opts := []engine.Option{
		engine.WithDB(db),
		engine.WithArtifacts(artifacts),
		engine.WithDegradedSearch(cfg.Encoder.DegradeToKeyword),
		engine.WithMaxViolations(cfg.Health.MaxViolations),
	}
	opts = append(opts, extra...)

	eng := engine.New(store, newEmbedder(cfg), logger, opts...)
	return &runtime{cfg: cfg, logger: logger, store: store, db: db, eng: eng}, nil
}

// prime restores persisted artifacts or rebuilds from scratch, then
// persists the fresh state.
func prime(ctx context.Context, rt *runtime) error {
	if err := rt.eng.LoadPersisted(ctx); err == nil {
		return nil
	} else if !errors.Is(err, apperr.ErrIndexStale) {
		rt.logger.Warn("artifact restore failed", slog.String("error", err.Error()))
	}
	if err := rt.eng.Rebuild(ctx); err != nil {
		return err
	}
	if err := rt.eng.Persist(); err != nil {
		rt.logger.Warn("artifact persist failed", slog.String("error", err.Error()))
	}
	return nil
}

// Run starts the HTTP server with the given options and blocks until
// shutdown.
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
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("docs_path", cfg.Docs.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("encoder", cfg.Encoder.Provider),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := setup(cfg, logger, engine.WithEvents(broker))
	if err != nil {
		return err
	}
	defer rt.close()

	// Repair before the first scan so healed files are already in it.
	h := healer.New(rt.store, cfg.Docs.ExemptPatterns, cfg.Docs.DefaultKeywords, logger)
	if _, err := rt.eng.Heal(ctx, h); err != nil {
		logger.Warn("initial heal failed", slog.String("error", err.Error()))
	}
	if err := prime(ctx, rt); err != nil {
		return err
	}

	apiRouter := api.NewRouter(rt.eng, rt.db, rt.store,
		cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		if _, err := rt.eng.Report(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not ready"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Rebuild on file changes.
	g.Go(func() error {
		return rt.eng.Watch(gCtx, rt.store.Root())
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

// RunScan heals the tree, rebuilds everything, persists artifacts, and
// writes the health report to stdout. It returns ErrHealthThreshold
// when violations exceed the configured maximum.
func RunScan(ctx context.Context, cfg *Config) error {
	logger := newLogger(cfg)
	rt, err := setup(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	h := healer.New(rt.store, cfg.Docs.ExemptPatterns, cfg.Docs.DefaultKeywords, logger)
	results, err := rt.eng.Heal(ctx, h)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Outcome != healer.OutcomeUnchanged {
			logger.Info("heal result",
				slog.String("path", res.Path),
				slog.String("outcome", res.Outcome),
				slog.String("reason", res.Reason))
		}
	}

	if err := rt.eng.Rebuild(ctx); err != nil {
		return err
	}
	if err := rt.eng.Persist(); err != nil {
		return err
	}

	report, err := rt.eng.Report()
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if total := int(report.HealthMetrics["total_violations"]); total > cfg.Health.MaxViolations {
		return fmt.Errorf("%w: %d > %d", ErrHealthThreshold,
			total, cfg.Health.MaxViolations)
	}
	return nil
}

// RunSearch answers one query and prints the ranked results as JSON.
// With noRebuild set, stale persisted artifacts are an error instead of
// triggering a rebuild.
func RunSearch(ctx context.Context, cfg *Config, query string, limit int, noRebuild bool) error {
	logger := newLogger(cfg)
	rt, err := setup(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	if noRebuild {
		if err := rt.eng.LoadPersisted(ctx); err != nil {
			if errors.Is(err, apperr.ErrIndexStale) {
				return fmt.Errorf("%w: %v", ErrStaleDeclined, err)
			}
			return err
		}
	} else if err := prime(ctx, rt); err != nil {
		return err
	}
	if rt.eng.Corpus().Len() == 0 {
		return ErrNoCorpus
	}

	results, intentName, err := rt.eng.Search(ctx, query, limit)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(map[string]any{
		"query":   query,
		"intent":  intentName,
		"results": results,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// RunMCP primes the engine and serves the MCP tools over stdio.
func RunMCP(ctx context.Context, cfg *Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	rt, err := setup(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := prime(ctx, rt); err != nil {
		return err
	}

	srv := mcpserver.New(rt.eng, rt.store)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
