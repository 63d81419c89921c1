package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-speak/internal/ai"
	"github.com/p-n-ai/pai-speak/internal/curriculum"
	"github.com/p-n-ai/pai-speak/internal/options"
	"github.com/p-n-ai/pai-speak/internal/platform/cache"
	"github.com/p-n-ai/pai-speak/internal/platform/config"
	"github.com/p-n-ai/pai-speak/internal/platform/database"
	"github.com/p-n-ai/pai-speak/internal/practice"
	"github.com/p-n-ai/pai-speak/internal/selector"
	"github.com/p-n-ai/pai-speak/internal/topics"
	"github.com/p-n-ai/pai-speak/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	go app.pruneWizards(ctx, cfg.Wizard.IdleTTL)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     app.server.Handler(),
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: wizard websockets stay open for the life of the page.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// app holds the wired components and the connections to close on exit.
type app struct {
	server  *web.Server
	wizards *selector.Registry
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp connects the optional database and cache and wires the HTTP server.
// Without a database URL practice sessions are kept in memory.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}
	checks := map[string]web.HealthChecker{}

	var store practice.Store = practice.NewMemoryStore()
	var events practice.EventLogger = practice.NopEventLogger{}
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		checks["database"] = db

		pg, err := practice.NewPostgresStore(db.Pool)
		if err != nil {
			a.Close()
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := pg.EnsureSchema(ctx); err != nil {
				a.Close()
				return nil, fmt.Errorf("ensuring schema: %w", err)
			}
		}
		store = pg
		events = practice.NewPostgresEventLogger(db.Pool)
		slog.Info("practice sessions stored in postgres")
	} else {
		slog.Warn("LEARN_DATABASE_URL not set, practice sessions are kept in memory")
	}

	var source options.Source
	if cfg.Options.File != "" {
		source = options.FileSource{Path: cfg.Options.File}
	} else {
		opts := []options.ClientOption{options.WithHTTPClient(&http.Client{Timeout: cfg.Options.Timeout})}
		if cfg.Cache.URL != "" {
			c, err := cache.New(ctx, cfg.Cache.URL)
			if err != nil {
				a.Close()
				return nil, err
			}
			a.closers = append(a.closers, func() { c.Close() })
			checks["cache"] = c
			opts = append(opts, options.WithCache(c, cfg.Options.CacheTTL))
		}
		source = options.NewClient(cfg.Options.URL, opts...)
	}

	loader, err := curriculum.NewLoader(cfg.CurriculumPath)
	if err != nil {
		a.Close()
		return nil, err
	}

	if !cfg.HasRealtimeProvider() {
		slog.Warn("LEARN_AI_OPENAI_API_KEY not set, realtime sessions will fail")
	}
	provider := ai.NewOpenAIProvider(cfg.Realtime.APIKey,
		ai.WithBaseURL(cfg.Realtime.BaseURL),
		ai.WithModel(cfg.Realtime.Model),
		ai.WithTranscriptionModel(cfg.Realtime.TranscriptionModel),
	)

	a.wizards = selector.NewRegistry(source, topics.DefaultRand)
	a.server = web.New(web.Deps{
		Options:        source,
		Wizards:        a.wizards,
		Curriculum:     loader,
		Realtime:       provider,
		Practice:       store,
		Events:         events,
		Checks:         checks,
		SampleSize:     cfg.Wizard.SampleSize,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,
	})
	return a, nil
}

// pruneWizards drops wizards nobody has touched for idle.
func (a *app) pruneWizards(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.wizards.Prune(idle); n > 0 {
				slog.Info("pruned idle wizards", "count", n, "remaining", a.wizards.Len())
			}
		}
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
