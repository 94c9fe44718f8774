package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/recipegrid/internal/badgerstore"
	"github.com/specialistvlad/recipegrid/internal/ctxlog"
	"github.com/specialistvlad/recipegrid/internal/engine"
	"github.com/specialistvlad/recipegrid/internal/inmemorystore"
	"github.com/specialistvlad/recipegrid/internal/seriesstore"
	"github.com/specialistvlad/recipegrid/internal/vector"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	policy vector.FillPolicy

	// shared is the store used by every recipe when the badger backend is
	// configured. Nil means each recipe gets its own in-memory store.
	shared seriesstore.Store
	closer io.Closer

	httpServer *http.Server
}

// NewApp is the constructor for the main application. Results are written to
// outW and logs to logW.
func NewApp(outW, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	policy, err := vector.ParsePolicy(cfg.FillPolicy)
	if err != nil {
		return nil, err
	}

	a := &App{outW: outW, logger: logger, config: cfg, policy: policy}

	if cfg.Store.Backend == StoreBadger {
		store, err := badgerstore.Open(badgerstore.Config{
			Path:     cfg.Store.Path,
			InMemory: cfg.Store.InMemory,
			Logger:   logger.With("component", "badger"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open series store: %w", err)
		}
		a.shared = store
		a.closer = store
		logger.Debug("Shared series store opened.", "path", cfg.Store.Path, "in_memory", cfg.Store.InMemory)
	}

	logger.Debug("App initialized.", "fill_policy", policy, "store", cfg.Store.Backend)
	return a, nil
}

// Close releases the series store and stops the HTTP server if it runs.
func (a *App) Close() error {
	var errs []error
	if err := a.closeServer(context.Background()); err != nil {
		errs = append(errs, err)
	}
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close series store: %w", err))
		}
		a.closer = nil
	}
	return errors.Join(errs...)
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// engine returns an engine for one recipe or request.
func (a *App) engine() *engine.Engine {
	store := a.shared
	if store == nil {
		store = inmemorystore.New()
	}
	return engine.New(store, engine.WithFillPolicy(a.policy))
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
