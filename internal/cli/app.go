package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/CoMatu/test-gql-server/internal/config"
	"github.com/CoMatu/test-gql-server/internal/engine"
	"github.com/CoMatu/test-gql-server/internal/schema"
	"github.com/CoMatu/test-gql-server/internal/store"
)

// app is the wiring shared by every command that touches data.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	engine   *engine.Engine
	registry *prometheus.Registry
}

// loadConfig reads the config file and applies the flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, string, error) {
	cfg, path, err := config.Load(opts.Config)
	if err != nil {
		return nil, path, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, WrapExitError(ExitCommandError, "invalid config", err)
	}
	return cfg, path, nil
}

// newLogger builds the text logger on w. --verbose forces debug.
func newLogger(w io.Writer, opts *RootOptions, cfg *config.Config) *slog.Logger {
	level := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openPersister opens the configured backend. The sqlite backend falls
// back to the JSON files for collections it has never stored.
func openPersister(cfg *config.Config) (store.Persister, error) {
	files := store.NewJSONFiles(cfg.DataDir)
	if cfg.Backend != config.BackendSQLite {
		return files, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := store.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	return store.Fallback{Primary: db, Seed: files}, nil
}

// openApp loads config, schema and dataset and builds the engine. Logs go
// to logOut. The caller closes the app.
func openApp(opts *RootOptions, logOut io.Writer) (*app, error) {
	cfg, path, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(logOut, opts, cfg)
	slog.SetDefault(logger)
	logger.Debug("config loaded", "path", path, "backend", cfg.Backend, "data_dir", cfg.DataDir)

	s, err := schema.Load()
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to load schema", err)
	}

	p, err := openPersister(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	st := store.Open(p, engine.WallClock{}, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	eng, err := engine.New(st, s,
		engine.WithLogger(logger),
		engine.WithMetrics(engine.NewMetrics(reg)),
	)
	if err != nil {
		_ = st.Close()
		return nil, WrapExitError(ExitFailure, "failed to start engine", err)
	}

	return &app{cfg: cfg, logger: logger, store: st, engine: eng, registry: reg}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing store", "error", err)
	}
}

func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
	}
}
