package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/blackbox/internal/config"
	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/insight"
	"github.com/roach88/blackbox/internal/state"
	"github.com/roach88/blackbox/internal/store"
)

// app is the per-invocation environment: configuration, the open
// database, the journal state and the insight advisor.
type app struct {
	cfg     *config.Config
	backend *store.Store
	journal *state.Store
	advisor *insight.Advisor
	clock   state.Clock
	logger  *slog.Logger
	out     *OutputFormatter

	stopAutosave context.CancelFunc
	autosaveDone chan struct{}
}

// loadConfig resolves the configuration and applies the global flags.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
	return cfg, nil
}

func (o *RootOptions) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// newLogger builds the process logger. --verbose forces debug.
func newLogger(w io.Writer, level, format string, verbose bool) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// open loads config, opens the database and restores the journal. The
// draft autosave loop runs until Close.
func (o *RootOptions) open(cmd *cobra.Command) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat, o.Verbose)

	if cfg.Database != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o700); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to create database directory", err)
		}
	}
	logger.Debug("opening database", "path", cfg.Database)
	backend, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	clock := o.Clock
	if clock == nil {
		clock = state.SystemClock{}
	}
	stateOpts := []state.Option{state.WithLogger(logger), state.WithClock(clock)}
	if o.IDs != nil {
		stateOpts = append(stateOpts, state.WithIDGenerator(o.IDs))
	}
	journal := state.New(backend, stateOpts...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := journal.LoadUser(ctx); err != nil {
		backend.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load journal", err)
	}

	svc := o.Insight
	if svc == nil {
		svc = insight.NewService(cfg.Insight.APIKey,
			insight.WithBaseURL(cfg.Insight.BaseURL),
			insight.WithModels(cfg.Insight.ForecastModel, cfg.Insight.InsightsModel),
			insight.WithChatModel(cfg.Insight.ChatModel),
		)
	}

	a := &app{
		cfg:     cfg,
		backend: backend,
		journal: journal,
		advisor: insight.NewAdvisor(svc,
			insight.WithTimeout(cfg.Insight.Timeout),
			insight.WithLogger(logger),
		),
		clock:        clock,
		logger:       logger,
		out:          o.output(cmd),
		autosaveDone: make(chan struct{}),
	}

	autosaveCtx, cancel := context.WithCancel(ctx)
	a.stopAutosave = cancel
	go func() {
		defer close(a.autosaveDone)
		_ = journal.Autosave(autosaveCtx, cfg.AutosaveInterval)
	}()
	return a, nil
}

// Close stops the autosave loop and closes the database.
func (a *app) Close() {
	a.stopAutosave()
	<-a.autosaveDone
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
}

// withApp opens the environment, runs fn and closes it again.
func withApp(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, a)
}

// activeSessions returns the active profile's sessions, or nil.
func (a *app) activeSessions() []domain.FlightSession {
	p := a.journal.ActiveProfile()
	if p == nil {
		return nil
	}
	return p.Sessions
}
