// Package app provides the application context and dependency management
// for the agoraflux CLI: configuration, logging, the lazily created
// pipeline and its storage sink.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/agoraflux"
	"github.com/agentstation/agoraflux/internal/appcontext"
	"github.com/agentstation/agoraflux/internal/cmd/output"
	"github.com/agentstation/agoraflux/pkg/errors"
)

// App represents the agoraflux application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	out    io.Writer

	// Pipeline instance (lazy-initialized, singleton)
	mu       sync.Mutex
	pipeline *agoraflux.Pipeline
	closers  []io.Closer
}

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		out:     os.Stdout,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.config == nil {
		config, err := LoadConfig("")
		if err != nil {
			return nil, errors.WrapResource("load", "config", "", err)
		}
		app.config = config
	}

	if app.logger == nil {
		logger := NewLogger(app.config)
		app.logger = &logger
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format, detected from the
// terminal when none was given.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// Pipeline returns the pipeline instance, creating it on first use.
func (a *App) Pipeline() (*agoraflux.Pipeline, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pipeline != nil {
		return a.pipeline, nil
	}

	p, closers, err := buildPipeline(a.config)
	if err != nil {
		return nil, errors.WrapResource("create", "pipeline", "", err)
	}
	a.pipeline = p
	a.closers = closers
	return p, nil
}

// Shutdown releases the resources held by the pipeline sink and writes the
// metrics file when one is configured.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to release resource during shutdown")
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithOutput sets where command output is written.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}

// WithPipeline sets a custom pipeline instance (useful for testing).
func WithPipeline(p *agoraflux.Pipeline) Option {
	return func(a *App) error {
		a.pipeline = p
		return nil
	}
}
