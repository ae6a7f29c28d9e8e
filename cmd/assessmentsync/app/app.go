// Package app provides the application context and dependency management
// for the assessmentsync CLI. It centralizes configuration, logging and the
// lazily opened LMS store and syncer shared by every command.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/assessmentsync"
	"github.com/agentstation/assessmentsync/internal/config"
	"github.com/agentstation/assessmentsync/internal/lms/postgres"
	"github.com/agentstation/assessmentsync/internal/metrics"
	"github.com/agentstation/assessmentsync/pkg/errors"
	"github.com/agentstation/assessmentsync/pkg/lms"
	pkgsync "github.com/agentstation/assessmentsync/pkg/sync"
)

// StoreOpener opens the LMS store.
type StoreOpener func(ctx context.Context, cfg postgres.Config) (lms.Store, error)

// App represents the assessmentsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// CLI configuration (flags and logging)
	config *Config

	// Sync configuration, loaded once flags are parsed
	settings *config.Config

	logger  *zerolog.Logger
	metrics *metrics.Recorder

	openStore   StoreOpener
	syncOptions []assessmentsync.Option

	// Lazily created, shared by commands
	mu     sync.Mutex
	store  lms.Store
	syncer assessmentsync.Syncer
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version:   version,
		commit:    commit,
		date:      date,
		builtBy:   builtBy,
		metrics:   metrics.New(),
		openStore: openPostgres,
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = cfg

	logger := NewLogger(cfg)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

func openPostgres(ctx context.Context, cfg postgres.Config) (lms.Store, error) {
	store, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the CLI configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// Metrics returns the process-wide metrics recorder.
func (a *App) Metrics() *metrics.Recorder { return a.metrics }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// Settings returns the sync configuration, loading it on first use.
func (a *App) Settings() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.settings == nil {
		settings, err := config.Load(a.config.ConfigFile)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Using default configuration")
			settings = config.Default()
		}
		a.settings = settings
	}
	return a.settings
}

// LoadSettings reads the sync configuration from the config file, the
// environment and .env files.
func (a *App) LoadSettings() error {
	settings, err := config.Load(a.config.ConfigFile)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	a.settings = settings
	a.mu.Unlock()

	if settings.File != "" {
		a.logger.Debug().Str("file", settings.File).Msg("Loaded configuration")
	}
	return nil
}

// Syncer returns the syncer, opening the LMS store on first use.
func (a *App) Syncer() (assessmentsync.Syncer, error) {
	settings := a.Settings()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.syncer != nil {
		return a.syncer, nil
	}

	if a.store == nil {
		store, err := a.openStore(context.Background(), postgres.Config{
			DSN:    settings.LMS.DSN,
			Prefix: settings.LMS.Prefix,
		})
		if err != nil {
			if errors.IsConfigurationMissing(err) {
				a.logger.Info().Msg("LMS database not defined.")
			}
			return nil, err
		}
		a.store = store
	}

	opts := append([]assessmentsync.Option{
		assessmentsync.WithStore(a.store),
		assessmentsync.WithSource(settings.External),
		assessmentsync.WithTables(settings.Tables.Assessments, settings.Tables.StudentGrades),
		assessmentsync.WithLogger(a.logger),
		assessmentsync.WithMetrics(a.metrics),
		assessmentsync.WithRunOnStart(settings.Schedule.RunOnStart),
		assessmentsync.WithSyncDefaults(
			pkgsync.WithDryRun(settings.Sync.DryRun),
			pkgsync.WithTimeout(settings.Sync.Timeout),
			pkgsync.WithInclude(settings.Filter.Include...),
			pkgsync.WithExclude(settings.Filter.Exclude...),
		),
	}, a.syncOptions...)

	s, err := assessmentsync.New(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "syncer", "", err)
	}
	a.syncer = s
	return s, nil
}

// Shutdown releases the LMS store.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
	a.syncer = nil
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom CLI configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithSettings sets the sync configuration instead of loading it.
func WithSettings(settings *config.Config) Option {
	return func(a *App) error {
		a.settings = settings
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

// WithStoreOpener replaces how the LMS store is opened (useful for testing).
func WithStoreOpener(fn StoreOpener) Option {
	return func(a *App) error {
		a.openStore = fn
		return nil
	}
}

// WithSyncerOptions appends options passed to assessmentsync.New.
func WithSyncerOptions(opts ...assessmentsync.Option) Option {
	return func(a *App) error {
		a.syncOptions = append(a.syncOptions, opts...)
		return nil
	}
}
