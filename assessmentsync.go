// Package assessmentsync keeps LMS assignment settings in line with the assessment
// definitions published in an external data warehouse.
//
// One run reads the LMS assignment catalog and the warehouse assessments table,
// pairs records on their link code and enforces the submission, notification,
// plagiarism and grading-scale policy on every paired assignment.
package assessmentsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/assessmentsync/internal/sources/extdb"
	"github.com/agentstation/assessmentsync/pkg/assessments"
	"github.com/agentstation/assessmentsync/pkg/errors"
	"github.com/agentstation/assessmentsync/pkg/logging"
	pkgsync "github.com/agentstation/assessmentsync/pkg/sync"
)

// Syncer runs assessment-settings syncs against one LMS store and one warehouse.
type Syncer interface {
	// Sync performs one pass and always returns a result, also on error
	Sync(ctx context.Context, opts ...pkgsync.Option) (*pkgsync.Result, error)

	// Check validates configuration and probes both databases without writing
	Check(ctx context.Context) (*CheckReport, error)

	// Schedule runs Sync on a cron expression until ctx is canceled
	Schedule(ctx context.Context, cron string, opts ...pkgsync.Option) error

	// OnRunComplete registers a callback for finished runs
	OnRunComplete(RunCompleteHook)

	// OnChange registers a callback for every recorded setting change
	OnChange(ChangeHook)
}

// Source is an open connection to the warehouse.
type Source interface {
	ReadAll(ctx context.Context, q extdb.Query) ([]assessments.Row, error)
	Close() error
}

// SourceOpener connects to the warehouse described by cfg.
type SourceOpener func(ctx context.Context, cfg extdb.Config) (Source, error)

// openExtDB is the default SourceOpener.
func openExtDB(ctx context.Context, cfg extdb.Config) (Source, error) {
	src, err := extdb.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// syncer is the internal implementation of the Syncer interface
type syncer struct {
	// runs never overlap, whether started by Schedule or by callers
	mu     sync.Mutex
	config *config
	hooks  *hooks
}

// New creates a Syncer with the given options. A store is required.
func New(opts ...Option) (Syncer, error) {
	s := &syncer{
		config: defaultConfig(),
		hooks:  newHooks(),
	}

	for _, opt := range opts {
		if err := opt(s.config); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	if s.config.store == nil {
		return nil, errors.NewConfigError("lms", "store is required", nil)
	}
	if s.config.openSource == nil {
		s.config.openSource = openExtDB
	}

	return s, nil
}

// OnRunComplete registers a callback for finished runs
func (s *syncer) OnRunComplete(fn RunCompleteHook) { s.hooks.OnRunComplete(fn) }

// OnChange registers a callback for every recorded setting change
func (s *syncer) OnChange(fn ChangeHook) { s.hooks.OnChange(fn) }

// logger returns the configured logger, or the default one.
func (s *syncer) logger() *zerolog.Logger {
	if s.config.logger != nil {
		return s.config.logger
	}
	return logging.Default()
}

// checkConfig logs the external settings and stops at the first missing one.
func (s *syncer) checkConfig(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	checks := []struct {
		label   string
		setting string
		value   string
	}{
		{"Database", "external.type", s.config.source.Type},
		{"Assessments Table", "tables.assessments", s.config.assessmentsTable},
		{"Student Grades Table", "tables.student_grades", s.config.studentGradesTable},
	}

	for _, c := range checks {
		if c.value == "" {
			logger.Info().Msgf("%s not defined.", c.label)
			return errors.NewConfigurationMissingError(c.setting)
		}
		logger.Info().Msgf("%s: %s", c.label, c.value)
	}
	return nil
}

// connect opens the warehouse and logs a failure the way the scheduler expects.
func (s *syncer) connect(ctx context.Context) (Source, error) {
	logger := logging.FromContext(ctx)
	logger.Info().Msg("Starting connection...")

	src, err := s.config.openSource(ctx, s.config.source)
	if err != nil {
		logger.Error().Err(err).Msg("Error while communicating with external database")
		return nil, err
	}
	return src, nil
}

// release closes the warehouse connection, logging any error.
func release(ctx context.Context, src Source) {
	if err := src.Close(); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Closing external database failed")
	}
}
