package assessmentsync

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/assessmentsync/internal/metrics"
	"github.com/agentstation/assessmentsync/internal/sources/extdb"
	"github.com/agentstation/assessmentsync/pkg/constants"
	"github.com/agentstation/assessmentsync/pkg/lms"
	pkgsync "github.com/agentstation/assessmentsync/pkg/sync"
)

// Option is a function that configures a Syncer instance
type Option func(*config) error

// config holds the Syncer's dependencies.
type config struct {
	store              lms.Store
	source             extdb.Config
	openSource         SourceOpener
	assessmentsTable   string
	studentGradesTable string
	logger             *zerolog.Logger
	metrics            *metrics.Recorder
	runOnStart         bool
	syncOptions        []pkgsync.Option
}

func defaultConfig() *config {
	return &config{
		assessmentsTable:   constants.DefaultAssessmentsTable,
		studentGradesTable: constants.DefaultStudentGradesTable,
	}
}

// WithStore sets the LMS store that is read and updated.
func WithStore(store lms.Store) Option {
	return func(c *config) error {
		c.store = store
		return nil
	}
}

// WithSource configures the warehouse connection.
func WithSource(cfg extdb.Config) Option {
	return func(c *config) error {
		c.source = cfg
		return nil
	}
}

// WithSourceOpener replaces how the warehouse connection is opened.
func WithSourceOpener(fn SourceOpener) Option {
	return func(c *config) error {
		c.openSource = fn
		return nil
	}
}

// WithTables sets the warehouse table names. An empty name stops every run
// before connecting.
func WithTables(assessments, studentGrades string) Option {
	return func(c *config) error {
		c.assessmentsTable = strings.TrimSpace(assessments)
		c.studentGradesTable = strings.TrimSpace(studentGrades)
		return nil
	}
}

// WithLogger sets the logger used for runs.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics records every finished run on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *config) error {
		c.metrics = r
		return nil
	}
}

// WithRunOnStart makes Schedule run once before waiting for the first tick.
func WithRunOnStart(enabled bool) Option {
	return func(c *config) error {
		c.runOnStart = enabled
		return nil
	}
}

// WithSyncDefaults sets sync options applied before the options of each call.
func WithSyncDefaults(opts ...pkgsync.Option) Option {
	return func(c *config) error {
		c.syncOptions = append(c.syncOptions, opts...)
		return nil
	}
}
