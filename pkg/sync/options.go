// Package sync provides the options and result of one assessment-settings sync run.
package sync

import (
	"time"

	"github.com/agentstation/assessmentsync/internal/matcher"
	"github.com/agentstation/assessmentsync/pkg/errors"
)

// Options controls a single sync run.
type Options struct {
	DryRun  bool          // Log and record changes without applying them
	Timeout time.Duration // Upper bound for the whole run (0 disables it)
	RunID   string        // Identifier used in logs and results (generated when empty)

	// Link-code filters. Patterns are globs unless they contain regex metacharacters.
	Include []string
	Exclude []string
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{}
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Validate checks if the sync options are valid.
func (s *Options) Validate() error {
	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}
	if _, err := s.Filter(); err != nil {
		return &errors.ValidationError{
			Field:   "Include/Exclude",
			Value:   append(append([]string{}, s.Include...), s.Exclude...),
			Message: err.Error(),
		}
	}
	return nil
}

// Filter compiles the link-code filter. It returns nil when no pattern is set.
func (s *Options) Filter() (*matcher.Filter, error) {
	if len(s.Include) == 0 && len(s.Exclude) == 0 {
		return nil, nil
	}
	return matcher.NewFilter(s.Include, s.Exclude)
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithTimeout configures the sync timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithRunID sets the run identifier.
func WithRunID(id string) Option {
	return func(opts *Options) {
		opts.RunID = id
	}
}

// WithInclude restricts the run to link codes matching any pattern.
func WithInclude(patterns ...string) Option {
	return func(opts *Options) {
		opts.Include = append(opts.Include, patterns...)
	}
}

// WithExclude skips link codes matching any pattern.
func WithExclude(patterns ...string) Option {
	return func(opts *Options) {
		opts.Exclude = append(opts.Exclude, patterns...)
	}
}
