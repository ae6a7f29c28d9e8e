package assessmentsync

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/agentstation/assessmentsync/internal/sources/extdb"
	"github.com/agentstation/assessmentsync/pkg/assessments"
	"github.com/agentstation/assessmentsync/pkg/errors"
	"github.com/agentstation/assessmentsync/pkg/logging"
	"github.com/agentstation/assessmentsync/pkg/policy"
	"github.com/agentstation/assessmentsync/pkg/reconcile"
	"github.com/agentstation/assessmentsync/pkg/settings"
	pkgsync "github.com/agentstation/assessmentsync/pkg/sync"
)

// Sync runs one pass: read both sides, pair them on link code and enforce the
// policy on every pair. The returned result is never nil; its Status is the
// scheduler exit code for err.
func (s *syncer) Sync(ctx context.Context, opts ...pkgsync.Option) (*pkgsync.Result, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Parse options
	options := pkgsync.Defaults().Apply(s.config.syncOptions...).Apply(opts...)
	if options.RunID == "" {
		options.RunID = uuid.NewString()
	}
	result := pkgsync.NewResult(options.RunID, options.DryRun)

	ctx = logging.WithLogger(ctx, s.logger())
	ctx = logging.WithRunID(ctx, options.RunID)

	// Step 2: Validate options upfront
	if err := options.Validate(); err != nil {
		return s.finish(ctx, result, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Step 3: Setup context with timeout
	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {} // No-op cancel if no timeout
	}
	defer cancel()

	err := s.run(ctx, options, result)
	return s.finish(ctx, result, err)
}

// run fills result and returns the error that ended the pass.
func (s *syncer) run(ctx context.Context, options *pkgsync.Options, result *pkgsync.Result) error {
	logger := logging.FromContext(ctx)

	// Step 4: Check configuration before touching either database
	if err := s.checkConfig(ctx); err != nil {
		return err
	}

	// Step 5: Connect to the warehouse; released on every path from here on
	src, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer release(ctx, src)

	// Step 6: Read the internal catalog
	internal, err := s.config.store.Assignments(ctx)
	if err != nil {
		return errors.WrapResource("read", "lms", "assignments", err)
	}
	result.Internal = len(internal)

	// Step 7: Read and validate the external table
	external, err := s.readExternal(ctx, src, result)
	if err != nil {
		return err
	}

	// Step 8: Pair records on link code
	var matchOpts []reconcile.Option
	filter, err := options.Filter()
	if err != nil {
		return errors.WrapValidation("filter", err)
	}
	if filter != nil {
		matchOpts = append(matchOpts, reconcile.WithFilter(filter))
	}
	matched := reconcile.Match(internal, external, matchOpts...)

	result.Matched = matched.Stats.Matched
	result.Unmatched = matched.Stats.Unmatched
	result.Orphans = matched.Stats.Orphans
	result.Filtered = matched.Stats.Filtered

	for _, a := range matched.Unmatched {
		logger.Debug().
			Int64("assignment_id", a.ID).
			Str("link_code", a.LinkCode).
			Msg("No external assessment, skipping")
	}
	if matched.Stats.Duplicates > 0 {
		logger.Warn().Int("duplicates", matched.Stats.Duplicates).Msg("Duplicate link codes, last record wins")
	}

	// Step 9: Enforce the policy on every pair
	engine := policy.New(&settings.Writer{
		Store:   s.config.store,
		DryRun:  options.DryRun,
		Changes: result.Changes,
	})

	for _, pair := range matched.Pairs {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := engine.Apply(ctx, pair)
		result.Writes += outcome.Writes
		if outcome.Writes > 0 {
			result.Assignments++
		}
		if err != nil {
			return errors.WrapResource("update", "assignment", strconv.FormatInt(pair.Internal.ID, 10), err)
		}
	}

	return nil
}

// readExternal reads the assessments table and converts rows at the boundary.
// Rows without a link code are counted as invalid and skipped.
func (s *syncer) readExternal(ctx context.Context, src Source, result *pkgsync.Result) ([]assessments.ExternalAssessment, error) {
	ctx = logging.WithTable(ctx, s.config.assessmentsTable)
	logger := logging.FromContext(ctx)

	rows, err := src.ReadAll(ctx, extdb.Query{Table: s.config.assessmentsTable, Distinct: true})
	if err != nil {
		logger.Error().Err(err).Msg("Error reading data from the external course table")
		if !errors.IsReadError(err) {
			err = errors.NewReadError(s.config.assessmentsTable, err)
		}
		return nil, err
	}
	result.External = len(rows)

	external := make([]assessments.ExternalAssessment, 0, len(rows))
	for i, row := range rows {
		a, err := assessments.FromRow(row)
		if err != nil {
			result.Invalid++
			logger.Warn().Err(err).Int("row", i).Msg("Skipping external record")
			continue
		}
		if len(a.DateIssues) > 0 {
			logger.Debug().
				Str("link_code", a.LinkCode).
				Strs("columns", a.DateIssues).
				Msg("Unparseable dates left empty")
		}
		external = append(external, a)
	}

	logger.Debug().Int("rows", len(rows)).Int("valid", len(external)).Msg("Read external assessments")
	return external, nil
}

// finish stamps the result, records metrics, fires hooks and logs the summary.
func (s *syncer) finish(ctx context.Context, result *pkgsync.Result, err error) (*pkgsync.Result, error) {
	result.Finish(err)

	if s.config.metrics != nil {
		s.config.metrics.Observe(result)
	}
	s.hooks.triggerRunComplete(result)

	logger := logging.FromContext(ctx)
	switch {
	case result.Skipped != "":
		logger.Info().Str("setting", result.Skipped).Msg(result.Summary())
	case result.Failed():
		logger.Error().Int("status", int(result.Status)).Msg(result.Summary())
	default:
		logger.Info().
			Int("writes", result.Writes).
			Dur("duration", result.Duration).
			Bool("dry_run", result.DryRun).
			Msg(result.Summary())
	}

	return result, err
}
