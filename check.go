package assessmentsync

import (
	"context"

	"github.com/google/uuid"

	"github.com/agentstation/assessmentsync/internal/sources/extdb"
	"github.com/agentstation/assessmentsync/pkg/errors"
	"github.com/agentstation/assessmentsync/pkg/logging"
)

// CheckReport describes what a run would see.
type CheckReport struct {
	Assignments int `json:"assignments" yaml:"assignments"` // LMS assignments with a link code
	Eligible    int `json:"eligible" yaml:"eligible"`       // of which have a usable id and link code
	External    int `json:"external" yaml:"external"`       // rows in the warehouse assessments table
}

// Check validates configuration, pings the LMS store and reads the warehouse
// table once. Nothing is written.
func (s *syncer) Check(ctx context.Context) (*CheckReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.WithLogger(ctx, s.logger())
	ctx = logging.WithRunID(ctx, uuid.NewString())
	ctx = logging.WithOperation(ctx, "check")

	if err := s.checkConfig(ctx); err != nil {
		return nil, err
	}

	if err := s.config.store.Ping(ctx); err != nil {
		return nil, errors.WrapResource("ping", "lms", "", err)
	}

	internal, err := s.config.store.Assignments(ctx)
	if err != nil {
		return nil, errors.WrapResource("read", "lms", "assignments", err)
	}
	report := &CheckReport{Assignments: len(internal)}
	for _, a := range internal {
		if a.Eligible() {
			report.Eligible++
		}
	}

	src, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer release(ctx, src)

	rows, err := src.ReadAll(ctx, extdb.Query{Table: s.config.assessmentsTable, Distinct: true})
	if err != nil {
		if !errors.IsReadError(err) {
			err = errors.NewReadError(s.config.assessmentsTable, err)
		}
		return nil, err
	}
	report.External = len(rows)

	logging.FromContext(ctx).Info().
		Int("assignments", report.Assignments).
		Int("eligible", report.Eligible).
		Int("external", report.External).
		Msg("Check passed")
	return report, nil
}
