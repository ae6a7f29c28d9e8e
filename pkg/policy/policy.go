// Package policy derives and enforces the governed settings of matched assignments.
//
// The rules are fixed: marking workflow on, grader notifications off, student
// notifications on, attempts never reopened, submit button and submission
// statement following the physical hand-in plugin, Turnitin on for file
// submissions and the grading scale taken from the external markscheme.
package policy

import (
	"context"
	"fmt"

	"github.com/agentstation/assessmentsync/pkg/constants"
	"github.com/agentstation/assessmentsync/pkg/lms"
	"github.com/agentstation/assessmentsync/pkg/logging"
	"github.com/agentstation/assessmentsync/pkg/reconcile"
	"github.com/agentstation/assessmentsync/pkg/settings"
)

// Rule is the desired value of one assign column.
type Rule struct {
	Setting settings.Setting
	Desired lms.Value
	// Forced rules are written on every run even when the value already matches.
	Forced bool
}

// Rules returns the assign column rules for an assignment. physicalHandIn is the
// enabled flag of the physical hand-in plugin; when set, the submit button and
// the submission statement are both turned off, otherwise both are turned on.
func Rules(physicalHandIn bool) []Rule {
	drafts := lms.BoolValue(!physicalHandIn)
	return []Rule{
		{Setting: settings.MarkingWorkflow, Desired: lms.IntValue(1)},
		{Setting: settings.SubmissionDrafts, Desired: drafts},
		{Setting: settings.RequireSubmissionStatement, Desired: drafts},
		{Setting: settings.SendNotifications, Desired: lms.IntValue(0)},
		{Setting: settings.SendLateNotifications, Desired: lms.IntValue(0), Forced: true},
		{Setting: settings.SendStudentNotifications, Desired: lms.IntValue(1)},
		{Setting: settings.AttemptReopenMethod, Desired: lms.TextValue(constants.AttemptReopenNone)},
	}
}

// ScaleDecision is the outcome of the grading-scale comparison.
type ScaleDecision struct {
	Current int64  // grade item scale id, 0 when unset
	Desired int64  // scale id resolved from the markscheme, 0 when none matches
	Name    string // external markscheme code
}

// Changed reports whether the block must be written.
func (d ScaleDecision) Changed() bool { return d.Current != d.Desired }

// Updates returns the three grading writes for the decision. A real scale is stored
// as its id on the grade item and as the negated id in assign.grade; no scale
// falls back to a percentage grade.
func (d ScaleDecision) Updates(assignmentID int64, linkCode string) []settings.Update {
	scale, grade, gradeType := lms.NullValue(), lms.IntValue(constants.PercentageGrade), lms.IntValue(constants.GradeTypeValue)
	if d.Desired > 0 {
		scale, grade, gradeType = lms.IntValue(d.Desired), lms.IntValue(-d.Desired), lms.IntValue(constants.GradeTypeScale)
	}
	return []settings.Update{
		{Setting: settings.GradeScale, Target: lms.GradeItemField(linkCode, settings.GradeScale.Name), Value: scale},
		{Setting: settings.Grade, Target: lms.AssignField(assignmentID, settings.Grade.Name), Value: grade},
		{Setting: settings.GradeType, Target: lms.GradeItemField(linkCode, settings.GradeType.Name), Value: gradeType},
	}
}

// Message is the log line for a written decision.
func (d ScaleDecision) Message() string {
	return fmt.Sprintf("Grade scale set as %d = %s", d.Desired, d.Name)
}

// Outcome summarises what Apply did for one pair.
type Outcome struct {
	Writes         int  // settings written, grading block counted once
	PhysicalHandIn bool // physical hand-in plugin enabled
	Turnitin       bool // file submissions enabled, so Turnitin was evaluated
	ScaleChanged   bool
}

// Engine applies the policy through a settings writer.
type Engine struct {
	store  lms.Store
	writer *settings.Writer
}

// New creates an engine writing through w.
func New(w *settings.Writer) *Engine {
	return &Engine{store: w.Store, writer: w}
}

// Apply enforces every governed setting on the internal side of the pair.
func (e *Engine) Apply(ctx context.Context, pair reconcile.Pair) (Outcome, error) {
	a := pair.Internal
	ctx = logging.WithAssignment(ctx, a.ID, a.LinkCode)
	logger := logging.FromContext(ctx)
	scoped := e.writer.For(a)

	logger.Info().Msgf("%d: %s - Assignment Settings", a.ID, a.LinkCode)

	var out Outcome
	var err error

	if out.PhysicalHandIn, err = e.enabled(ctx, lms.PluginEnabled(a.ID, constants.PluginPhysical, "")); err != nil {
		return out, err
	}

	for _, rule := range Rules(out.PhysicalHandIn) {
		target := lms.AssignField(a.ID, rule.Setting.Name)
		write := scoped.WriteIfDifferent
		if rule.Forced {
			write = scoped.Write
		}
		wrote, err := write(ctx, rule.Setting, target, rule.Desired)
		if err != nil {
			return out, err
		}
		if wrote {
			out.Writes++
		}
	}

	if out.Turnitin, err = e.enabled(ctx, lms.PluginEnabled(a.ID, constants.PluginFile, constants.SubtypeSubmission)); err != nil {
		return out, err
	}
	if out.Turnitin {
		target := lms.TurnitinConfig(a.CourseModuleID, constants.TurnitinUse)
		if _, found, err := scoped.Current(ctx, settings.UseTurnitin, target); err != nil {
			return out, err
		} else if !found {
			logger.Debug().Int64("course_module_id", a.CourseModuleID).Msg("TurnItIn not configured")
		} else {
			wrote, err := scoped.WriteIfDifferent(ctx, settings.UseTurnitin, target, lms.IntValue(1))
			if err != nil {
				return out, err
			}
			if wrote {
				out.Writes++
			}
		}
	}

	decision, err := e.DecideScale(ctx, pair)
	if err != nil {
		return out, err
	}
	if decision.Changed() {
		wrote, err := scoped.WriteBlock(ctx, decision.Message(), decision.Updates(a.ID, a.LinkCode)...)
		if err != nil {
			return out, err
		}
		if wrote {
			out.ScaleChanged = true
			out.Writes++
		}
	}

	return out, nil
}

// DecideScale compares the grade item's scale with the scale named by the external
// markscheme. The name must match exactly.
func (e *Engine) DecideScale(ctx context.Context, pair reconcile.Pair) (ScaleDecision, error) {
	d := ScaleDecision{Name: pair.External.MarkSchemeCode}

	current, _, err := e.store.Get(ctx, lms.GradeItemField(pair.Internal.LinkCode, settings.GradeScale.Name))
	if err != nil {
		return d, err
	}
	d.Current = current.Int64()

	if d.Name != "" {
		id, found, err := e.store.Get(ctx, lms.ScaleByName(d.Name))
		if err != nil {
			return d, err
		}
		if found {
			d.Desired = id.Int64()
		}
	}
	return d, nil
}

func (e *Engine) enabled(ctx context.Context, target lms.Target) (bool, error) {
	v, found, err := e.store.Get(ctx, target)
	if err != nil {
		return false, err
	}
	return found && v.Bool(), nil
}
