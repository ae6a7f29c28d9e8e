package settings

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/assessmentsync/pkg/assessments"
	"github.com/agentstation/assessmentsync/pkg/differ"
	"github.com/agentstation/assessmentsync/pkg/lms"
	"github.com/agentstation/assessmentsync/pkg/logging"
)

// Writer applies setting changes to the LMS store.
type Writer struct {
	Store   lms.Store
	Logger  *zerolog.Logger   // falls back to the context logger
	DryRun  bool              // record and log changes without touching the store
	Changes *differ.Changeset // receives one record per change, may be nil
}

// For binds the writer to one assignment.
func (w *Writer) For(a assessments.InternalAssignment) *Scoped {
	return &Scoped{w: w, assignment: a}
}

// Scoped is a Writer bound to one assignment.
type Scoped struct {
	w          *Writer
	assignment assessments.InternalAssignment
}

// Update is one column write of a block.
type Update struct {
	Setting Setting
	Target  lms.Target
	Value   lms.Value
}

func (s *Scoped) logger(ctx context.Context) *zerolog.Logger {
	if s.w.Logger != nil {
		return s.w.Logger
	}
	return logging.FromContext(ctx)
}

// Current reads the current value of a setting. found is false when the target row
// does not exist.
func (s *Scoped) Current(ctx context.Context, _ Setting, target lms.Target) (lms.Value, bool, error) {
	return s.w.Store.Get(ctx, target)
}

// WriteIfDifferent writes desired when it differs from the current value and
// reports whether a change was made.
func (s *Scoped) WriteIfDifferent(ctx context.Context, setting Setting, target lms.Target, desired lms.Value) (bool, error) {
	current, found, err := s.Current(ctx, setting, target)
	if err != nil {
		return false, err
	}
	if found && current.Equal(desired) {
		return false, nil
	}
	if !found {
		current = lms.NullValue()
	}
	return s.apply(ctx, setting, target, current, desired, differ.ChangeTypeUpdate, true)
}

// Write writes desired whatever the current value is. The current value is still
// read so the change record carries it.
func (s *Scoped) Write(ctx context.Context, setting Setting, target lms.Target, desired lms.Value) (bool, error) {
	current, found, err := s.Current(ctx, setting, target)
	if err != nil {
		return false, err
	}
	if !found {
		current = lms.NullValue()
	}
	changeType := differ.ChangeTypeUpdate
	if current.Equal(desired) {
		changeType = differ.ChangeTypeForced
	}
	return s.apply(ctx, setting, target, current, desired, changeType, true)
}

// WriteBlock writes every update and logs message once. The block is written only
// when every target row exists; otherwise nothing is written and false is returned.
func (s *Scoped) WriteBlock(ctx context.Context, message string, updates ...Update) (bool, error) {
	currents := make([]lms.Value, len(updates))
	for i, u := range updates {
		current, found, err := s.Current(ctx, u.Setting, u.Target)
		if err != nil {
			return false, err
		}
		if !found {
			s.logger(ctx).Warn().
				Str("target", u.Target.String()).
				Msg("Skipping settings block, no row to update")
			return false, nil
		}
		currents[i] = current
	}

	wrote := len(updates) > 0
	for i, u := range updates {
		ok, err := s.apply(ctx, u.Setting, u.Target, currents[i], u.Value, differ.ChangeTypeUpdate, false)
		if err != nil {
			return false, err
		}
		wrote = wrote && ok
	}
	if wrote {
		s.event(ctx).Msg(message)
	}
	return wrote, nil
}

// apply performs one write and records it. A write that matches no row is not a
// change and is only noted at debug level.
func (s *Scoped) apply(ctx context.Context, setting Setting, target lms.Target, current, desired lms.Value, changeType differ.ChangeType, log bool) (bool, error) {
	applied := false
	if !s.w.DryRun {
		n, err := s.w.Store.Set(ctx, target, desired)
		if err != nil {
			return false, err
		}
		if n == 0 {
			s.logger(ctx).Debug().
				Str("target", target.String()).
				Msg("no row to update")
			return false, nil
		}
		applied = true
	}

	if s.w.Changes != nil {
		s.w.Changes.Add(differ.Change{
			AssignmentID: s.assignment.ID,
			LinkCode:     s.assignment.LinkCode,
			Setting:      setting.Name,
			Label:        setting.Label,
			Target:       target.String(),
			OldValue:     current.String(),
			NewValue:     desired.String(),
			Type:         changeType,
			Applied:      applied,
		})
	}

	if log {
		s.event(ctx).
			Str("setting", setting.Name).
			Str("old", current.String()).
			Str("new", desired.String()).
			Msg(setting.Message(desired, s.assignment.ID))
	}
	return true, nil
}

// event starts an info line. A context logger already carries the assignment
// fields, so they are only added for an explicit Logger.
func (s *Scoped) event(ctx context.Context) *zerolog.Event {
	e := s.logger(ctx).Info()
	if s.w.Logger != nil {
		e = e.Int64("assignment_id", s.assignment.ID).Str("link_code", s.assignment.LinkCode)
	}
	if s.w.DryRun {
		e = e.Bool("dry_run", true)
	}
	return e
}
