package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/assessmentsync/pkg/differ"
	"github.com/agentstation/assessmentsync/pkg/errors"
)

// Status is the outcome of a run as reported to the scheduler.
type Status int

// Run statuses. The numeric values are the scheduler's exit codes.
const (
	StatusOK                Status = errors.ExitOK
	StatusSourceUnavailable Status = errors.ExitSourceUnavailable
	StatusReadFailed        Status = errors.ExitReadFailed
)

// Result represents the complete result of a sync run.
type Result struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	StartedAt  utc.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt utc.Time      `json:"finished_at" yaml:"finished_at"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	DryRun     bool          `json:"dry_run" yaml:"dry_run"`

	Status  Status `json:"status" yaml:"status"`
	Skipped string `json:"skipped,omitempty" yaml:"skipped,omitempty"` // missing setting that stopped the run
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`

	// Record counts
	Internal    int `json:"internal" yaml:"internal"`       // assignments read from the LMS catalog
	External    int `json:"external" yaml:"external"`       // rows read from the warehouse
	Invalid     int `json:"invalid" yaml:"invalid"`         // warehouse rows rejected at the read boundary
	Matched     int `json:"matched" yaml:"matched"`         // pairs the policy was applied to
	Unmatched   int `json:"unmatched" yaml:"unmatched"`     // internal assignments without an external record
	Orphans     int `json:"orphans" yaml:"orphans"`         // external records without an internal assignment
	Filtered    int `json:"filtered" yaml:"filtered"`       // pairs dropped by link-code filters
	Assignments int `json:"assignments" yaml:"assignments"` // assignments with at least one write
	Writes      int `json:"writes" yaml:"writes"`           // settings written, grading block counted once

	Changes *differ.Changeset `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// NewResult starts a result for a run.
func NewResult(runID string, dryRun bool) *Result {
	return &Result{
		RunID:     runID,
		StartedAt: utc.Now(),
		DryRun:    dryRun,
		Changes:   &differ.Changeset{},
	}
}

// Finish stamps the end time and derives the status from err.
func (sr *Result) Finish(err error) *Result {
	sr.FinishedAt = utc.Now()
	sr.Duration = sr.FinishedAt.Time.Sub(sr.StartedAt.Time)
	sr.Status = Status(errors.ExitCode(err))

	var missing *errors.ConfigurationMissingError
	if errors.As(err, &missing) {
		sr.Skipped = missing.Setting
		return sr
	}
	if err != nil {
		sr.Error = err.Error()
	}
	return sr
}

// HasChanges returns true if the run changed any setting value.
func (sr *Result) HasChanges() bool {
	return sr.Changes.HasChanges()
}

// Failed reports whether the run stopped on an error.
func (sr *Result) Failed() bool {
	return sr.Error != ""
}

// Summary returns a human-readable summary of the sync result.
func (sr *Result) Summary() string {
	if sr.Skipped != "" {
		return fmt.Sprintf("Nothing to do: %s not defined", sr.Skipped)
	}
	if sr.Failed() {
		return fmt.Sprintf("Sync failed (status %d): %s", sr.Status, sr.Error)
	}

	summary := fmt.Sprintf("%d matched, %d writes across %d assignments", sr.Matched, sr.Writes, sr.Assignments)
	var parts []string
	if sr.Unmatched > 0 {
		parts = append(parts, fmt.Sprintf("%d unmatched", sr.Unmatched))
	}
	if sr.Orphans > 0 {
		parts = append(parts, fmt.Sprintf("%d orphaned", sr.Orphans))
	}
	if sr.Filtered > 0 {
		parts = append(parts, fmt.Sprintf("%d filtered", sr.Filtered))
	}
	if sr.Invalid > 0 {
		parts = append(parts, fmt.Sprintf("%d invalid", sr.Invalid))
	}
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	if sr.DryRun {
		summary += " (Dry run)"
	}
	return summary
}
