// Package differ records the setting changes a sync run makes to the LMS.
package differ

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeUpdate indicates a value differed and was replaced.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeForced indicates a write made regardless of the current value.
	ChangeTypeForced ChangeType = "forced"
)

// Change is one write to one governed setting of one assignment.
type Change struct {
	AssignmentID int64      `json:"assignment_id" yaml:"assignment_id"`
	LinkCode     string     `json:"link_code" yaml:"link_code"`
	Setting      string     `json:"setting" yaml:"setting"` // setting name, e.g. markingworkflow
	Label        string     `json:"label" yaml:"label"`     // human label, e.g. Marking Workflow
	Target       string     `json:"target" yaml:"target"`   // table.field[key]
	OldValue     string     `json:"old_value" yaml:"old_value"`
	NewValue     string     `json:"new_value" yaml:"new_value"`
	Type         ChangeType `json:"type" yaml:"type"`
	Applied      bool       `json:"applied" yaml:"applied"` // false on dry runs
}

// String returns a one-line description of the change.
func (c Change) String() string {
	return fmt.Sprintf("%d %s: %s → %s", c.AssignmentID, c.Setting, c.OldValue, c.NewValue)
}

// Changeset is the ordered list of changes made by a run.
type Changeset struct {
	Changes []Change `json:"changes" yaml:"changes"`
}

// ChangesetSummary provides summary statistics for a changeset.
type ChangesetSummary struct {
	TotalChanges int            `json:"total_changes" yaml:"total_changes"`
	Forced       int            `json:"forced" yaml:"forced"`
	Applied      int            `json:"applied" yaml:"applied"`
	Assignments  int            `json:"assignments" yaml:"assignments"`
	BySetting    map[string]int `json:"by_setting" yaml:"by_setting"`
}

// Add appends a change.
func (c *Changeset) Add(change Change) {
	c.Changes = append(c.Changes, change)
}

// Len returns the number of changes.
func (c *Changeset) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Changes)
}

// IsEmpty returns true if the changeset contains no changes.
func (c *Changeset) IsEmpty() bool {
	return c.Len() == 0
}

// HasChanges returns true if the changeset contains any change other than forced writes.
func (c *Changeset) HasChanges() bool {
	if c == nil {
		return false
	}
	for _, ch := range c.Changes {
		if ch.Type != ChangeTypeForced {
			return true
		}
	}
	return false
}

// ForAssignment returns the changes made to one assignment, in order.
func (c *Changeset) ForAssignment(id int64) []Change {
	if c == nil {
		return nil
	}
	var out []Change
	for _, ch := range c.Changes {
		if ch.AssignmentID == id {
			out = append(out, ch)
		}
	}
	return out
}

// Summary computes summary statistics.
func (c *Changeset) Summary() ChangesetSummary {
	s := ChangesetSummary{BySetting: make(map[string]int)}
	if c == nil {
		return s
	}
	assignments := make(map[int64]struct{})
	for _, ch := range c.Changes {
		s.TotalChanges++
		s.BySetting[ch.Setting]++
		if ch.Type == ChangeTypeForced {
			s.Forced++
		}
		if ch.Applied {
			s.Applied++
		}
		assignments[ch.AssignmentID] = struct{}{}
	}
	s.Assignments = len(assignments)
	return s
}

// String returns a human-readable summary of the changeset.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return "No changes detected"
	}

	s := c.Summary()
	settings := make([]string, 0, len(s.BySetting))
	for name := range s.BySetting {
		settings = append(settings, name)
	}
	sort.Strings(settings)

	parts := make([]string, 0, len(settings))
	for _, name := range settings {
		parts = append(parts, fmt.Sprintf("%s %d", name, s.BySetting[name]))
	}
	return fmt.Sprintf("Changeset: %s (Total: %d changes across %d assignments)",
		strings.Join(parts, ", "), s.TotalChanges, s.Assignments)
}

// Print writes a detailed, human-readable view of the changeset grouped by assignment.
func (c *Changeset) Print(w io.Writer) {
	fmt.Fprintln(w, c.String())
	if c.IsEmpty() {
		return
	}
	fmt.Fprintln(w, strings.Repeat("─", 80))

	var current int64 = -1
	for _, ch := range c.Changes {
		if ch.AssignmentID != current {
			current = ch.AssignmentID
			fmt.Fprintf(w, "\n🔄 Assignment %d (%s):\n", ch.AssignmentID, ch.LinkCode)
		}
		marker := ""
		if !ch.Applied {
			marker = " (dry run)"
		}
		fmt.Fprintf(w, "    - %s: %s → %s%s\n", ch.Label, ch.OldValue, ch.NewValue, marker)
	}
}
