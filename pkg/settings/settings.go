// Package settings reads and writes the governed assignment settings.
//
// Every write is preceded by a read of the current value so that each change
// can be logged and recorded with its old and new value. A Writer is bound to
// one assignment at a time with For.
package settings

import (
	"fmt"

	"github.com/agentstation/assessmentsync/pkg/lms"
)

// Kind controls how a setting's value is described in log lines.
type Kind int

const (
	// Flag settings hold 0 or 1 and are described as OFF or ON.
	Flag Kind = iota
	// Text settings are described by their value.
	Text
	// Number settings are described by their value.
	Number
)

// Setting describes one governed column.
type Setting struct {
	Name  string // column or config name
	Label string // human label used in change log lines
	Kind  Kind
}

// Describe renders a value of the setting for a log line.
func (s Setting) Describe(v lms.Value) string {
	if s.Kind == Flag && !v.IsNull() {
		if v.Bool() {
			return "ON"
		}
		return "OFF"
	}
	return v.String()
}

// Message is the change log line for setting the value on an assignment.
func (s Setting) Message(v lms.Value, assignmentID int64) string {
	if s.Kind == Flag {
		return fmt.Sprintf("%s set %s for %d", s.Label, s.Describe(v), assignmentID)
	}
	return fmt.Sprintf("%s set to %s for %d", s.Label, s.Describe(v), assignmentID)
}

// Governed assignment settings.
var (
	MarkingWorkflow            = Setting{Name: "markingworkflow", Label: "Marking Workflow", Kind: Flag}
	SubmissionDrafts           = Setting{Name: "submissiondrafts", Label: "Submit Button", Kind: Flag}
	RequireSubmissionStatement = Setting{Name: "requiresubmissionstatement", Label: "Require Submission Statement", Kind: Flag}
	SendNotifications          = Setting{Name: "sendnotifications", Label: "Notify Graders - Standard", Kind: Flag}
	SendLateNotifications      = Setting{Name: "sendlatenotifications", Label: "Notify Graders - Late", Kind: Flag}
	SendStudentNotifications   = Setting{Name: "sendstudentnotifications", Label: "Notify Students", Kind: Flag}
	AttemptReopenMethod        = Setting{Name: "attemptreopenmethod", Label: "Attempts Reopened", Kind: Text}
	UseTurnitin                = Setting{Name: "use_turnitin", Label: "Use TurnItIn", Kind: Flag}
)

// Grading-scale block columns. They are written together under one log line.
var (
	GradeScale = Setting{Name: "scaleid", Label: "Grade Scale", Kind: Number}
	Grade      = Setting{Name: "grade", Label: "Grade", Kind: Number}
	GradeType  = Setting{Name: "gradetype", Label: "Grade Type", Kind: Number}
)

// Governed returns every setting a run enforces, in application order.
func Governed() []Setting {
	return []Setting{
		MarkingWorkflow,
		SubmissionDrafts,
		RequireSubmissionStatement,
		SendNotifications,
		SendLateNotifications,
		SendStudentNotifications,
		AttemptReopenMethod,
		UseTurnitin,
		GradeScale,
		Grade,
		GradeType,
	}
}
