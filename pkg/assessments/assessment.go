package assessments

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/assessmentsync/pkg/errors"
)

// Warehouse column names of the assessments table, lower-cased.
const (
	FieldID             = "id"
	FieldMavIDNumber    = "mav_idnumber"
	FieldNumber         = "assessment_number"
	FieldName           = "assessment_name"
	FieldType           = "assessment_type"
	FieldWeight         = "assessment_weight"
	FieldLinkCode       = "assessment_idcode"
	FieldMarkSchemeName = "assessment_markscheme_name"
	FieldMarkSchemeCode = "assessment_markscheme_code"
	FieldDueDate        = "assessment_duedate"
	FieldFeedbackDate   = "assessment_feedbackdate"
)

// ExternalAssessment is one row of the warehouse assessments table.
type ExternalAssessment struct {
	ID             string   `json:"id" yaml:"id"`                                               // Warehouse row id
	LinkCode       string   `json:"link_code" yaml:"link_code"`                                 // assessment_idcode, the join key
	Name           string   `json:"name" yaml:"name"`                                           // assessment_name
	DueDate        utc.Time `json:"due_date" yaml:"due_date"`                                   // assessment_duedate
	FeedbackDate   utc.Time `json:"feedback_date" yaml:"feedback_date"`                         // assessment_feedbackdate
	MarkSchemeCode string   `json:"markscheme_code" yaml:"markscheme_code"`                     // Scale name to enforce
	MarkSchemeName string   `json:"markscheme_name,omitempty" yaml:"markscheme_name,omitempty"` // Display name of the markscheme
	MavIDNumber    string   `json:"mav_idnumber,omitempty" yaml:"mav_idnumber,omitempty"`       // Module occurrence id
	Number         string   `json:"number,omitempty" yaml:"number,omitempty"`                   // Assessment number within the module
	Type           string   `json:"type,omitempty" yaml:"type,omitempty"`                       // Assessment type code
	Weight         string   `json:"weight,omitempty" yaml:"weight,omitempty"`                   // Weighting as supplied
	DateIssues     []string `json:"date_issues,omitempty" yaml:"date_issues,omitempty"`         // Date columns that could not be parsed
}

// Row is one decoded external row keyed by lower-cased column name.
type Row map[string]any

// String returns the column value as text, or "" when absent or NULL.
func (r Row) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// FromRow validates a decoded row and builds the typed assessment.
// A row without a link code is rejected; dates that cannot be parsed are recorded
// in DateIssues and left zero, since no policy depends on them.
func FromRow(row Row) (ExternalAssessment, error) {
	linkCode := strings.TrimSpace(row.String(FieldLinkCode))
	if linkCode == "" {
		return ExternalAssessment{}, errors.NewValidationError(FieldLinkCode, row[FieldLinkCode], "cannot be empty")
	}

	a := ExternalAssessment{
		ID:             row.String(FieldID),
		LinkCode:       linkCode,
		Name:           row.String(FieldName),
		MarkSchemeCode: row.String(FieldMarkSchemeCode),
		MarkSchemeName: row.String(FieldMarkSchemeName),
		MavIDNumber:    row.String(FieldMavIDNumber),
		Number:         row.String(FieldNumber),
		Type:           row.String(FieldType),
		Weight:         row.String(FieldWeight),
	}

	var err error
	if a.DueDate, err = ParseDate(row[FieldDueDate]); err != nil {
		a.DateIssues = append(a.DateIssues, FieldDueDate)
	}
	if a.FeedbackDate, err = ParseDate(row[FieldFeedbackDate]); err != nil {
		a.DateIssues = append(a.DateIssues, FieldFeedbackDate)
	}

	return a, nil
}

// dateLayouts are tried in order for textual warehouse dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseDate converts a warehouse date value to UTC. NULL and empty values give the
// zero time without error. Integers are unix seconds.
func ParseDate(v any) (utc.Time, error) {
	switch t := v.(type) {
	case nil:
		return utc.Time{}, nil
	case time.Time:
		return utc.New(t), nil
	case int64:
		return fromUnix(t), nil
	case int:
		return fromUnix(int64(t)), nil
	case float64:
		return fromUnix(int64(t)), nil
	case []byte:
		return parseDateString(string(t))
	case string:
		return parseDateString(t)
	default:
		return utc.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

func parseDateString(s string) (utc.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return utc.Time{}, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromUnix(n), nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return utc.New(parsed), nil
		}
	}
	return utc.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func fromUnix(n int64) utc.Time {
	if n <= 0 {
		return utc.Time{}
	}
	return utc.New(time.Unix(n, 0))
}
