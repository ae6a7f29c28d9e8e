// Package assessments defines the records reconciled by a sync run: internal LMS
// assignments and the external warehouse assessments they are linked to.
package assessments

import "strings"

// InternalAssignment is an LMS assignment whose course module carries a link code.
type InternalAssignment struct {
	ID             int64  `json:"id" yaml:"id"`                             // assign.id
	CourseModuleID int64  `json:"course_module_id" yaml:"course_module_id"` // course_modules.id
	LinkCode       string `json:"link_code" yaml:"link_code"`               // course_modules.idnumber
	Name           string `json:"name" yaml:"name"`                         // assign.name
}

// Eligible reports whether the assignment can take part in a run.
func (a InternalAssignment) Eligible() bool {
	return a.ID > 0 && strings.TrimSpace(a.LinkCode) != ""
}
