// Package lms describes the learning-management system store that a sync run reads
// and updates: the assignment catalog plus keyed point reads and writes of single
// columns in the assign, plugin config, grade item, scale and plagiarism tables.
package lms

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentstation/assessmentsync/pkg/assessments"
	"github.com/agentstation/assessmentsync/pkg/constants"
)

// Catalog lists the assignments that carry a link code.
type Catalog interface {
	Assignments(ctx context.Context) ([]assessments.InternalAssignment, error)
}

// Store is the internal store consumed by the policy engine and the settings writer.
type Store interface {
	Catalog

	// Get reads one column of the first row matching the target key.
	// found is false when no row matches.
	Get(ctx context.Context, target Target) (value Value, found bool, err error)

	// Set updates one column of every row matching the target key and returns
	// the number of rows changed.
	Set(ctx context.Context, target Target, value Value) (int64, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close()
}

// Cond is one equality condition of a target key.
type Cond struct {
	Column string
	Value  any
}

// Target identifies one column of the rows selected by a composite equality key.
type Target struct {
	Table string
	Field string
	Where []Cond
}

// String renders the target as table.field[col=value,...] for logs and change records.
func (t Target) String() string {
	parts := make([]string, len(t.Where))
	for i, c := range t.Where {
		parts[i] = fmt.Sprintf("%s=%v", c.Column, c.Value)
	}
	return fmt.Sprintf("%s.%s[%s]", t.Table, t.Field, strings.Join(parts, ","))
}

// ValueOf converts a key or column argument into a Value.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case nil:
		return NullValue()
	case Value:
		return t
	case int:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case int32:
		return IntValue(int64(t))
	case bool:
		return BoolValue(t)
	case string:
		return TextValue(t)
	default:
		return TextValue(fmt.Sprint(t))
	}
}

// AssignField targets a column of the assign row with the given id.
func AssignField(assignmentID int64, field string) Target {
	return Target{
		Table: constants.TableAssign,
		Field: field,
		Where: []Cond{{Column: "id", Value: assignmentID}},
	}
}

// GradeItemField targets a column of the grade item whose idnumber is the link code.
func GradeItemField(linkCode, field string) Target {
	return Target{
		Table: constants.TableGradeItems,
		Field: field,
		Where: []Cond{{Column: "idnumber", Value: linkCode}},
	}
}

// PluginEnabled targets the enabled flag of an assignment plugin. An empty subtype
// leaves the subtype column out of the key.
func PluginEnabled(assignmentID int64, plugin, subtype string) Target {
	where := []Cond{
		{Column: "assignment", Value: assignmentID},
		{Column: "plugin", Value: plugin},
	}
	if subtype != "" {
		where = append(where, Cond{Column: "subtype", Value: subtype})
	}
	where = append(where, Cond{Column: "name", Value: constants.ConfigEnabled})
	return Target{
		Table: constants.TableAssignPluginConfig,
		Field: "value",
		Where: where,
	}
}

// ScaleByName targets the id of the scale with exactly the given name.
func ScaleByName(name string) Target {
	return Target{
		Table: constants.TableScale,
		Field: "id",
		Where: []Cond{{Column: "name", Value: name}},
	}
}

// TurnitinConfig targets the value of a plagiarism config entry of a course module.
func TurnitinConfig(courseModuleID int64, name string) Target {
	return Target{
		Table: constants.TableTurnitinConfig,
		Field: "value",
		Where: []Cond{
			{Column: "cm", Value: courseModuleID},
			{Column: "name", Value: name},
		},
	}
}
