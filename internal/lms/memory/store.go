// Package memory provides an in-memory LMS store for tests and dry rehearsals.
// Tables are plain row slices; Get and Set evaluate the same composite equality
// keys the SQL store renders into WHERE clauses.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentstation/assessmentsync/pkg/assessments"
	"github.com/agentstation/assessmentsync/pkg/constants"
	"github.com/agentstation/assessmentsync/pkg/lms"
)

// row is one table row keyed by column name.
type row map[string]lms.Value

// Write records one Set call that changed at least one row.
type Write struct {
	Target lms.Target
	Value  lms.Value
	Rows   int64
}

// Store is an in-memory lms.Store.
type Store struct {
	mu          sync.RWMutex
	assignments []assessments.InternalAssignment
	tables      map[string][]row
	reads       int
	writes      []Write
	failures    map[string]error
}

var _ lms.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		tables:   make(map[string][]row),
		failures: make(map[string]error),
	}
}

// AddAssignment registers an assignment in the catalog and creates its assign row
// with the given column values. Values are converted with lms.ValueOf.
func (s *Store) AddAssignment(a assessments.InternalAssignment, columns map[string]any) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignments = append(s.assignments, a)
	r := row{"id": lms.IntValue(a.ID), "name": lms.TextValue(a.Name)}
	for k, v := range columns {
		r[k] = lms.ValueOf(v)
	}
	s.tables[constants.TableAssign] = append(s.tables[constants.TableAssign], r)
	return s
}

// AddRow inserts a raw row into a table.
func (s *Store) AddRow(table string, columns map[string]any) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := make(row, len(columns))
	for k, v := range columns {
		r[k] = lms.ValueOf(v)
	}
	s.tables[table] = append(s.tables[table], r)
	return s
}

// AddPluginConfig inserts an assign_plugin_config row.
func (s *Store) AddPluginConfig(assignmentID int64, plugin, subtype, name, value string) *Store {
	return s.AddRow(constants.TableAssignPluginConfig, map[string]any{
		"assignment": assignmentID,
		"plugin":     plugin,
		"subtype":    subtype,
		"name":       name,
		"value":      value,
	})
}

// AddGradeItem inserts a grade item for a link code. A scaleID of 0 stores NULL.
func (s *Store) AddGradeItem(linkCode string, scaleID int64, gradeType int) *Store {
	var scale any
	if scaleID > 0 {
		scale = scaleID
	}
	return s.AddRow(constants.TableGradeItems, map[string]any{
		"idnumber":  linkCode,
		"scaleid":   scale,
		"gradetype": gradeType,
	})
}

// AddScale inserts a scale.
func (s *Store) AddScale(id int64, name string) *Store {
	return s.AddRow(constants.TableScale, map[string]any{"id": id, "name": name})
}

// AddTurnitinConfig inserts a plagiarism_turnitin_config row.
func (s *Store) AddTurnitinConfig(courseModuleID int64, name, value string) *Store {
	return s.AddRow(constants.TableTurnitinConfig, map[string]any{
		"cm":    courseModuleID,
		"name":  name,
		"value": value,
	})
}

// FailOn makes every Get and Set against table return err.
func (s *Store) FailOn(table string, err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[table] = err
	return s
}

// Assignments implements lms.Catalog. Unlike the SQL catalog query it does not
// drop assignments without a link code, so callers' own filtering is exercised.
func (s *Store) Assignments(_ context.Context) ([]assessments.InternalAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failures[constants.TableCourseModules]; err != nil {
		return nil, err
	}
	out := make([]assessments.InternalAssignment, len(s.assignments))
	copy(out, s.assignments)
	return out, nil
}

// Get implements lms.Store.
func (s *Store) Get(_ context.Context, target lms.Target) (lms.Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	if err := s.failures[target.Table]; err != nil {
		return lms.Value{}, false, err
	}
	for _, r := range s.tables[target.Table] {
		if matches(r, target.Where) {
			v, ok := r[target.Field]
			if !ok {
				return lms.NullValue(), true, nil
			}
			return v, true, nil
		}
	}
	return lms.Value{}, false, nil
}

// Set implements lms.Store.
func (s *Store) Set(_ context.Context, target lms.Target, value lms.Value) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failures[target.Table]; err != nil {
		return 0, err
	}
	var n int64
	for _, r := range s.tables[target.Table] {
		if matches(r, target.Where) {
			r[target.Field] = value
			n++
		}
	}
	if n > 0 {
		s.writes = append(s.writes, Write{Target: target, Value: value, Rows: n})
	}
	return n, nil
}

// Ping implements lms.Store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close implements lms.Store.
func (s *Store) Close() {}

// Value returns a column of the first matching row, for assertions.
func (s *Store) Value(target lms.Target) lms.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.tables[target.Table] {
		if matches(r, target.Where) {
			if v, ok := r[target.Field]; ok {
				return v
			}
			return lms.NullValue()
		}
	}
	panic(fmt.Sprintf("memory: no row for %s", target))
}

// Writes returns the recorded writes in order.
func (s *Store) Writes() []Write {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Write, len(s.writes))
	copy(out, s.writes)
	return out
}

// Reads returns how many Get calls were made.
func (s *Store) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

// ResetCounters clears recorded reads and writes.
func (s *Store) ResetCounters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = 0
	s.writes = nil
}

func matches(r row, where []lms.Cond) bool {
	for _, c := range where {
		v, ok := r[c.Column]
		if !ok {
			return false
		}
		if !v.Equal(lms.ValueOf(c.Value)) {
			return false
		}
	}
	return true
}
