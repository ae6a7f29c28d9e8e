package run_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assessmentsync"
	"github.com/agentstation/assessmentsync/cmd/assessmentsync/cmd/run"
	"github.com/agentstation/assessmentsync/internal/cmd/application"
	"github.com/agentstation/assessmentsync/internal/lms/memory"
	"github.com/agentstation/assessmentsync/internal/sources/extdb"
	"github.com/agentstation/assessmentsync/pkg/assessments"
	"github.com/agentstation/assessmentsync/pkg/errors"
)

type source struct {
	rows []assessments.Row
	err  error
}

func (s source) ReadAll(context.Context, extdb.Query) ([]assessments.Row, error) {
	return s.rows, s.err
}

func (s source) Close() error { return nil }

func mockApp(t *testing.T, store *memory.Store, src source, format string) *application.Mock {
	t.Helper()
	syncer, err := assessmentsync.New(
		assessmentsync.WithStore(store),
		assessmentsync.WithSource(extdb.Config{Type: "pgx", Host: "warehouse"}),
		assessmentsync.WithSourceOpener(func(context.Context, extdb.Config) (assessmentsync.Source, error) {
			return src, nil
		}),
	)
	require.NoError(t, err)
	return &application.Mock{
		SyncerFunc:       func() (assessmentsync.Syncer, error) { return syncer, nil },
		OutputFormatFunc: func() string { return format },
	}
}

func linkedStore() *memory.Store {
	return memory.New().
		AddAssignment(assessments.InternalAssignment{ID: 12, CourseModuleID: 120, LinkCode: "LC1"},
			map[string]any{"markingworkflow": 0}).
		AddAssignment(assessments.InternalAssignment{ID: 13, CourseModuleID: 130, LinkCode: "LC2"},
			map[string]any{"markingworkflow": 0})
}

func TestFlagsOptions(t *testing.T) {
	flags := &run.Flags{DryRun: true, Exclude: []string{"LC2"}, RunID: "fixed"}
	store := linkedStore()
	app := mockApp(t, store, source{rows: []assessments.Row{
		{"assessment_idcode": "LC1"},
		{"assessment_idcode": "LC2"},
	}}, "json")

	var out bytes.Buffer
	require.NoError(t, run.Execute(context.Background(), app, flags, &out))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "fixed", decoded["run_id"])
	assert.Equal(t, true, decoded["dry_run"])
	assert.Equal(t, float64(1), decoded["matched"])
	assert.Equal(t, float64(1), decoded["filtered"])
	assert.Empty(t, store.Writes())
}

func TestExecuteWritesTable(t *testing.T) {
	app := mockApp(t, linkedStore(), source{rows: []assessments.Row{{"assessment_idcode": "LC1"}}}, "table")

	var out bytes.Buffer
	require.NoError(t, run.Execute(context.Background(), app, &run.Flags{RunID: "table-run"}, &out))

	assert.Contains(t, out.String(), "table-run")
	assert.Contains(t, out.String(), "Workflow")
}

func TestExecuteWritesResultOnFailure(t *testing.T) {
	app := mockApp(t, linkedStore(), source{err: errors.NewReadError("usr_data_assessments", assert.AnError)}, "json")

	var out bytes.Buffer
	err := run.Execute(context.Background(), app, &run.Flags{}, &out)
	require.Error(t, err)
	assert.Equal(t, errors.ExitReadFailed, errors.ExitCode(err))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, float64(errors.ExitReadFailed), decoded["status"])
}

func TestExecuteSyncerError(t *testing.T) {
	app := &application.Mock{SyncerFunc: func() (assessmentsync.Syncer, error) {
		return nil, errors.NewConfigurationMissingError("lms.dsn")
	}}

	var out bytes.Buffer
	err := run.Execute(context.Background(), app, &run.Flags{}, &out)
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationMissing(err))
	assert.Empty(t, out.String())
}
