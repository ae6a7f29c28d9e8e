package app

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assessmentsync"
	"github.com/agentstation/assessmentsync/internal/config"
	"github.com/agentstation/assessmentsync/internal/lms/memory"
	"github.com/agentstation/assessmentsync/internal/lms/postgres"
	"github.com/agentstation/assessmentsync/internal/sources/extdb"
	"github.com/agentstation/assessmentsync/pkg/assessments"
	"github.com/agentstation/assessmentsync/pkg/errors"
	"github.com/agentstation/assessmentsync/pkg/lms"
)

type staticSource struct{ rows []assessments.Row }

func (s staticSource) ReadAll(context.Context, extdb.Query) ([]assessments.Row, error) {
	return s.rows, nil
}

func (s staticSource) Close() error { return nil }

func testSettings() *config.Config {
	settings := config.Default()
	settings.External.Type = "pgx"
	settings.LMS.DSN = "postgres://moodle@localhost/moodle"
	return settings
}

func newTestApp(t *testing.T, store *memory.Store, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{
		WithConfig(&Config{LogFormat: "json", LogOutput: "discard"}),
		WithSettings(testSettings()),
		WithStoreOpener(func(context.Context, postgres.Config) (lms.Store, error) { return store, nil }),
		WithSyncerOptions(assessmentsync.WithSourceOpener(func(context.Context, extdb.Config) (assessmentsync.Source, error) {
			return staticSource{rows: []assessments.Row{{"assessment_idcode": "LC1"}}}, nil
		})),
	}, opts...)
	app, err := New("1.0.0", "abc123", "2024-01-01", "test", opts...)
	require.NoError(t, err)
	return app
}

func testStore() *memory.Store {
	return memory.New().AddAssignment(
		assessments.InternalAssignment{ID: 12, CourseModuleID: 120, LinkCode: "LC1"},
		map[string]any{"markingworkflow": 0, "submissiondrafts": 0},
	)
}

func TestApp_New(t *testing.T) {
	app := newTestApp(t, testStore())

	assert.Equal(t, "1.0.0", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2024-01-01", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Config())
	assert.NotNil(t, app.Metrics())
	assert.Equal(t, "pgx", app.Settings().External.Type)
}

func TestApp_Syncer_Singleton(t *testing.T) {
	opened := 0
	store := testStore()
	app := newTestApp(t, store, WithStoreOpener(func(context.Context, postgres.Config) (lms.Store, error) {
		opened++
		return store, nil
	}))

	const goroutines = 20
	var wg sync.WaitGroup
	results := make([]assessmentsync.Syncer, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			s, err := app.Syncer()
			assert.NoError(t, err)
			results[idx] = s
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, opened)
	for _, s := range results {
		assert.Same(t, results[0], s)
	}

	require.NoError(t, app.Shutdown(context.Background()))
	_, err := app.Syncer()
	require.NoError(t, err)
	assert.Equal(t, 2, opened)
}

func TestApp_Syncer_MissingDSN(t *testing.T) {
	settings := testSettings()
	settings.LMS.DSN = ""
	app, err := New("dev", "", "", "",
		WithConfig(&Config{LogFormat: "json", LogOutput: "discard"}),
		WithSettings(settings),
	)
	require.NoError(t, err)

	_, err = app.Syncer()
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationMissing(err))
	assert.Equal(t, errors.ExitOK, errors.ExitCode(err))
}

func TestExecute_Sync(t *testing.T) {
	store := testStore()
	app := newTestApp(t, store)

	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"sync", "--dry-run", "-o", "json", "--run-id", "cli-run"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "cli-run", decoded["run_id"])
	assert.Equal(t, true, decoded["dry_run"])
	assert.Equal(t, float64(1), decoded["matched"])
	assert.Empty(t, store.Writes())
}

func TestExecute_Check(t *testing.T) {
	app := newTestApp(t, testStore())

	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"check", "--format", "json"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	var report assessmentsync.CheckReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, assessmentsync.CheckReport{Assignments: 1, Eligible: 1, External: 1}, report)
}

func TestExecute_Version(t *testing.T) {
	app := newTestApp(t, testStore())

	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "-v"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "assessmentsync 1.0.0")
	assert.Contains(t, out.String(), "commit:   abc123")
}

func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{name: "default", config: Config{}, want: "info"},
		{name: "verbose", config: Config{Verbose: true}, want: "debug"},
		{name: "quiet", config: Config{Quiet: true}, want: "warn"},
		{name: "quiet wins over verbose", config: Config{Verbose: true, Quiet: true}, want: "warn"},
		{name: "flag wins over shortcuts", config: Config{LogLevel: "error", Verbose: true}, want: "error"},
		{name: "environment", config: Config{EnvLogLevel: "debug"}, want: "debug"},
		{name: "shortcut wins over environment", config: Config{EnvLogLevel: "debug", Quiet: true}, want: "warn"},
		{name: "invalid", config: Config{LogLevel: "loud"}, want: "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineLogLevel(&tt.config))
		})
	}
}

func TestUpdateFromFlags(t *testing.T) {
	cfg := &Config{Format: "table", EnvLogLevel: "warn"}
	cfg.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "table", cfg.Format)

	cfg.UpdateFromFlags(false, false, false, "yaml", "trace")
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, "trace", cfg.LogLevel)
}
