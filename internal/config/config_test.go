package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assessmentsync/internal/config"
	"github.com/agentstation/assessmentsync/pkg/errors"
)

// isolate points $HOME at an empty directory so a developer's own config
// file is never read.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := config.LoadWith(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "", cfg.External.Type)
	assert.Equal(t, "utf-8", cfg.External.Encoding)
	assert.Equal(t, "usr_data_assessments", cfg.Tables.Assessments)
	assert.Equal(t, "usr_data_student_assessments", cfg.Tables.StudentGrades)
	assert.Equal(t, "mdl_", cfg.LMS.Prefix)
	assert.Equal(t, "0 * * * *", cfg.Schedule.Cron)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Empty(t, cfg.Filter.Include)
	assert.Empty(t, cfg.File)
	assert.NoError(t, cfg.Validate())
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "usr_data_assessments", cfg.Tables.Assessments)
	assert.Equal(t, "mdl_", cfg.LMS.Prefix)
	assert.Equal(t, "0 * * * *", cfg.Schedule.Cron)
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
external:
  type: Postgres
  host: warehouse.example:5432
  user: moodle
  name: dw
  encoding: windows-1252
  setup_sql: SET search_path TO reporting
tables:
  assessments: vw_assessments
lms:
  dsn: postgres://moodle@lms.example/moodle
schedule:
  cron: "15 * * * *"
  run_on_start: true
filter:
  include:
    - "*_2019/20_*"
sync:
  timeout: 10m
`), 0o600))

	cfg, err := config.LoadWith(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "postgres", cfg.External.Type)
	assert.Equal(t, "warehouse.example:5432", cfg.External.Host)
	assert.Equal(t, "windows-1252", cfg.External.Encoding)
	assert.Equal(t, "SET search_path TO reporting", cfg.External.SetupSQL)
	assert.Equal(t, "vw_assessments", cfg.Tables.Assessments)
	assert.Equal(t, "usr_data_student_assessments", cfg.Tables.StudentGrades)
	assert.Equal(t, "postgres://moodle@lms.example/moodle", cfg.LMS.DSN)
	assert.Equal(t, "15 * * * *", cfg.Schedule.Cron)
	assert.True(t, cfg.Schedule.RunOnStart)
	assert.Equal(t, []string{"*_2019/20_*"}, cfg.Filter.Include)
	assert.Equal(t, 10*time.Minute, cfg.Sync.Timeout)
}

func TestLoadHomeFile(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".assessmentsync.yaml"), []byte("external:\n  type: sqlite\n"), 0o600))

	cfg, err := config.LoadWith(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.External.Type)
	assert.Equal(t, filepath.Join(home, ".assessmentsync.yaml"), cfg.File)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("external:\n  type: sqlite\n"), 0o600))

	t.Setenv("ASSESSMENTSYNC_EXTERNAL_TYPE", "pgx")
	t.Setenv("ASSESSMENTSYNC_TABLES_STUDENT_GRADES", "vw_grades")
	t.Setenv("ASSESSMENTSYNC_FILTER_EXCLUDE", "TEST_*, *_DRAFT")
	t.Setenv("ASSESSMENTSYNC_SYNC_DRY_RUN", "true")
	t.Setenv("ASSESSMENTSYNC_METRICS_ADDR", ":9090")

	cfg, err := config.LoadWith(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.External.Type)
	assert.Equal(t, "vw_grades", cfg.Tables.StudentGrades)
	assert.Equal(t, []string{"TEST_*", "*_DRAFT"}, cfg.Filter.Exclude)
	assert.True(t, cfg.Sync.DryRun)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := config.LoadWith(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{LMS: config.LMS{Prefix: "mdl_"}}
	assert.NoError(t, cfg.Validate())

	cfg.Sync.Timeout = -time.Second
	assert.True(t, errors.IsValidationError(cfg.Validate()))

	cfg = &config.Config{}
	assert.True(t, errors.IsValidationError(cfg.Validate()))
}
