// Package constants provides shared constants used throughout the assessmentsync codebase.
// This includes timeouts, LMS table and column names, grade-type codes, and defaults
// that must stay consistent between the policy engine and the store implementations.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// ConnectTimeout bounds establishing a connection to either database
	ConnectTimeout = 30 * time.Second

	// DefaultSyncTimeout is the default upper bound for one sync run (0 disables it)
	DefaultSyncTimeout = 0 * time.Second

	// SchedulerRetryDelay is how long the scheduler waits when the next tick cannot be computed
	SchedulerRetryDelay = 30 * time.Second

	// ShutdownTimeout is how long the CLI waits for in-flight work on shutdown
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Default values
const (
	// DefaultAssessmentsTable is the warehouse table holding assessment definitions
	DefaultAssessmentsTable = "usr_data_assessments"

	// DefaultStudentGradesTable is the warehouse table holding student assessment results
	DefaultStudentGradesTable = "usr_data_student_assessments"

	// DefaultTablePrefix is the LMS table prefix
	DefaultTablePrefix = "mdl_"

	// DefaultSourceEncoding is the character set assumed for the external source
	DefaultSourceEncoding = "utf-8"

	// DefaultCron runs the sync at the top of every hour
	DefaultCron = "0 * * * *"

	// DefaultConfigName is the config file name searched in $HOME and the working directory
	DefaultConfigName = ".assessmentsync"

	// EnvPrefix is the environment variable prefix bound by viper
	EnvPrefix = "ASSESSMENTSYNC"
)

// LMS tables touched by the sync (without prefix)
const (
	TableAssign             = "assign"
	TableAssignPluginConfig = "assign_plugin_config"
	TableCourseModules      = "course_modules"
	TableModules            = "modules"
	TableGradeItems         = "grade_items"
	TableScale              = "scale"
	TableTurnitinConfig     = "plagiarism_turnitin_config"
)

// Grade item types stored in grade_items.gradetype
const (
	// GradeTypeValue grades on a numeric value (percentage convention)
	GradeTypeValue = 1
	// GradeTypeScale grades against a named scale
	GradeTypeScale = 2
)

// PercentageGrade is the assign.grade value used when no scale applies.
const PercentageGrade = 100

// Plugin config keys read by the policy engine
const (
	// PluginPhysical is the physical hand-in (coversheet) submission plugin
	PluginPhysical = "physical"
	// PluginFile is the file submission plugin
	PluginFile = "file"
	// SubtypeSubmission is the plugin subtype for submission plugins
	SubtypeSubmission = "assignsubmission"
	// ConfigEnabled is the plugin config name holding the enabled flag
	ConfigEnabled = "enabled"
	// TurnitinUse is the plagiarism config name enabling Turnitin for a course module
	TurnitinUse = "use_turnitin"
)

// AttemptReopenNone disables reopening attempts.
const AttemptReopenNone = "none"
