// Package config loads assessmentsync settings from a YAML file, the environment
// and .env files.
//
// Keys are dotted (external.type, tables.assessments, lms.dsn, ...). Each key can
// be set from the environment as ASSESSMENTSYNC_<KEY> with dots replaced by
// underscores, e.g. ASSESSMENTSYNC_EXTERNAL_TYPE. List keys accept a
// comma-separated value.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/assessmentsync/internal/sources/extdb"
	"github.com/agentstation/assessmentsync/pkg/constants"
	"github.com/agentstation/assessmentsync/pkg/errors"
)

// Config is the full sync configuration.
type Config struct {
	External extdb.Config `mapstructure:"external" yaml:"external"`
	Tables   Tables       `mapstructure:"tables" yaml:"tables"`
	LMS      LMS          `mapstructure:"lms" yaml:"lms"`
	Schedule Schedule     `mapstructure:"schedule" yaml:"schedule"`
	Metrics  Metrics      `mapstructure:"metrics" yaml:"metrics"`
	Filter   Filter       `mapstructure:"filter" yaml:"filter"`
	Sync     Sync         `mapstructure:"sync" yaml:"sync"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

// Tables names the warehouse tables.
type Tables struct {
	Assessments   string `mapstructure:"assessments" yaml:"assessments"`
	StudentGrades string `mapstructure:"student_grades" yaml:"student_grades"`
}

// LMS configures the internal store.
type LMS struct {
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

// Schedule configures the cron loop.
type Schedule struct {
	Cron       string `mapstructure:"cron" yaml:"cron"`
	RunOnStart bool   `mapstructure:"run_on_start" yaml:"run_on_start"`
}

// Metrics configures the metrics endpoint served while scheduling.
type Metrics struct {
	Addr string `mapstructure:"addr" yaml:"addr"` // empty disables the endpoint
}

// Filter restricts runs to some link codes.
type Filter struct {
	Include []string `mapstructure:"include" yaml:"include"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
}

// Sync holds per-run defaults.
type Sync struct {
	DryRun  bool          `mapstructure:"dry_run" yaml:"dry_run"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// defaults lists every key. Registering a key is what lets viper resolve it
// from the environment during Unmarshal.
var defaults = map[string]any{
	"external.type":         "",
	"external.host":         "",
	"external.user":         "",
	"external.password":     "",
	"external.name":         "",
	"external.encoding":     constants.DefaultSourceEncoding,
	"external.setup_sql":    "",
	"external.dsn":          "",
	"tables.assessments":    constants.DefaultAssessmentsTable,
	"tables.student_grades": constants.DefaultStudentGradesTable,
	"lms.dsn":               "",
	"lms.prefix":            constants.DefaultTablePrefix,
	"schedule.cron":         constants.DefaultCron,
	"schedule.run_on_start": false,
	"metrics.addr":          "",
	"filter.include":        []string{},
	"filter.exclude":        []string{},
	"sync.dry_run":          false,
	"sync.timeout":          constants.DefaultSyncTimeout,
}

// Load reads configuration in order of precedence:
// 1. Environment variables
// 2. .env and .env.local files
// 3. Config file (file, or .assessmentsync.yaml in $HOME or the working directory)
// 4. Defaults
func Load(file string) (*Config, error) {
	return LoadWith(viper.New(), file)
}

// LoadWith is Load on a caller-provided viper instance.
func LoadWith(v *viper.Viper, file string) (*Config, error) {
	loadEnvFiles()

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "reading config file", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.NewConfigError("config", "decoding config", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.normalize()

	return cfg, nil
}

// Default returns the configuration with only the defaults applied.
func Default() *Config {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	cfg.normalize()
	return cfg
}

// normalize trims values and splits list entries given as one comma-separated string.
func (c *Config) normalize() {
	c.External.Type = strings.ToLower(strings.TrimSpace(c.External.Type))
	c.Tables.Assessments = strings.TrimSpace(c.Tables.Assessments)
	c.Tables.StudentGrades = strings.TrimSpace(c.Tables.StudentGrades)
	c.Filter.Include = splitList(c.Filter.Include)
	c.Filter.Exclude = splitList(c.Filter.Exclude)
}

// Validate checks values that are wrong regardless of what is run. Empty
// external settings are not errors: a run reports them and stops.
func (c *Config) Validate() error {
	if c.Sync.Timeout < 0 {
		return errors.NewValidationError("sync.timeout", c.Sync.Timeout, "must be non-negative")
	}
	if c.LMS.Prefix == "" {
		return errors.NewValidationError("lms.prefix", c.LMS.Prefix, "cannot be empty")
	}
	return nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment are kept.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
