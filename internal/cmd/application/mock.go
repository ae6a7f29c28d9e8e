package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/assessmentsync"
	"github.com/agentstation/assessmentsync/internal/config"
	"github.com/agentstation/assessmentsync/internal/metrics"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	SyncerFunc       func() (assessmentsync.Syncer, error)
	SettingsFunc     func() *config.Config
	MetricsFunc      func() *metrics.Recorder
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
}

// Syncer returns a syncer using the mock function or nil.
func (m *Mock) Syncer() (assessmentsync.Syncer, error) {
	if m.SyncerFunc != nil {
		return m.SyncerFunc()
	}
	return nil, nil
}

// Settings returns the configuration using the mock function or an empty one.
func (m *Mock) Settings() *config.Config {
	if m.SettingsFunc != nil {
		return m.SettingsFunc()
	}
	return &config.Config{}
}

// Metrics returns a recorder using the mock function or nil.
func (m *Mock) Metrics() *metrics.Recorder {
	if m.MetricsFunc != nil {
		return m.MetricsFunc()
	}
	return nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
