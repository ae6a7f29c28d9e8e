// Package application defines what commands need from the CLI app.
//
// Commands accept this interface rather than the concrete App type, so they can
// be tested with Mock.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/assessmentsync"
	"github.com/agentstation/assessmentsync/internal/config"
	"github.com/agentstation/assessmentsync/internal/metrics"
)

// Application provides the dependencies commands use.
type Application interface {
	// Syncer returns the syncer, opening the LMS store on first use.
	Syncer() (assessmentsync.Syncer, error)

	// Settings returns the loaded configuration.
	Settings() *config.Config

	// Metrics returns the recorder shared by every run of the process.
	Metrics() *metrics.Recorder

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, wide, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string
}
