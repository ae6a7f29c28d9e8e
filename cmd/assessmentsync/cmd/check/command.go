// Package check implements the check command.
package check

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/assessmentsync/internal/cmd/application"
	"github.com/agentstation/assessmentsync/internal/cmd/output"
)

// NewCommand creates the check command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "check",
		GroupID: "core",
		Short:   "Validate configuration and connectivity without writing",
		Long: `Check logs the configured warehouse settings, pings the LMS database and
reads the warehouse assessments table once. Nothing is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			syncer, err := app.Syncer()
			if err != nil {
				return err
			}
			report, err := syncer.Check(cmd.Context())
			if err != nil {
				return err
			}
			formatter := output.NewFormatter(output.DetectFormat(app.OutputFormat()))
			return formatter.Format(cmd.OutOrStdout(), report)
		},
	}
}
