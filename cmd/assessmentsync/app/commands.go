package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/assessmentsync/cmd/assessmentsync/cmd/check"
	"github.com/agentstation/assessmentsync/cmd/assessmentsync/cmd/run"
	"github.com/agentstation/assessmentsync/cmd/assessmentsync/cmd/schedule"
	"github.com/agentstation/assessmentsync/internal/cmd/application"
)

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// NewSyncCommand creates the sync command with app dependencies.
func (a *App) NewSyncCommand() *cobra.Command {
	return run.NewCommand(a)
}

// NewScheduleCommand creates the schedule command with app dependencies.
func (a *App) NewScheduleCommand() *cobra.Command {
	return schedule.NewCommand(a)
}

// NewCheckCommand creates the check command with app dependencies.
func (a *App) NewCheckCommand() *cobra.Command {
	return check.NewCommand(a)
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("assessmentsync %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
