// Package run implements the sync command: one pass over all linked assignments.
package run

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/assessmentsync/internal/cmd/application"
	"github.com/agentstation/assessmentsync/internal/cmd/output"
	pkgsync "github.com/agentstation/assessmentsync/pkg/sync"
)

// Flags holds the sync command flags.
type Flags struct {
	DryRun  bool
	Include []string
	Exclude []string
	Timeout time.Duration
	RunID   string
}

// Options converts the flags to sync options.
func (f *Flags) Options() []pkgsync.Option {
	opts := []pkgsync.Option{
		pkgsync.WithInclude(f.Include...),
		pkgsync.WithExclude(f.Exclude...),
	}
	if f.DryRun {
		opts = append(opts, pkgsync.WithDryRun(true))
	}
	if f.Timeout > 0 {
		opts = append(opts, pkgsync.WithTimeout(f.Timeout))
	}
	if f.RunID != "" {
		opts = append(opts, pkgsync.WithRunID(f.RunID))
	}
	return opts
}

// AddFlags registers the run flags on cmd.
func AddFlags(cmd *cobra.Command) *Flags {
	flags := &Flags{}
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "log and report changes without writing them")
	cmd.Flags().StringSliceVar(&flags.Include, "include", nil, "only sync link codes matching these glob or regex patterns")
	cmd.Flags().StringSliceVar(&flags.Exclude, "exclude", nil, "skip link codes matching these glob or regex patterns")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "abort a run after this long (0 disables)")
	cmd.Flags().StringVar(&flags.RunID, "run-id", "", "run identifier for logs (generated when empty)")
	return flags
}

// NewCommand creates the sync command.
func NewCommand(app application.Application) *cobra.Command {
	var flags *Flags

	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"run"},
		GroupID: "core",
		Short:   "Apply assessment settings once",
		Long: `Sync reads the LMS assignment catalog and the warehouse assessments table,
pairs them on link code and enforces the assignment settings policy on every
pair, then prints a summary of what changed.`,
		Example: `  assessmentsync sync                              # Apply settings
  assessmentsync sync --dry-run                    # Preview changes
  assessmentsync sync --include '*_2019/20_*'      # One academic year
  assessmentsync sync -o json                      # Machine-readable result`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd.Context(), app, flags, cmd.OutOrStdout())
		},
	}

	flags = AddFlags(cmd)
	return cmd
}

// Execute runs one sync and writes the result. The result is written even when
// the run failed, so the counts up to the failure are visible.
func Execute(ctx context.Context, app application.Application, flags *Flags, w io.Writer) error {
	syncer, err := app.Syncer()
	if err != nil {
		return err
	}

	result, err := syncer.Sync(ctx, flags.Options()...)
	if result != nil {
		format := output.DetectFormat(app.OutputFormat())
		if werr := output.WriteResult(w, format, result); werr != nil {
			app.Logger().Warn().Err(werr).Msg("Could not write result")
		}
	}
	return err
}
