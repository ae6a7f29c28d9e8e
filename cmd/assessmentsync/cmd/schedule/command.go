// Package schedule implements the schedule command: sync on a cron expression,
// optionally serving metrics.
package schedule

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/assessmentsync/cmd/assessmentsync/cmd/run"
	"github.com/agentstation/assessmentsync/internal/cmd/application"
	"github.com/agentstation/assessmentsync/pkg/constants"
	"github.com/agentstation/assessmentsync/pkg/errors"
)

// Flags holds the schedule command flags.
type Flags struct {
	*run.Flags
	Cron        string
	MetricsAddr string
	Now         bool
}

// NewCommand creates the schedule command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "schedule",
		GroupID: "core",
		Short:   "Sync on a cron schedule until interrupted",
		Long: `Schedule runs a sync at every tick of a cron expression (schedule.cron,
hourly by default). Runs never overlap: a run that overruns the next tick
delays it. With metrics.addr set, Prometheus metrics are served on /metrics
and a liveness probe on /healthz.`,
		Example: `  assessmentsync schedule                          # Hourly
  assessmentsync schedule --cron '*/15 * * * *'    # Every 15 minutes
  assessmentsync schedule --now --metrics :9090    # Run now, then hourly`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd.Context(), app, flags)
		},
	}

	flags.Flags = run.AddFlags(cmd)
	cmd.Flags().StringVar(&flags.Cron, "cron", "", "cron expression (overrides schedule.cron)")
	cmd.Flags().StringVar(&flags.MetricsAddr, "metrics", "", "listen address for metrics (overrides metrics.addr)")
	cmd.Flags().BoolVar(&flags.Now, "now", false, "run once immediately before the first tick")

	return cmd
}

// Execute runs the schedule until ctx is canceled or the metrics server fails.
func Execute(ctx context.Context, app application.Application, flags *Flags) error {
	logger := app.Logger()
	settings := app.Settings()

	cron := settings.Schedule.Cron
	if flags.Cron != "" {
		cron = flags.Cron
	}
	addr := settings.Metrics.Addr
	if flags.MetricsAddr != "" {
		addr = flags.MetricsAddr
	}
	if flags.Now {
		settings.Schedule.RunOnStart = true
	}

	syncer, err := app.Syncer()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	if addr != "" && app.Metrics() != nil {
		server := &http.Server{
			Addr:              addr,
			Handler:           app.Metrics().Mux(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info().Str("addr", addr).Str("service", "metrics").Msg("Server starting")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("metrics server failed: %w", err)
				cancel()
			}
		}()

		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("Metrics server shutdown failed")
				return
			}
			logger.Info().Msg("Server stopped gracefully")
		}()
	}

	err = syncer.Schedule(ctx, cron, flags.Options()...)

	select {
	case serr := <-serverErr:
		return serr
	default:
		return err
	}
}
