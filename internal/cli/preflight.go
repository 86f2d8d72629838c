package cli

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/stackcheck/orchestrator"
	"github.com/jonwraymond/stackcheck/probe"
)

func newPreflightCmd(opts *Options, streams Streams) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Probe service reachability only",
		Long: "Probes the API and web services once and prints their status.\n" +
			"Always exits 0 unless the configuration is invalid.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, opts, streams)
			if err != nil {
				return err
			}
			runID := uuid.NewString()
			obs, shutdown, err := newObserver(ctx, cfg, streams, runID)
			if err != nil {
				return err
			}
			defer shutdown()

			orch := orchestrator.New(orchestrator.Config{
				RunID:    runID,
				Progress: streams.Out,
				Logger:   obs.Logger(),
				Getter:   probe.New(probe.Config{Timeout: cfg.Timeout}),
			})
			p := &planner{cfg: cfg}
			orch.Preflight(ctx, p.services())
			return nil
		},
	}
}
