package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/stackcheck/config"
	"github.com/jonwraymond/stackcheck/observe"
)

// Streams are the process's I/O and environment.
type Streams struct {
	Out io.Writer
	Err io.Writer

	// Lookup reads the environment. Default: os.LookupEnv
	Lookup func(string) (string, bool)
}

// Options holds the root command flags.
type Options struct {
	ConfigPath  string
	Format      string
	CI          bool
	HealthOnly  bool
	Integration bool
	APIOnly     bool
	WebOnly     bool
	LintOnly    bool
	NoServices  bool
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute runs the CLI against the process streams and returns the exit code.
func Execute(ctx context.Context) int {
	return Run(ctx, os.Args[1:], Streams{Out: os.Stdout, Err: os.Stderr})
}

// Run executes the CLI with args and returns the exit code.
func Run(ctx context.Context, args []string, streams Streams) int {
	if streams.Lookup == nil {
		streams.Lookup = os.LookupEnv
	}
	cmd := newRootCmd(streams)
	cmd.SetArgs(args)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(streams.Err, "stackcheck: %v\n", err)
	return 1
}

func newRootCmd(streams Streams) *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "stackcheck",
		Short: "Verify a deployed API and web stack",
		Long: "Runs preflight, health, integration, command and platform suites against\n" +
			"a running stack and reports per-suite results.\n" +
			"Exit code 0 if every required suite passes, 1 otherwise.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(cmd.Context(), opts, streams)
		},
	}

	f := cmd.Flags()
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.CI, "ci", false, "Use CI retry defaults")
	f.StringVarP(&opts.Format, "format", "f", "text", "Output format (text|json)")
	f.BoolVar(&opts.HealthOnly, "health-only", false, "Run only the health suite")
	f.BoolVar(&opts.Integration, "integration", false, "Run only the integration suite")
	f.BoolVar(&opts.APIOnly, "api-only", false, "Run only API checks and api commands")
	f.BoolVar(&opts.WebOnly, "web-only", false, "Run only web checks and web commands")
	f.BoolVar(&opts.LintOnly, "lint-only", false, "Run only lint commands")
	f.BoolVar(&opts.NoServices, "no-services", false, "Skip preflight and every HTTP suite")
	cmd.MarkFlagsMutuallyExclusive("health-only", "integration", "api-only", "web-only", "lint-only")

	cmd.AddCommand(newPreflightCmd(opts, streams), newVersionCmd(streams))
	return cmd
}

// loadConfig reads the configuration for opts.
func loadConfig(ctx context.Context, opts *Options, streams Streams) (*config.Config, error) {
	cfg, err := config.Load(ctx, config.Options{
		Path:    opts.ConfigPath,
		Lookup:  streams.Lookup,
		ForceCI: opts.CI,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newObserver sets up telemetry for one run. Logs and stdout exports go to
// the error stream so the report on Out stays parseable.
func newObserver(ctx context.Context, cfg *config.Config, streams Streams, runID string) (observe.Observer, func(), error) {
	env := "local"
	if cfg.CI {
		env = "ci"
	}
	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "stackcheck",
		Version:     Version,
		RunID:       runID,
		Environment: env,
		Tracing: observe.TracingConfig{
			Enabled:   enabled(cfg.TraceExporter),
			Exporter:  cfg.TraceExporter,
			SamplePct: 1,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  enabled(cfg.MetricsExporter),
			Exporter: cfg.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   cfg.LogLevel,
			Writer:  streams.Err,
		},
		ExportWriter: streams.Err,
		Lookup:       streams.Lookup,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: %w", err)
	}
	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(ctx); err != nil {
			obs.Logger().Warn(ctx, "telemetry shutdown failed", observe.Field{Key: "error", Value: err})
		}
	}
	return obs, shutdown, nil
}

func enabled(exporter string) bool {
	return exporter != "" && exporter != "none"
}
