package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/jonwraymond/stackcheck/checks"
	"github.com/jonwraymond/stackcheck/observe"
	"github.com/jonwraymond/stackcheck/orchestrator"
	"github.com/jonwraymond/stackcheck/probe"
	"github.com/jonwraymond/stackcheck/report"
)

func runChecks(ctx context.Context, opts *Options, streams Streams) error {
	if opts.Format != "text" && opts.Format != "json" {
		return fmt.Errorf("unknown format %q (text|json)", opts.Format)
	}

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

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	// Progress shares stdout with the text report; JSON output keeps stdout
	// for the document alone.
	var progress io.Writer = streams.Out
	if opts.Format == "json" {
		progress = streams.Err
	}

	orch := orchestrator.New(orchestrator.Config{
		RunID:    runID,
		Progress: progress,
		Logger:   obs.Logger(),
		Getter:   probe.New(probe.Config{Timeout: cfg.Timeout}),
	})
	p := &planner{
		cfg:        cfg,
		checks:     checks.FromConfig(cfg, nil),
		progress:   progress,
		middleware: mw,
		runID:      orch.RunID(),
	}
	pl := p.build(opts)

	obs.Logger().Info(ctx, "run starting",
		observe.Field{Key: "run.id", Value: orch.RunID()},
		observe.Field{Key: "api_url", Value: cfg.APIURL},
		observe.Field{Key: "web_url", Value: cfg.WebURL},
		observe.Field{Key: "ci", Value: cfg.CI},
		observe.Field{Key: "suites", Value: len(pl.entries)},
	)

	preflight := orch.Preflight(ctx, pl.services)
	rep, runErr := orch.RunAll(ctx, pl.entries)
	if rep == nil {
		return runErr
	}
	rep.Preflight = preflight

	if err := writeReport(streams.Out, rep, opts.Format); err != nil {
		return err
	}
	if runErr != nil {
		obs.Logger().Warn(ctx, "run aborted", observe.Field{Key: "error", Value: runErr})
	}
	if rep.ExitCode != 0 {
		return &exitError{code: rep.ExitCode}
	}
	return nil
}

func writeReport(w io.Writer, rep *orchestrator.Report, format string) error {
	if format == "json" {
		out, err := report.FormatJSON(rep)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, out)
		return err
	}
	_, err := fmt.Fprint(w, "\n"+report.FormatText(rep))
	return err
}
