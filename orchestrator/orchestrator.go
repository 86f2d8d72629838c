package orchestrator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/stackcheck/health"
	"github.com/jonwraymond/stackcheck/observe"
	"github.com/jonwraymond/stackcheck/suite"
)

// SuiteRunner runs one suite. Case failures belong in the Summary; the error
// is reserved for runs that could not be evaluated.
type SuiteRunner interface {
	Run(ctx context.Context) (suite.Summary, error)
}

// SuiteRunnerFunc adapts a function to SuiteRunner.
type SuiteRunnerFunc func(ctx context.Context) (suite.Summary, error)

// Run calls f.
func (f SuiteRunnerFunc) Run(ctx context.Context) (suite.Summary, error) {
	return f(ctx)
}

// Entry registers a suite with the orchestrator.
type Entry struct {
	Name     string
	Required bool
	Runner   SuiteRunner
}

// Result is the final record of one suite.
type Result struct {
	Name     string        `json:"name"`
	Required bool          `json:"required"`
	State    State         `json:"state"`
	Summary  suite.Summary `json:"summary"`
	Err      error         `json:"-"`
}

// Report is the outcome of a whole run.
type Report struct {
	RunID          string               `json:"run_id"`
	StartedAt      time.Time            `json:"started_at"`
	Preflight      []health.NamedResult `json:"preflight,omitempty"`
	Results        []Result             `json:"results"`
	RequiredFailed int                  `json:"required_failed"`
	Aborted        bool                 `json:"aborted"`
	ExitCode       int                  `json:"exit_code"`
	Duration       time.Duration        `json:"duration_ns"`
}

// Service is a dependency probed during preflight.
type Service struct {
	Name string
	URL  string
}

// Config configures an Orchestrator.
type Config struct {
	// RunID identifies the run. Default: a random UUID.
	RunID string

	// Progress receives suite headers and preflight lines. Default: io.Discard
	Progress io.Writer

	// Logger receives lifecycle events. Default: no-op.
	Logger observe.Logger

	// Getter performs preflight probes. Required for Preflight.
	Getter health.Getter

	// PreflightTimeout bounds the whole preflight. Default: 10 seconds
	PreflightTimeout time.Duration
}

// Orchestrator runs suites sequentially.
type Orchestrator struct {
	config Config
}

// New creates an Orchestrator.
func New(config Config) *Orchestrator {
	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}
	if config.Progress == nil {
		config.Progress = io.Discard
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	if config.PreflightTimeout <= 0 {
		config.PreflightTimeout = 10 * time.Second
	}
	return &Orchestrator{config: config}
}

// RunID returns the run identifier.
func (o *Orchestrator) RunID() string {
	return o.config.RunID
}

// RunAll runs entries strictly in order. Each suite runs at most once. When
// ctx is cancelled the current suite ends in ERROR, the remaining suites stay
// NOT_RUN, and ctx.Err() is returned along with the partial report.
func (o *Orchestrator) RunAll(ctx context.Context, entries []Entry) (*Report, error) {
	rep := &Report{
		RunID:     o.config.RunID,
		StartedAt: time.Now(),
		Results:   make([]Result, len(entries)),
	}
	for i, e := range entries {
		rep.Results[i] = Result{Name: e.Name, Required: e.Required, State: StateNotRun}
	}

	var runErr error
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := o.runOne(ctx, e, &rep.Results[i]); err != nil {
			return nil, err
		}
	}
	if runErr == nil {
		runErr = ctx.Err()
	}

	rep.Aborted = runErr != nil
	rep.RequiredFailed = RequiredFailed(rep.Results)
	rep.ExitCode = ExitCode(rep.Results, rep.Aborted)
	rep.Duration = time.Since(rep.StartedAt)

	o.config.Logger.Info(ctx, "run finished",
		observe.Field{Key: "run.id", Value: rep.RunID},
		observe.Field{Key: "required_failed", Value: rep.RequiredFailed},
		observe.Field{Key: "exit_code", Value: rep.ExitCode},
		observe.Field{Key: "aborted", Value: rep.Aborted},
	)
	return rep, runErr
}

func (o *Orchestrator) runOne(ctx context.Context, e Entry, res *Result) error {
	if err := transition(&res.State, StateRunning); err != nil {
		return err
	}

	kind := "optional"
	if e.Required {
		kind = "required"
	}
	fmt.Fprintf(o.config.Progress, "\n▶ %s (%s)\n", e.Name, kind)
	o.config.Logger.Debug(ctx, "suite started",
		observe.Field{Key: "suite", Value: e.Name},
		observe.Field{Key: "required", Value: e.Required},
	)

	sum, err := e.Runner.Run(ctx)
	if sum.Suite == "" {
		sum.Suite = e.Name
	}
	res.Summary = sum
	res.Err = err

	next := StatePassed
	switch {
	case err != nil:
		next = StateError
	case sum.Failed > 0:
		next = StateFailed
	}

	fields := []observe.Field{
		{Key: "suite", Value: e.Name},
		{Key: "state", Value: string(next)},
		{Key: "passed", Value: sum.Passed},
		{Key: "failed", Value: sum.Failed},
	}
	if err != nil {
		fields = append(fields, observe.Field{Key: "error", Value: err})
		o.config.Logger.Error(ctx, "suite errored", fields...)
	} else {
		o.config.Logger.Info(ctx, "suite finished", fields...)
	}

	return transition(&res.State, next)
}

// RequiredFailed counts required suites that ended FAILED or ERROR.
func RequiredFailed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Required && (r.State == StateFailed || r.State == StateError) {
			n++
		}
	}
	return n
}

// ExitCode returns 1 when a required suite failed or the run was aborted.
func ExitCode(results []Result, aborted bool) int {
	if aborted || RequiredFailed(results) > 0 {
		return 1
	}
	return 0
}

// Preflight probes each service once, in parallel, and reports results in
// service order. It is diagnostics only and never fails the run.
func (o *Orchestrator) Preflight(ctx context.Context, services []Service) []health.NamedResult {
	if o.config.Getter == nil || len(services) == 0 {
		return nil
	}

	agg := health.NewAggregator(health.AggregatorConfig{
		Timeout:  o.config.PreflightTimeout,
		Parallel: true,
	})
	for _, s := range services {
		agg.Register(s.Name, health.NewHTTPChecker(s.Name, s.URL, o.config.Getter))
	}

	fmt.Fprintln(o.config.Progress, "▶ preflight")
	results := agg.CheckAll(ctx)
	for _, r := range results {
		fmt.Fprintf(o.config.Progress, "  %s %s: %s (%dms)\n",
			r.Result.Status.Mark(), r.Name, r.Result.Summary(), r.Result.Duration.Milliseconds())
		if !r.Result.OK() {
			o.config.Logger.Warn(ctx, "service not healthy",
				observe.Field{Key: "service", Value: r.Name},
				observe.Field{Key: "status", Value: r.Result.Status.String()},
				observe.Field{Key: "error", Value: r.Result.Error},
			)
		}
	}
	return results
}
