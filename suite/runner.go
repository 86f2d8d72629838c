package suite

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jonwraymond/stackcheck/observe"
	"github.com/jonwraymond/stackcheck/resilience"
)

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Retry is applied to every case. OnRetry is set by the runner.
	Retry resilience.RetryConfig

	// Progress receives one line per case. Default: io.Discard
	Progress io.Writer

	// Middleware wraps each case with tracing, metrics and logging.
	// Nil disables instrumentation.
	Middleware *observe.Middleware

	// Logger receives retry notices. Default: the middleware logger, or a no-op.
	Logger observe.Logger

	// RunID is attached to case telemetry.
	RunID string
}

// Runner executes suites sequentially on the caller's goroutine.
type Runner struct {
	config RunnerConfig
}

// NewRunner creates a Runner.
func NewRunner(config RunnerConfig) *Runner {
	if config.Progress == nil {
		config.Progress = io.Discard
	}
	if config.Logger == nil {
		if config.Middleware != nil {
			config.Logger = config.Middleware.Logger()
		} else {
			config.Logger = observe.NopLogger()
		}
	}
	return &Runner{config: config}
}

// Run executes every case of s in order and returns the summary. A failing
// case never stops the suite. Once ctx is done the remaining cases are
// recorded as ERROR without being invoked.
func (r *Runner) Run(ctx context.Context, s Suite) Summary {
	start := time.Now()
	sum := Summary{Suite: s.Name, Outcomes: make([]Outcome, 0, len(s.Cases))}

	for _, c := range s.Cases {
		var o Outcome
		if err := ctx.Err(); err != nil {
			o = Outcome{Name: c.Name, Status: StatusError, Err: err}
		} else {
			o = r.runCase(ctx, s.Name, c)
		}
		sum.Add(o)
		r.progress(o)
	}

	sum.Duration = time.Since(start)
	return sum
}

// For binds s to the runner. The result satisfies orchestrator.SuiteRunner.
func (r *Runner) For(s Suite) *Bound {
	return &Bound{runner: r, suite: s}
}

// Bound is a suite bound to a runner.
type Bound struct {
	runner *Runner
	suite  Suite
}

// Run runs the bound suite. Case failures are reported in the summary; the
// error is non-nil only when ctx ended the run.
func (b *Bound) Run(ctx context.Context) (Summary, error) {
	sum := b.runner.Run(ctx, b.suite)
	return sum, ctx.Err()
}

func (r *Runner) runCase(ctx context.Context, suiteName string, c Case) Outcome {
	meta := observe.CaseMeta{Suite: suiteName, Name: c.Name, RunID: r.config.RunID}
	// Unnamed cases are never invoked, with or without instrumentation.
	if err := meta.Validate(); err != nil {
		return Outcome{Name: c.Name, Status: StatusError, Err: err}
	}
	logger := r.config.Logger.WithCase(meta)

	retryCfg := r.config.Retry
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn(ctx, "attempt failed, retrying",
			observe.Field{Key: "attempt", Value: attempt},
			observe.Field{Key: "error", Value: err},
			observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
		)
	}
	retry := resilience.NewRetry(retryCfg)

	var details Details
	exec := func(ctx context.Context, _ observe.CaseMeta) (int, error) {
		return retry.ExecuteCount(ctx, func(ctx context.Context) error {
			d, err := call(ctx, c.Fn)
			details = d
			return err
		})
	}
	if r.config.Middleware != nil {
		exec = r.config.Middleware.Wrap(exec)
	}

	start := time.Now()
	attempts, err := exec(ctx, meta)
	return Outcome{
		Name:     c.Name,
		Status:   classify(ctx, err),
		Duration: time.Since(start),
		Attempts: attempts,
		Err:      err,
		Details:  details,
	}
}

func (r *Runner) progress(o Outcome) {
	writeProgress(r.config.Progress, o)
}

func writeProgress(w io.Writer, o Outcome) {
	if o.Passed() {
		fmt.Fprintf(w, "  ✓ %s (%dms)\n", o.Name, o.Duration.Milliseconds())
		return
	}
	fmt.Fprintf(w, "  ✗ %s: %v\n", o.Name, o.Err)
}
