package suite

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/jonwraymond/stackcheck/observe"
	"github.com/jonwraymond/stackcheck/task"
)

// CommandSuite runs one external test command as a single-case suite.
// It is never retried.
type CommandSuite struct {
	Spec task.Spec

	// Progress receives the progress line. Default: io.Discard
	Progress io.Writer

	// Middleware instruments the command like any other case.
	Middleware *observe.Middleware

	// RunID is attached to telemetry.
	RunID string
}

// Run executes the command. A non-zero exit is a FAILED outcome with a nil
// error. A launch failure is an ERROR outcome and is also returned as the
// error so the orchestrator marks the suite ERROR.
func (c *CommandSuite) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	meta := observe.CaseMeta{Suite: c.Spec.Name, Name: c.Spec.Name, RunID: c.RunID}
	if err := meta.Validate(); err != nil {
		o := Outcome{Status: StatusError, Err: err}
		sum := Summary{Suite: c.Spec.Name}
		sum.Add(o)
		return sum, err
	}

	var res task.Result
	exec := func(ctx context.Context, _ observe.CaseMeta) (int, error) {
		var err error
		res, err = task.Run(ctx, c.Spec)
		return 1, err
	}
	if c.Middleware != nil {
		exec = c.Middleware.Wrap(exec)
	}
	_, err := exec(ctx, meta)

	o := Outcome{
		Name:     c.Spec.Name,
		Status:   StatusPassed,
		Duration: time.Since(start),
		Attempts: 1,
		Err:      err,
		Details:  Details{"exit_code": res.ExitCode},
	}

	var runErr error
	switch {
	case err == nil:
	case errors.Is(err, task.ErrSubprocess) && ctx.Err() == nil:
		o.Status = StatusFailed
	default:
		o.Status = StatusError
		runErr = err
	}

	sum := Summary{Suite: c.Spec.Name}
	sum.Add(o)
	sum.Duration = time.Since(start)

	w := c.Progress
	if w == nil {
		w = io.Discard
	}
	writeProgress(w, o)
	return sum, runErr
}
