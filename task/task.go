package task

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	shellwords "github.com/mattn/go-shellwords"
)

// waitDelay bounds how long Wait blocks on output pipes after the process
// has been killed.
const waitDelay = 2 * time.Second

// Spec describes a command to run.
type Spec struct {
	// Name identifies the task in errors and reports.
	Name string

	// Command is the command line, split with shell quoting rules.
	Command string

	// WorkDir is the working directory. Empty means the current directory.
	WorkDir string

	// Env adds variables to the inherited environment.
	Env map[string]string

	// Timeout kills the process after this long. Zero means no timeout.
	Timeout time.Duration

	// Output, when set, receives stdout and stderr as they are produced.
	Output io.Writer
}

// Result is the outcome of a finished task.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Task is a single subprocess execution.
type Task struct {
	spec Spec
	args []string

	mu      sync.Mutex
	cmd     *exec.Cmd
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time
	stdout  bytes.Buffer
	stderr  bytes.Buffer

	waitOnce sync.Once
	result   Result
	err      error
}

// New parses the command line and returns an unstarted Task.
func New(spec Spec) (*Task, error) {
	args, err := shellwords.Parse(spec.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLaunch, spec.Name, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCommand, spec.Name)
	}
	if spec.Name == "" {
		spec.Name = args[0]
	}
	return &Task{spec: spec, args: args}, nil
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.spec.Name
}

// Args returns the parsed command words.
func (t *Task) Args() []string {
	return append([]string(nil), t.args...)
}

// Start launches the process. The process is killed when ctx is done, when
// the timeout elapses, or when Cancel is called.
func (t *Task) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cmd != nil {
		return ErrAlreadyStarted
	}

	if t.spec.Timeout > 0 {
		t.ctx, t.cancel = context.WithTimeout(ctx, t.spec.Timeout)
	} else {
		t.ctx, t.cancel = context.WithCancel(ctx)
	}

	cmd := exec.CommandContext(t.ctx, t.args[0], t.args[1:]...)
	cmd.Dir = t.spec.WorkDir
	cmd.Env = t.environ()
	cmd.WaitDelay = waitDelay

	var stdout, stderr io.Writer = &t.stdout, &t.stderr
	if t.spec.Output != nil {
		live := &syncWriter{w: t.spec.Output}
		stdout = io.MultiWriter(stdout, live)
		stderr = io.MultiWriter(stderr, live)
	}
	cmd.Stdout, cmd.Stderr = stdout, stderr

	t.cmd = cmd
	t.started = time.Now()
	if err := cmd.Start(); err != nil {
		t.cancel()
		t.waitOnce.Do(func() {
			t.err = fmt.Errorf("%w: %s: %v", ErrLaunch, t.spec.Name, err)
			t.result = Result{ExitCode: -1}
		})
		return t.err
	}
	return nil
}

// Wait blocks until the process exits. A non-zero exit yields a
// *SubprocessError. Wait may be called more than once; later calls return
// the first outcome.
func (t *Task) Wait() (Result, error) {
	t.mu.Lock()
	cmd := t.cmd
	t.mu.Unlock()

	if cmd == nil {
		return Result{}, ErrNotStarted
	}

	t.waitOnce.Do(func() {
		waitErr := cmd.Wait()
		t.cancel()

		t.result = Result{
			ExitCode: cmd.ProcessState.ExitCode(),
			Stdout:   t.stdout.String(),
			Stderr:   t.stderr.String(),
			Duration: time.Since(t.started),
		}

		if waitErr == nil {
			return
		}
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
			t.err = fmt.Errorf("task: %s: wait: %w", t.spec.Name, waitErr)
			return
		}
		t.err = &SubprocessError{
			Name:     t.spec.Name,
			ExitCode: t.result.ExitCode,
			TimedOut: errors.Is(t.ctx.Err(), context.DeadlineExceeded),
			Stderr:   t.result.Stderr,
		}
	})
	return t.result, t.err
}

// Cancel kills the process if it is running. It is safe to call at any time.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
}

// Run starts the task and waits for it.
func Run(ctx context.Context, spec Spec) (Result, error) {
	t, err := New(spec)
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	if err := t.Start(ctx); err != nil {
		return Result{ExitCode: -1}, err
	}
	return t.Wait()
}

func (t *Task) environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(t.spec.Env))
	for k := range t.spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+t.spec.Env[k])
	}
	return env
}

// syncWriter serializes interleaved stdout and stderr writes.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
