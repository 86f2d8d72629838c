package suite

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jonwraymond/stackcheck/observe"
	"github.com/jonwraymond/stackcheck/resilience"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// noSleep makes retries instantaneous while counting waits.
func noSleep(count *int32) resilience.SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		atomic.AddInt32(count, 1)
		return ctx.Err()
	}
}

func pass(ctx context.Context) (Details, error) { return nil, nil }

func fail(msg string) CaseFunc {
	return func(ctx context.Context) (Details, error) { return nil, errors.New(msg) }
}

func TestRunner_RecordsEveryCase(t *testing.T) {
	var sleeps int32
	var buf bytes.Buffer
	r := NewRunner(RunnerConfig{
		Retry:    resilience.RetryConfig{MaxAttempts: 3, Delay: 10 * time.Millisecond, Sleep: noSleep(&sleeps)},
		Progress: &buf,
	})

	sum := r.Run(context.Background(), Suite{Name: "s", Cases: []Case{
		{Name: "A", Fn: fail("A broke")},
		{Name: "B", Fn: pass},
	}})

	require.Len(t, sum.Outcomes, 2)
	assert.Equal(t, "A", sum.Outcomes[0].Name)
	assert.Equal(t, StatusFailed, sum.Outcomes[0].Status)
	assert.Equal(t, 3, sum.Outcomes[0].Attempts)
	assert.EqualError(t, sum.Outcomes[0].Err, "A broke")
	assert.Equal(t, "B", sum.Outcomes[1].Name)
	assert.Equal(t, StatusPassed, sum.Outcomes[1].Status)
	assert.Equal(t, 1, sum.Passed)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, int32(2), sleeps, "N attempts sleep N-1 times")

	out := buf.String()
	assert.Contains(t, out, "  ✗ A: A broke\n")
	assert.Regexp(t, `  ✓ B \(\d+ms\)\n`, out)
	assert.Less(t, strings.Index(out, "✗ A"), strings.Index(out, "✓ B"))
}

func TestRunner_CountsAlwaysBalance(t *testing.T) {
	r := NewRunner(RunnerConfig{Retry: resilience.RetryConfig{MaxAttempts: 1}})

	for n := 0; n < 6; n++ {
		cases := make([]Case, n)
		for i := range cases {
			if i%2 == 0 {
				cases[i] = Case{Name: "pass", Fn: pass}
			} else {
				cases[i] = Case{Name: "fail", Fn: fail("x")}
			}
		}
		sum := r.Run(context.Background(), Suite{Name: "s", Cases: cases})
		assert.Equal(t, n, sum.Passed+sum.Failed)
		assert.Equal(t, n, sum.Total())
	}
}

func TestRunner_TransientFailureRecovers(t *testing.T) {
	var sleeps, calls int32
	r := NewRunner(RunnerConfig{Retry: resilience.RetryConfig{MaxAttempts: 3, Sleep: noSleep(&sleeps)}})

	sum := r.Run(context.Background(), Suite{Name: "s", Cases: []Case{{
		Name: "flaky",
		Fn: func(ctx context.Context) (Details, error) {
			if atomic.AddInt32(&calls, 1) < 2 {
				return nil, errors.New("not yet")
			}
			return Details{"response_ms": int64(7)}, nil
		},
	}}})

	o := sum.Outcomes[0]
	assert.Equal(t, StatusPassed, o.Status)
	assert.Equal(t, 2, o.Attempts)
	assert.Equal(t, int64(7), o.Details["response_ms"])
	assert.True(t, sum.OK())
}

func TestRunner_PanicIsError(t *testing.T) {
	r := NewRunner(RunnerConfig{Retry: resilience.RetryConfig{MaxAttempts: 1}})

	sum := r.Run(context.Background(), Suite{Name: "s", Cases: []Case{
		{Name: "boom", Fn: func(ctx context.Context) (Details, error) { panic("nil map") }},
		{Name: "after", Fn: pass},
	}})

	assert.Equal(t, StatusError, sum.Outcomes[0].Status)
	assert.ErrorIs(t, sum.Outcomes[0].Err, ErrPanic)
	assert.Equal(t, StatusPassed, sum.Outcomes[1].Status)
	assert.Equal(t, 1, sum.Failed, "ERROR counts toward failed")
	assert.True(t, sum.HasErrors())
}

func TestRunner_CancelledContextMarksRemainingAsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(RunnerConfig{Retry: resilience.RetryConfig{MaxAttempts: 1}})

	var secondCalled bool
	sum := r.Run(ctx, Suite{Name: "s", Cases: []Case{
		{Name: "first", Fn: func(ctx context.Context) (Details, error) { cancel(); return nil, nil }},
		{Name: "second", Fn: func(ctx context.Context) (Details, error) { secondCalled = true; return nil, nil }},
	}})

	assert.False(t, secondCalled)
	assert.Equal(t, StatusPassed, sum.Outcomes[0].Status)
	assert.Equal(t, StatusError, sum.Outcomes[1].Status)
	assert.ErrorIs(t, sum.Outcomes[1].Err, context.Canceled)
	assert.Equal(t, 2, sum.Passed+sum.Failed)
}

func TestRunner_LogsRetries(t *testing.T) {
	var logs bytes.Buffer
	r := NewRunner(RunnerConfig{
		Retry:  resilience.RetryConfig{MaxAttempts: 2, Sleep: noSleep(new(int32))},
		Logger: observe.NewLoggerWithWriter("warn", &logs),
		RunID:  "run-1",
	})

	r.Run(context.Background(), Suite{Name: "health", Cases: []Case{{Name: "api health", Fn: fail("503")}}})

	out := logs.String()
	assert.Contains(t, out, `"case.name":"api health"`)
	assert.Contains(t, out, `"attempt":1`)
	assert.Contains(t, out, "503")
}

func TestRunner_Middleware(t *testing.T) {
	var logs bytes.Buffer
	mw := observe.NewMiddleware(nil, nil, observe.NewLoggerWithWriter("info", &logs))
	r := NewRunner(RunnerConfig{Retry: resilience.RetryConfig{MaxAttempts: 1}, Middleware: mw})

	r.Run(context.Background(), Suite{Name: "health", Cases: []Case{{Name: "web root", Fn: pass}}})

	assert.Contains(t, logs.String(), `"msg":"case passed"`)
	assert.Contains(t, logs.String(), `"attempts":1`)
}

func TestRunner_UnnamedCaseSameVerdictWithOrWithoutMiddleware(t *testing.T) {
	tests := []struct {
		name string
		mw   *observe.Middleware
	}{
		{"plain", nil},
		{"instrumented", observe.NewMiddleware(nil, nil, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called int32
			fn := func(ctx context.Context) (Details, error) {
				atomic.AddInt32(&called, 1)
				return nil, nil
			}
			r := NewRunner(RunnerConfig{Retry: resilience.RetryConfig{MaxAttempts: 1}, Middleware: tt.mw})

			sum := r.Run(context.Background(), Suite{Name: "s", Cases: []Case{{Name: " ", Fn: fn}}})

			require.Len(t, sum.Outcomes, 1)
			assert.Equal(t, StatusError, sum.Outcomes[0].Status)
			assert.ErrorIs(t, sum.Outcomes[0].Err, observe.ErrMissingCaseName)
			assert.Equal(t, int32(0), atomic.LoadInt32(&called))
			assert.Equal(t, 1, sum.Failed)
		})
	}
}

func TestBound_Run(t *testing.T) {
	r := NewRunner(RunnerConfig{Retry: resilience.RetryConfig{MaxAttempts: 1}})
	b := r.For(Suite{Name: "s", Cases: []Case{{Name: "x", Fn: fail("no")}}})

	sum, err := b.Run(context.Background())
	require.NoError(t, err, "case failures are not run errors")
	assert.Equal(t, 1, sum.Failed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSuite_Only(t *testing.T) {
	s := Suite{Name: "health", Cases: []Case{
		{Name: "api health", Target: TargetAPI},
		{Name: "web root", Target: TargetWeb},
		{Name: "api detailed", Target: TargetAPI},
	}}

	api := s.Only(TargetAPI)
	require.Len(t, api.Cases, 2)
	assert.Equal(t, "api health", api.Cases[0].Name)
	assert.Equal(t, "api detailed", api.Cases[1].Name)
	assert.Len(t, s.Only(TargetWeb).Cases, 1)
	assert.Empty(t, s.Only("lint").Cases)
	assert.Len(t, s.Cases, 3, "Only does not mutate the original")
}
