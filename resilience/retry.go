package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy defines how delays grow between attempts.
type BackoffStrategy int

const (
	// BackoffConstant waits the same delay before every retry.
	BackoffConstant BackoffStrategy = iota
	// BackoffLinear waits Delay * attempt.
	BackoffLinear
	// BackoffExponential waits Delay * Multiplier^(attempt-1).
	BackoffExponential
)

// String returns the strategy name.
func (s BackoffStrategy) String() string {
	switch s {
	case BackoffConstant:
		return "constant"
	case BackoffLinear:
		return "linear"
	case BackoffExponential:
		return "exponential"
	default:
		return "unknown"
	}
}

// SleepFunc suspends the caller for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	// Default: 3
	MaxAttempts int

	// Delay is the base wait between attempts. Zero retries immediately.
	Delay time.Duration

	// MaxDelay caps the wait computed by non-constant strategies.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the growth factor for BackoffExponential.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffConstant
	Strategy BackoffStrategy

	// Jitter adds up to 25% random delay.
	Jitter bool

	// RetryIf reports whether err should be retried.
	// Default: every non-nil error is retried.
	RetryIf func(err error) bool

	// OnRetry is called after a failed attempt, before waiting.
	OnRetry func(attempt int, err error, delay time.Duration)

	// Sleep waits between attempts.
	// Default: a timer that honors ctx cancellation.
	Sleep SleepFunc
}

// Retry re-invokes an operation until it succeeds or attempts run out.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.Delay < 0 {
		config.Delay = 0
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}
	if config.Sleep == nil {
		config.Sleep = sleepContext
	}

	return &Retry{config: config}
}

// Execute runs op until it returns nil or MaxAttempts consecutive attempts
// have failed. The last error is returned unchanged. Cancellation of ctx
// while waiting returns ctx.Err().
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := r.ExecuteCount(ctx, op)
	return err
}

// ExecuteCount is Execute that also reports how many attempts were made.
func (r *Retry) ExecuteCount(ctx context.Context, op func(context.Context) error) (int, error) {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			return attempt, err
		}
		if attempt >= r.config.MaxAttempts {
			return attempt, lastErr
		}

		delay := r.calculateDelay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		if err := r.config.Sleep(ctx, delay); err != nil {
			return attempt, err
		}
	}

	return r.config.MaxAttempts, lastErr
}

func (r *Retry) calculateDelay(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.Strategy {
	case BackoffConstant:
		// Constant delay is never capped.
		delay = r.config.Delay

	case BackoffLinear:
		delay = min(r.config.Delay*time.Duration(attempt), r.config.MaxDelay)

	case BackoffExponential:
		multiplier := math.Pow(r.config.Multiplier, float64(attempt-1))
		delay = min(time.Duration(float64(r.config.Delay)*multiplier), r.config.MaxDelay)
	}

	if r.config.Jitter && delay >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(delay / 4)))
	}

	return delay
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
