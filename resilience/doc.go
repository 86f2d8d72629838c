// Package resilience provides the retry policy used to absorb the start-up
// window of the services under test.
//
// Probes against freshly started containers fail for a while before the
// service is ready. Retry re-invokes an operation a bounded number of times,
// waiting between attempts, and only reports the last error once every
// attempt has failed.
//
// # Usage
//
// The harness uses a fixed delay between attempts:
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts: 3,
//	    Delay:       2 * time.Second,
//	    OnRetry: func(attempt int, err error, delay time.Duration) {
//	        log.Printf("attempt %d failed: %v (retrying in %s)", attempt, err, delay)
//	    },
//	})
//
//	err := retry.Execute(ctx, func(ctx context.Context) error {
//	    _, err := prober.Get(ctx, apiURL+"/health")
//	    return err
//	})
//
// Linear and exponential strategies are available for callers that want them,
// but constant is the zero value.
package resilience
