// Package probe issues single timed HTTP requests against the services under
// test and provides the assertions test cases make about the responses.
//
// A probe never retries; retry policy belongs to the caller. Failures are
// classified so callers can tell them apart:
//
//   - *TimeoutError (errors.Is(err, ErrTimeout)): no response within the budget.
//   - *NetworkError (errors.Is(err, ErrNetwork)): connection refused, reset, DNS.
//   - *AssertionError (errors.Is(err, ErrAssertion)): an expectation on the
//     response did not hold.
//
// Usage:
//
//	p := probe.New(probe.Config{Timeout: 5 * time.Second})
//	resp, err := p.Get(ctx, "http://localhost:8000/health")
//	if err != nil {
//	    return err
//	}
//	if err := probe.ExpectStatus(resp, http.StatusOK); err != nil {
//	    return err
//	}
package probe
