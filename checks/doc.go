// Package checks holds the built-in test cases stackcheck runs against a
// deployed API and web frontend, grouped into the health, ci-health,
// integration and platform suites.
//
// Every case issues its own probes and returns a *probe.AssertionError naming
// the unexpected status code or missing field when an expectation fails.
package checks
