// Package health runs best-effort reachability checks against the services a
// stackcheck run depends on.
//
// A Checker reports a Status (Healthy, Degraded or Unhealthy) for one
// component. The Aggregator runs a set of checkers, in parallel by default,
// and returns their results in registration order:
//
//	agg := health.NewAggregator(health.AggregatorConfig{Timeout: 5 * time.Second, Parallel: true})
//	agg.Register("api", health.NewHTTPChecker("api", apiURL, prober))
//	agg.Register("web", health.NewHTTPChecker("web", webURL, prober))
//
//	results := agg.CheckAll(ctx)
//	overall := health.OverallStatus(results)
//
// Preflight results are diagnostics only; they never change a run's verdict.
package health
