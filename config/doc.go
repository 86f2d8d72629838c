// Package config builds the immutable run configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then the
// environment. The CLI applies its flags through Options before validation.
// Once Load returns, the Config is passed explicitly and never mutated.
//
// Environment variables:
//
//	API_URL                      API base URL (default http://localhost:8000)
//	WEB_URL                      web base URL (default http://localhost:3000)
//	STACKCHECK_TIMEOUT_MS        per-probe timeout (default 10000)
//	STACKCHECK_RETRY_COUNT       attempts per case (default 3, CI 5)
//	STACKCHECK_RETRY_DELAY_MS    delay between attempts (default 2000, CI 5000)
//	STACKCHECK_MAX_RESPONSE_MS   response time budget (default 5000)
//	STACKCHECK_CONCURRENCY       worker limit of the concurrent case (default 5)
//	STACKCHECK_TIMESTAMP_SKEW_MS allowed /health timestamp drift, 0 disables (default 60000)
//	STACKCHECK_API_TOKEN         bearer token, may be a secretref
//	STACKCHECK_JWT_SECRET        HS256 key used when no token is set, may be a secretref
//	STACKCHECK_LOG_LEVEL         debug|info|warn|error (default warn)
//	STACKCHECK_TRACE_EXPORTER    stdout|otlp|jaeger|none
//	STACKCHECK_METRICS_EXPORTER  stdout|otlp|prometheus|none
//	CI                           any non-empty value enables CI defaults
package config
