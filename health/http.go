package health

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonwraymond/stackcheck/probe"
)

// Getter issues a single GET. *probe.Prober satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) (*probe.Response, error)
}

// HTTPChecker checks that a service answers HTTP at a URL.
//
// Any status below 500 is healthy: the service is up even if the path is not
// routed. A 5xx is degraded and a transport failure is unhealthy.
type HTTPChecker struct {
	name   string
	url    string
	getter Getter
}

// NewHTTPChecker creates a checker probing url through getter.
func NewHTTPChecker(name, url string, getter Getter) *HTTPChecker {
	return &HTTPChecker{name: name, url: url, getter: getter}
}

// Name returns the name of this checker.
func (c *HTTPChecker) Name() string {
	return c.name
}

// URL returns the probed URL.
func (c *HTTPChecker) URL() string {
	return c.url
}

// Check performs one GET against the service.
func (c *HTTPChecker) Check(ctx context.Context) Result {
	resp, err := c.getter.Get(ctx, c.url)
	if err != nil {
		return Unhealthy(fmt.Sprintf("%s unreachable at %s", c.name, c.url), err).
			WithDetails(map[string]any{"url": c.url})
	}

	details := map[string]any{
		"url":         c.url,
		"status_code": resp.StatusCode,
		"response_ms": resp.Duration.Milliseconds(),
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		r := Degraded(fmt.Sprintf("%s answered %d", c.name, resp.StatusCode)).WithDetails(details)
		r.Error = fmt.Errorf("%w: %d", ErrServerError, resp.StatusCode)
		return r
	}
	return Healthy(fmt.Sprintf("%s reachable", c.name)).WithDetails(details)
}
