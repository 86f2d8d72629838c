package checks

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/stackcheck/probe"
	"github.com/jonwraymond/stackcheck/suite"
)

// timestampLayouts are accepted for the timestamp field of health payloads.
// The second form carries no offset and is read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, probe.Failf("field %q: unparseable timestamp %q", "timestamp", s)
}

// checkSkew fails when ts is more than limit away from now. Zero limit disables it.
func checkSkew(ts time.Time, limit time.Duration) error {
	if limit <= 0 {
		return nil
	}
	d := time.Since(ts)
	if d < 0 {
		d = -d
	}
	if d > limit {
		return probe.Failf("field %q: timestamp %s is %s from now, limit %s",
			"timestamp", ts.Format(time.RFC3339), d.Round(time.Second), limit)
	}
	return nil
}

// getJSON fetches url and decodes a JSON object, requiring the given status
// and an application/json content type.
func getJSON(ctx context.Context, p *probe.Prober, method, url string, status int) (*probe.Response, map[string]any, error) {
	resp, err := p.Do(ctx, method, url, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := probe.ExpectStatus(resp, status); err != nil {
		return resp, nil, err
	}
	if err := probe.ExpectContentType(resp, "application/json"); err != nil {
		return resp, nil, err
	}
	data, err := probe.DecodeJSON(resp)
	if err != nil {
		return resp, nil, err
	}
	return resp, data, nil
}

// APIHealth checks GET /health.
func (c *Checks) APIHealth(ctx context.Context) (suite.Details, error) {
	resp, data, err := getJSON(ctx, c.opts.Prober, http.MethodGet, c.api("/health"), http.StatusOK)
	if err != nil {
		return nil, err
	}
	if err := probe.ExpectString(data, "status", "ok"); err != nil {
		return nil, err
	}
	if _, ok := data["timestamp"]; ok {
		ts, err := probe.StringField(data, "timestamp")
		if err != nil {
			return nil, err
		}
		parsed, err := parseTimestamp(ts)
		if err != nil {
			return nil, err
		}
		if err := checkSkew(parsed, c.opts.TimestampSkew); err != nil {
			return nil, err
		}
	}
	return timing(resp), nil
}

// APIDetailedHealth checks GET /health/detailed.
func (c *Checks) APIDetailedHealth(ctx context.Context) (suite.Details, error) {
	resp, data, err := getJSON(ctx, c.opts.Prober, http.MethodGet, c.api("/health/detailed"), http.StatusOK)
	if err != nil {
		return nil, err
	}
	if err := probe.RequireFields(data, "status", "timestamp", "version", "services"); err != nil {
		return nil, err
	}
	status, err := probe.StringField(data, "status")
	if err != nil {
		return nil, err
	}
	if status != "healthy" && status != "ok" {
		return nil, probe.Failf("field %q: expected healthy, got %q", "status", status)
	}
	services, err := probe.Object(data, "services")
	if err != nil {
		return nil, err
	}
	if err := probe.ExpectString(services, "api", "running"); err != nil {
		return nil, err
	}
	if err := probe.RequireFields(services, "database"); err != nil {
		return nil, err
	}

	details := timing(resp)
	details["version"] = data["version"]
	return details, nil
}

// APIResponseTime fails when GET /health takes longer than MaxResponseTime.
func (c *Checks) APIResponseTime(ctx context.Context) (suite.Details, error) {
	resp, err := c.opts.Prober.Get(ctx, c.api("/health"))
	if err != nil {
		return nil, err
	}
	if err := probe.ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	if resp.Duration > c.opts.MaxResponseTime {
		return nil, probe.Failf("response took %dms, limit %dms",
			resp.Duration.Milliseconds(), c.opts.MaxResponseTime.Milliseconds())
	}
	return timing(resp), nil
}

// APIStatus checks GET /api/status.
func (c *Checks) APIStatus(ctx context.Context) (suite.Details, error) {
	resp, data, err := getJSON(ctx, c.opts.Prober, http.MethodGet, c.api("/api/status"), http.StatusOK)
	if err != nil {
		return nil, err
	}
	env, err := probe.StringField(data, "environment")
	if err != nil {
		return nil, err
	}
	if err := probe.ExpectList(data, "cors_origins"); err != nil {
		return nil, err
	}
	if err := probe.ExpectList(data, "allowed_hosts"); err != nil {
		return nil, err
	}
	if _, ok := data["api_status"]; ok {
		if err := probe.ExpectString(data, "api_status", "operational"); err != nil {
			return nil, err
		}
	}

	details := timing(resp)
	details["environment"] = env
	return details, nil
}

// APIDocs checks that GET /docs serves the Swagger UI.
func (c *Checks) APIDocs(ctx context.Context) (suite.Details, error) {
	return c.html(ctx, c.api("/docs"), "Swagger UI", "openapi.json")
}

// APIRedoc checks that GET /redoc serves ReDoc.
func (c *Checks) APIRedoc(ctx context.Context) (suite.Details, error) {
	return c.html(ctx, c.api("/redoc"), "ReDoc")
}

func (c *Checks) html(ctx context.Context, url string, markers ...string) (suite.Details, error) {
	resp, err := c.opts.Prober.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := probe.ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	if err := probe.ExpectContentType(resp, "text/html"); err != nil {
		return nil, err
	}
	if err := probe.ExpectBodyContains(resp, markers...); err != nil {
		return nil, err
	}
	return timing(resp), nil
}

// documentedPaths must appear in the OpenAPI schema.
var documentedPaths = []string{"/health", "/health/detailed", "/api/status"}

// OpenAPISchema checks GET /openapi.json.
func (c *Checks) OpenAPISchema(ctx context.Context) (suite.Details, error) {
	resp, data, err := getJSON(ctx, c.opts.Prober, http.MethodGet, c.api("/openapi.json"), http.StatusOK)
	if err != nil {
		return nil, err
	}
	if err := probe.RequireFields(data, "openapi", "info", "paths"); err != nil {
		return nil, err
	}
	ver, err := probe.StringField(data, "openapi")
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(ver, "3.") {
		return nil, probe.Failf("field %q: expected 3.x, got %q", "openapi", ver)
	}
	paths, err := probe.Object(data, "paths")
	if err != nil {
		return nil, err
	}
	for _, p := range documentedPaths {
		if _, ok := paths[p]; !ok {
			return nil, probe.Failf("openapi schema does not document %s", p)
		}
	}

	details := timing(resp)
	details["openapi"] = ver
	details["paths"] = len(paths)
	return details, nil
}

// APIRoot checks GET / on the API.
func (c *Checks) APIRoot(ctx context.Context) (suite.Details, error) {
	resp, data, err := getJSON(ctx, c.opts.Prober, http.MethodGet, c.api("/"), http.StatusOK)
	if err != nil {
		return nil, err
	}
	if err := probe.RequireFields(data, "version"); err != nil {
		return nil, err
	}
	details := timing(resp)
	details["version"] = data["version"]
	return details, nil
}

// NotFound checks that unknown routes yield a JSON 404.
func (c *Checks) NotFound(ctx context.Context) (suite.Details, error) {
	return c.errorDetail(ctx, http.MethodGet, c.api("/nonexistent-endpoint"), http.StatusNotFound)
}

// MethodNotAllowed checks that POST /health yields a JSON 405.
func (c *Checks) MethodNotAllowed(ctx context.Context) (suite.Details, error) {
	return c.errorDetail(ctx, http.MethodPost, c.api("/health"), http.StatusMethodNotAllowed)
}

func (c *Checks) errorDetail(ctx context.Context, method, url string, status int) (suite.Details, error) {
	resp, data, err := getJSON(ctx, c.opts.Prober, method, url, status)
	if err != nil {
		return nil, err
	}
	if err := probe.RequireFields(data, "detail"); err != nil {
		return nil, err
	}
	return timing(resp), nil
}

type contentTypeCase struct {
	path string
	want string
}

var contentTypeTable = []contentTypeCase{
	{"/health", "application/json"},
	{"/health/detailed", "application/json"},
	{"/api/status", "application/json"},
	{"/docs", "text/html"},
	{"/", "application/json"},
}

// ContentTypes checks the content type of each documented endpoint.
func (c *Checks) ContentTypes(ctx context.Context) (suite.Details, error) {
	for _, tc := range contentTypeTable {
		resp, err := c.opts.Prober.Get(ctx, c.api(tc.path))
		if err != nil {
			return nil, err
		}
		if err := probe.ExpectStatus(resp, http.StatusOK); err != nil {
			return nil, probe.Failf("%s: %v", tc.path, err)
		}
		if err := probe.ExpectContentType(resp, tc.want); err != nil {
			return nil, probe.Failf("%s: %v", tc.path, err)
		}
	}
	return suite.Details{"endpoints": len(contentTypeTable)}, nil
}

// CORSPreflight sends GET /health from the web origin.
func (c *Checks) CORSPreflight(ctx context.Context) (suite.Details, error) {
	origin := c.opts.WebURL
	header := http.Header{}
	header.Set("Origin", origin)

	resp, err := c.opts.Prober.Do(ctx, http.MethodGet, c.api("/health"), header)
	if err != nil {
		return nil, err
	}
	if err := probe.ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	details := timing(resp)
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		if got != origin {
			return nil, probe.Failf("expected Access-Control-Allow-Origin %q, got %q", origin, got)
		}
		details["allow_origin"] = got
	}
	return details, nil
}

// ProtectedEndpoint checks that GET /api/protected rejects anonymous
// requests and, when credentials are configured, accepts authenticated ones.
func (c *Checks) ProtectedEndpoint(ctx context.Context) (suite.Details, error) {
	url := c.api("/api/protected")
	resp, err := c.opts.Prober.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := probe.ExpectStatus(resp, http.StatusUnauthorized, http.StatusForbidden); err != nil {
		return nil, err
	}

	details := suite.Details{"anonymous_status": resp.StatusCode}
	if c.opts.AuthProber == nil {
		details["authenticated"] = "skipped"
		return details, nil
	}

	resp, err = c.opts.AuthProber.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := probe.ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, probe.Failf("authenticated request: %v", err)
	}
	details["authenticated"] = "ok"
	return details, nil
}

// ConcurrentRequests issues parallel GET /health probes bounded by the
// worker limit. All must return 200 within the total budget.
func (c *Checks) ConcurrentRequests(parent context.Context) (suite.Details, error) {
	ctx, cancel := context.WithTimeout(parent, c.opts.ConcurrentBudget)
	defer cancel()

	url := c.api("/health")
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i := 0; i < c.opts.ConcurrentRequests; i++ {
		g.Go(func() error {
			resp, err := c.opts.Prober.Get(gctx, url)
			if err != nil {
				return err
			}
			return probe.ExpectStatus(resp, http.StatusOK)
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
			return nil, probe.Failf("%d requests exceeded the %dms budget",
				c.opts.ConcurrentRequests, c.opts.ConcurrentBudget.Milliseconds())
		}
		return nil, err
	}

	elapsed := time.Since(start)
	if elapsed > c.opts.ConcurrentBudget {
		return nil, probe.Failf("%d requests took %dms, limit %dms",
			c.opts.ConcurrentRequests, elapsed.Milliseconds(), c.opts.ConcurrentBudget.Milliseconds())
	}
	return suite.Details{
		"requests": c.opts.ConcurrentRequests,
		"workers":  c.opts.Concurrency,
		"total_ms": elapsed.Milliseconds(),
	}, nil
}
