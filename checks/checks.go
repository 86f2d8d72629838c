package checks

import (
	"net/http"
	"strings"
	"time"

	"github.com/jonwraymond/stackcheck/auth"
	"github.com/jonwraymond/stackcheck/config"
	"github.com/jonwraymond/stackcheck/probe"
	"github.com/jonwraymond/stackcheck/suite"
)

// Suite names.
const (
	SuiteHealth      = "health"
	SuiteCIHealth    = "ci-health"
	SuiteIntegration = "integration"
	SuitePlatform    = "platform"
)

// Defaults.
const (
	DefaultConcurrency        = 5
	DefaultConcurrentRequests = 10
	DefaultConcurrentBudget   = 30 * time.Second
	DefaultMaxResponseTime    = 5 * time.Second
	DefaultToolTimeout        = 30 * time.Second
)

// Options configures Checks.
type Options struct {
	APIURL string
	WebURL string

	// Prober issues anonymous probes.
	Prober *probe.Prober

	// AuthProber issues probes carrying credentials. Nil when none are
	// configured; the protected endpoint case then only checks rejection.
	AuthProber *probe.Prober

	// MaxResponseTime bounds the api response time case.
	MaxResponseTime time.Duration

	// Concurrency is the worker limit of the concurrent requests case.
	Concurrency int

	// ConcurrentRequests is how many requests that case issues.
	ConcurrentRequests int

	// ConcurrentBudget bounds the wall time of that case.
	ConcurrentBudget time.Duration

	// TimestampSkew bounds the distance between a /health timestamp and
	// the local clock. Zero accepts any parseable timestamp.
	TimestampSkew time.Duration

	// Tools are checked by the platform suite.
	Tools []config.ToolRequirement

	// ToolTimeout bounds each version command.
	ToolTimeout time.Duration
}

// Checks builds the built-in suites.
type Checks struct {
	opts Options
}

// New creates Checks. A nil Prober gets a default one.
func New(opts Options) *Checks {
	if opts.Prober == nil {
		opts.Prober = probe.New(probe.Config{})
	}
	if opts.MaxResponseTime <= 0 {
		opts.MaxResponseTime = DefaultMaxResponseTime
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.ConcurrentRequests <= 0 {
		opts.ConcurrentRequests = DefaultConcurrentRequests
	}
	if opts.ConcurrentBudget <= 0 {
		opts.ConcurrentBudget = DefaultConcurrentBudget
	}
	if opts.ToolTimeout <= 0 {
		opts.ToolTimeout = DefaultToolTimeout
	}
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	opts.WebURL = strings.TrimRight(opts.WebURL, "/")
	return &Checks{opts: opts}
}

// FromConfig builds Checks from the run configuration. base is the
// underlying transport (nil for http.DefaultTransport). A configured API
// token is used as is; otherwise a JWT secret mints short-lived tokens.
func FromConfig(cfg *config.Config, base http.RoundTripper) *Checks {
	opts := Options{
		APIURL:          cfg.APIURL,
		WebURL:          cfg.WebURL,
		Prober:          probe.New(probe.Config{Timeout: cfg.Timeout, Transport: base}),
		MaxResponseTime: cfg.MaxResponseTime,
		Concurrency:     cfg.Concurrency,
		TimestampSkew:   cfg.TimestampSkew,
		Tools:           cfg.Tools,
	}
	if src := TokenSource(cfg); src != nil {
		opts.AuthProber = probe.New(probe.Config{
			Timeout:   cfg.Timeout,
			Transport: &auth.Transport{Source: src, Base: base},
		})
	}
	return New(opts)
}

// TokenSource returns the credential source configured in cfg, or nil.
func TokenSource(cfg *config.Config) auth.TokenSource {
	switch {
	case cfg.APIToken != "":
		return auth.StaticToken(cfg.APIToken)
	case cfg.JWTSecret != "":
		return auth.NewJWTSource(auth.JWTConfig{Secret: []byte(cfg.JWTSecret)})
	default:
		return nil
	}
}

func (c *Checks) api(path string) string {
	return c.opts.APIURL + path
}

func (c *Checks) web(path string) string {
	return c.opts.WebURL + path
}

// HealthSuite checks the basic liveness of both services.
func (c *Checks) HealthSuite() suite.Suite {
	return suite.Suite{Name: SuiteHealth, Cases: c.healthCases()}
}

// CIHealthSuite is HealthSuite plus a response time bound.
func (c *Checks) CIHealthSuite() suite.Suite {
	cases := append(c.healthCases(), suite.Case{Name: "api response time", Target: suite.TargetAPI, Fn: c.APIResponseTime})
	return suite.Suite{Name: SuiteCIHealth, Cases: cases}
}

func (c *Checks) healthCases() []suite.Case {
	return []suite.Case{
		{Name: "api health", Target: suite.TargetAPI, Fn: c.APIHealth},
		{Name: "api detailed health", Target: suite.TargetAPI, Fn: c.APIDetailedHealth},
		{Name: "web root", Target: suite.TargetWeb, Fn: c.WebRoot},
	}
}

// IntegrationSuite exercises the API's documented HTTP surface.
func (c *Checks) IntegrationSuite() suite.Suite {
	return suite.Suite{Name: SuiteIntegration, Cases: []suite.Case{
		{Name: "api status", Target: suite.TargetAPI, Fn: c.APIStatus},
		{Name: "api docs", Target: suite.TargetAPI, Fn: c.APIDocs},
		{Name: "api redoc", Target: suite.TargetAPI, Fn: c.APIRedoc},
		{Name: "openapi schema", Target: suite.TargetAPI, Fn: c.OpenAPISchema},
		{Name: "api root", Target: suite.TargetAPI, Fn: c.APIRoot},
		{Name: "not found", Target: suite.TargetAPI, Fn: c.NotFound},
		{Name: "method not allowed", Target: suite.TargetAPI, Fn: c.MethodNotAllowed},
		{Name: "content types", Target: suite.TargetAPI, Fn: c.ContentTypes},
		{Name: "cors preflight", Target: suite.TargetAPI, Fn: c.CORSPreflight},
		{Name: "protected endpoint", Target: suite.TargetAPI, Fn: c.ProtectedEndpoint},
		{Name: "concurrent requests", Target: suite.TargetAPI, Fn: c.ConcurrentRequests},
	}}
}

// PlatformSuite reports the host platform and checks tool versions.
func (c *Checks) PlatformSuite() suite.Suite {
	cases := []suite.Case{{Name: "platform info", Fn: PlatformInfo}}
	for _, tool := range c.opts.Tools {
		cases = append(cases, suite.Case{Name: tool.Name + " version", Fn: c.ToolVersion(tool)})
	}
	return suite.Suite{Name: SuitePlatform, Cases: cases}
}

func timing(resp *probe.Response) suite.Details {
	return suite.Details{"response_ms": resp.Duration.Milliseconds()}
}
