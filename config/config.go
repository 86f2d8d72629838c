package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/stackcheck/secret"
)

// Defaults.
const (
	DefaultAPIURL          = "http://localhost:8000"
	DefaultWebURL          = "http://localhost:3000"
	DefaultTimeout         = 10 * time.Second
	DefaultRetryCount      = 3
	DefaultRetryDelay      = 2 * time.Second
	DefaultCIRetryCount    = 5
	DefaultCIRetryDelay    = 5 * time.Second
	DefaultMaxResponseTime = 5 * time.Second
	DefaultConcurrency     = 5
	DefaultTimestampSkew   = 60 * time.Second
	DefaultLogLevel        = "warn"
)

// Command targets.
const (
	TargetAPI  = "api"
	TargetWeb  = "web"
	TargetLint = "lint"
)

var validTargets = []string{TargetAPI, TargetWeb, TargetLint, ""}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Command is an external test command run as a suite.
type Command struct {
	Name     string            `yaml:"name"`
	Command  string            `yaml:"command"`
	WorkDir  string            `yaml:"workdir"`
	Env      map[string]string `yaml:"env"`
	Target   string            `yaml:"target"` // api|web|lint, empty for general
	Required bool              `yaml:"required"`
	Timeout  time.Duration     `yaml:"-"`

	TimeoutMS int `yaml:"timeout_ms"`
}

// ToolRequirement is a tool whose version the platform suite checks.
type ToolRequirement struct {
	Name       string `yaml:"name"`
	Command    string `yaml:"command"`    // e.g. "node --version"
	Constraint string `yaml:"constraint"` // e.g. ">= 18"
}

// Config is the run configuration.
type Config struct {
	APIURL          string
	WebURL          string
	Timeout         time.Duration
	RetryCount      int
	RetryDelay      time.Duration
	MaxResponseTime time.Duration
	Concurrency     int

	// TimestampSkew bounds how far a health timestamp may be from now.
	// Zero disables the check.
	TimestampSkew time.Duration

	APIToken  string
	JWTSecret string

	CI              bool
	LogLevel        string
	TraceExporter   string
	MetricsExporter string

	Commands []Command
	Tools    []ToolRequirement
}

// fileConfig is the YAML document shape.
type fileConfig struct {
	APIURL          string            `yaml:"api_url"`
	WebURL          string            `yaml:"web_url"`
	TimeoutMS       int               `yaml:"timeout_ms"`
	RetryCount      int               `yaml:"retry_count"`
	RetryDelayMS    *int              `yaml:"retry_delay_ms"`
	MaxResponseMS   int               `yaml:"max_response_ms"`
	Concurrency     int               `yaml:"concurrency"`
	TimestampSkewMS *int              `yaml:"timestamp_skew_ms"`
	APIToken        string            `yaml:"api_token"`
	JWTSecret       string            `yaml:"jwt_secret"`
	CI              bool              `yaml:"ci"`
	LogLevel        string            `yaml:"log_level"`
	TraceExporter   string            `yaml:"trace_exporter"`
	MetricsExporter string            `yaml:"metrics_exporter"`
	Commands        []Command         `yaml:"commands"`
	Tools           []ToolRequirement `yaml:"tools"`
}

// Options controls Load.
type Options struct {
	// Path is an optional YAML file. Empty means no file.
	Path string

	// Lookup reads the environment. Default: os.LookupEnv
	Lookup func(string) (string, bool)

	// Resolver resolves secretref values. Default: secret.DefaultResolver(Lookup)
	Resolver *secret.Resolver

	// ForceCI enables CI defaults regardless of the environment.
	ForceCI bool
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		APIURL:          DefaultAPIURL,
		WebURL:          DefaultWebURL,
		Timeout:         DefaultTimeout,
		RetryCount:      DefaultRetryCount,
		RetryDelay:      DefaultRetryDelay,
		MaxResponseTime: DefaultMaxResponseTime,
		Concurrency:     DefaultConcurrency,
		TimestampSkew:   DefaultTimestampSkew,
		LogLevel:        DefaultLogLevel,
	}
}

// Load builds and validates a Config.
func Load(ctx context.Context, opts Options) (*Config, error) {
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}
	if opts.Resolver == nil {
		opts.Resolver = secret.DefaultResolver(opts.Lookup)
	}

	cfg := Defaults()
	var retryCountSet, retryDelaySet bool

	if opts.Path != "" {
		fc, err := readFile(opts.Path, opts.Lookup)
		if err != nil {
			return nil, err
		}
		retryCountSet = fc.RetryCount != 0
		retryDelaySet = fc.RetryDelayMS != nil
		cfg.applyFile(fc)
	}

	countSet, delaySet, err := cfg.applyEnv(opts.Lookup)
	if err != nil {
		return nil, err
	}
	retryCountSet = retryCountSet || countSet
	retryDelaySet = retryDelaySet || delaySet

	if opts.ForceCI {
		cfg.CI = true
	}
	if cfg.CI {
		if !retryCountSet {
			cfg.RetryCount = DefaultCIRetryCount
		}
		if !retryDelaySet {
			cfg.RetryDelay = DefaultCIRetryDelay
		}
	}

	if cfg.APIToken, err = opts.Resolver.ResolveValue(ctx, cfg.APIToken); err != nil {
		return nil, fmt.Errorf("config: api token: %w", err)
	}
	if cfg.JWTSecret, err = opts.Resolver.ResolveValue(ctx, cfg.JWTSecret); err != nil {
		return nil, fmt.Errorf("config: jwt secret: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string, lookup secret.LookupFunc) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded, err := secret.Expand(string(data), lookup)
	if err != nil {
		return nil, fmt.Errorf("config: expand %s: %w", path, err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &fc, nil
}

func (c *Config) applyFile(fc *fileConfig) {
	if fc.APIURL != "" {
		c.APIURL = fc.APIURL
	}
	if fc.WebURL != "" {
		c.WebURL = fc.WebURL
	}
	if fc.TimeoutMS != 0 {
		c.Timeout = ms(fc.TimeoutMS)
	}
	if fc.RetryCount != 0 {
		c.RetryCount = fc.RetryCount
	}
	if fc.RetryDelayMS != nil {
		c.RetryDelay = ms(*fc.RetryDelayMS)
	}
	if fc.MaxResponseMS != 0 {
		c.MaxResponseTime = ms(fc.MaxResponseMS)
	}
	if fc.Concurrency != 0 {
		c.Concurrency = fc.Concurrency
	}
	if fc.TimestampSkewMS != nil {
		c.TimestampSkew = ms(*fc.TimestampSkewMS)
	}
	if fc.APIToken != "" {
		c.APIToken = fc.APIToken
	}
	if fc.JWTSecret != "" {
		c.JWTSecret = fc.JWTSecret
	}
	c.CI = c.CI || fc.CI
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.TraceExporter != "" {
		c.TraceExporter = fc.TraceExporter
	}
	if fc.MetricsExporter != "" {
		c.MetricsExporter = fc.MetricsExporter
	}
	for _, cmd := range fc.Commands {
		cmd.Timeout = ms(cmd.TimeoutMS)
		c.Commands = append(c.Commands, cmd)
	}
	c.Tools = append(c.Tools, fc.Tools...)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) (retryCountSet, retryDelaySet bool, err error) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, apply func(int)) (bool, error) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return false, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v)
		}
		apply(n)
		return true, nil
	}

	str("API_URL", &c.APIURL)
	str("WEB_URL", &c.WebURL)
	str("STACKCHECK_API_TOKEN", &c.APIToken)
	str("STACKCHECK_JWT_SECRET", &c.JWTSecret)
	str("STACKCHECK_LOG_LEVEL", &c.LogLevel)
	str("STACKCHECK_TRACE_EXPORTER", &c.TraceExporter)
	str("STACKCHECK_METRICS_EXPORTER", &c.MetricsExporter)
	if v, ok := lookup("CI"); ok && v != "" && v != "false" && v != "0" {
		c.CI = true
	}

	if _, err = num("STACKCHECK_TIMEOUT_MS", func(n int) { c.Timeout = ms(n) }); err != nil {
		return
	}
	if retryCountSet, err = num("STACKCHECK_RETRY_COUNT", func(n int) { c.RetryCount = n }); err != nil {
		return
	}
	if retryDelaySet, err = num("STACKCHECK_RETRY_DELAY_MS", func(n int) { c.RetryDelay = ms(n) }); err != nil {
		return
	}
	if _, err = num("STACKCHECK_MAX_RESPONSE_MS", func(n int) { c.MaxResponseTime = ms(n) }); err != nil {
		return
	}
	if _, err = num("STACKCHECK_CONCURRENCY", func(n int) { c.Concurrency = n }); err != nil {
		return
	}
	_, err = num("STACKCHECK_TIMESTAMP_SKEW_MS", func(n int) { c.TimestampSkew = ms(n) })
	return
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if err := validateURL(c.APIURL); err != nil {
		bad("api_url %q: %v", c.APIURL, err)
	}
	if err := validateURL(c.WebURL); err != nil {
		bad("web_url %q: %v", c.WebURL, err)
	}
	if c.Timeout <= 0 {
		bad("timeout must be positive, got %v", c.Timeout)
	}
	if c.RetryCount < 1 {
		bad("retry count must be at least 1, got %d", c.RetryCount)
	}
	if c.RetryDelay < 0 {
		bad("retry delay must not be negative, got %v", c.RetryDelay)
	}
	if c.MaxResponseTime <= 0 {
		bad("max response time must be positive, got %v", c.MaxResponseTime)
	}
	if c.Concurrency < 1 {
		bad("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.TimestampSkew < 0 {
		bad("timestamp skew must not be negative, got %v", c.TimestampSkew)
	}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		bad("log level %q", c.LogLevel)
	}

	seen := make(map[string]bool, len(c.Commands))
	for i, cmd := range c.Commands {
		switch {
		case strings.TrimSpace(cmd.Name) == "":
			bad("commands[%d]: name is required", i)
		case seen[cmd.Name]:
			bad("commands[%d]: duplicate name %q", i, cmd.Name)
		}
		seen[cmd.Name] = true
		if strings.TrimSpace(cmd.Command) == "" {
			bad("command %q: command line is required", cmd.Name)
		}
		if !slices.Contains(validTargets, cmd.Target) {
			bad("command %q: unknown target %q", cmd.Name, cmd.Target)
		}
		if cmd.Timeout < 0 {
			bad("command %q: timeout must not be negative", cmd.Name)
		}
	}

	for i, tool := range c.Tools {
		if strings.TrimSpace(tool.Name) == "" || strings.TrimSpace(tool.Command) == "" {
			bad("tools[%d]: name and command are required", i)
		}
		if tool.Constraint == "" {
			continue
		}
		if _, err := version.NewConstraint(tool.Constraint); err != nil {
			bad("tool %q: constraint %q: %v", tool.Name, tool.Constraint, err)
		}
	}

	return errors.Join(errs...)
}

// CommandsFor returns the commands with the given target, in file order.
func (c *Config) CommandsFor(target string) []Command {
	var out []Command
	for _, cmd := range c.Commands {
		if cmd.Target == target {
			out = append(out, cmd)
		}
	}
	return out
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
