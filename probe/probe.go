package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout is the per-probe budget when none is configured.
const DefaultTimeout = 10 * time.Second

// maxBodySize bounds how much of a response body is retained.
const maxBodySize = 4 << 20

// Response is the observed result of a single HTTP call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// ContentType returns the response Content-Type header.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Config configures a Prober.
type Config struct {
	// Timeout is the wall-clock budget for one request, body included.
	// Default: 10 seconds
	Timeout time.Duration

	// Transport is the round tripper used for requests.
	// Default: http.DefaultTransport
	Transport http.RoundTripper

	// UserAgent is sent with every request.
	// Default: "stackcheck"
	UserAgent string

	// NoRedirects returns 3xx responses as observed instead of following
	// them. By default up to 10 redirects are followed.
	NoRedirects bool
}

// Prober issues single timed HTTP requests. It never retries.
type Prober struct {
	config Config
	client *http.Client
}

// New creates a Prober.
func New(config Config) *Prober {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Transport == nil {
		config.Transport = http.DefaultTransport
	}
	if config.UserAgent == "" {
		config.UserAgent = "stackcheck"
	}

	client := &http.Client{Transport: config.Transport}
	if config.NoRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return &Prober{config: config, client: client}
}

// Timeout returns the per-probe budget.
func (p *Prober) Timeout() time.Duration {
	return p.config.Timeout
}

// Get issues a GET request to url.
func (p *Prober) Get(ctx context.Context, url string) (*Response, error) {
	return p.Do(ctx, http.MethodGet, url, nil)
}

// Do issues one request with the given method and extra headers.
func (p *Prober) Do(ctx context.Context, method, url string, header http.Header) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("probe: build request: %w", err)
	}
	req.Header.Set("User-Agent", p.config.UserAgent)
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, p.classify(ctx, method, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, p.classify(ctx, method, url, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Duration:   time.Since(start),
	}, nil
}

func (p *Prober) classify(ctx context.Context, method, url string, err error) error {
	// The parent context being cancelled is not a timeout of this probe.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
		return &TimeoutError{Method: method, URL: url, Timeout: p.config.Timeout}
	}
	return &NetworkError{Method: method, URL: url, Err: err}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
