package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonwraymond/stackcheck/probe"
)

func newProber() *probe.Prober {
	return probe.New(probe.Config{Timeout: 2 * time.Second})
}

func TestHTTPChecker_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPChecker("api", srv.URL, newProber())
	result := c.Check(context.Background())

	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy (%s)", result.Status, result.Message)
	}
	if result.Details["status_code"] != http.StatusOK {
		t.Errorf("status_code = %v, want 200", result.Details["status_code"])
	}
	if c.Name() != "api" || c.URL() != srv.URL {
		t.Errorf("Name/URL = %s/%s", c.Name(), c.URL())
	}
}

func TestHTTPChecker_NotFoundIsStillReachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	result := NewHTTPChecker("web", srv.URL, newProber()).Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
}

func TestHTTPChecker_ServerErrorIsDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	result := NewHTTPChecker("api", srv.URL, newProber()).Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("Status = %v, want StatusDegraded", result.Status)
	}
	if !errors.Is(result.Error, ErrServerError) {
		t.Errorf("Error = %v, want ErrServerError", result.Error)
	}
}

func TestHTTPChecker_UnreachableIsUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	result := NewHTTPChecker("api", url, newProber()).Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want StatusUnhealthy", result.Status)
	}
	if !errors.Is(result.Error, probe.ErrNetwork) {
		t.Errorf("Error = %v, want probe.ErrNetwork", result.Error)
	}
}

func TestHTTPChecker_ThroughAggregator(t *testing.T) {
	up := httptest.NewServer(http.NotFoundHandler())
	defer up.Close()
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	agg := NewAggregator(AggregatorConfig{Timeout: 5 * time.Second, Parallel: true})
	agg.Register("api", NewHTTPChecker("api", up.URL, newProber()))
	agg.Register("web", NewHTTPChecker("web", downURL, newProber()))

	results := agg.CheckAll(context.Background())
	if results[0].Result.Status != StatusHealthy {
		t.Errorf("api = %v, want healthy", results[0].Result.Status)
	}
	if results[1].Result.Status != StatusUnhealthy {
		t.Errorf("web = %v, want unhealthy", results[1].Result.Status)
	}
	if OverallStatus(results) != StatusUnhealthy {
		t.Error("overall should be unhealthy")
	}
}
