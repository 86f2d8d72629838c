package health

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStatus_NamesAndMarks(t *testing.T) {
	tests := []struct {
		status Status
		name   string
		mark   string
	}{
		{StatusHealthy, "healthy", "●"},
		{StatusDegraded, "degraded", "○"},
		{StatusUnhealthy, "unhealthy", "○"},
		{Status(-1), "unknown", "○"},
		{Status(7), "unknown", "○"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.status.Mark(); got != tt.mark {
				t.Errorf("Mark() = %q, want %q", got, tt.mark)
			}
		})
	}
}

func TestStatus_OrderIsSeverity(t *testing.T) {
	if !(StatusHealthy < StatusDegraded && StatusDegraded < StatusUnhealthy) {
		t.Fatal("statuses must be ordered healthy < degraded < unhealthy")
	}
}

func TestResultConstructors(t *testing.T) {
	refused := errors.New("connection refused")
	tests := []struct {
		name   string
		result Result
		status Status
		ok     bool
		err    error
	}{
		{"healthy", Healthy("api reachable"), StatusHealthy, true, nil},
		{"degraded", Degraded("api answered 502"), StatusDegraded, false, nil},
		{"unhealthy", Unhealthy("api unreachable", refused), StatusUnhealthy, false, refused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.status {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.status)
			}
			if tt.result.OK() != tt.ok {
				t.Errorf("OK() = %v, want %v", tt.result.OK(), tt.ok)
			}
			if tt.result.Error != tt.err {
				t.Errorf("Error = %v, want %v", tt.result.Error, tt.err)
			}
			if tt.result.Timestamp.IsZero() {
				t.Error("Timestamp should be set")
			}
		})
	}
}

func TestResult_Summary(t *testing.T) {
	if got := Degraded("api answered 503").Summary(); got != "api answered 503" {
		t.Errorf("Summary() = %q", got)
	}
	if got := (Result{Status: StatusUnhealthy}).Summary(); got != "unhealthy" {
		t.Errorf("Summary() without message = %q, want unhealthy", got)
	}
}

func TestResult_Builders(t *testing.T) {
	r := Healthy("ok").
		WithDetails(map[string]any{"status_code": 200}).
		WithDuration(15 * time.Millisecond)

	if r.Details["status_code"] != 200 {
		t.Errorf("Details[status_code] = %v", r.Details["status_code"])
	}
	if r.Duration != 15*time.Millisecond {
		t.Errorf("Duration = %v", r.Duration)
	}
}

func TestResult_MarshalJSON(t *testing.T) {
	r := Unhealthy("web unreachable", errors.New("dial tcp: refused")).WithDuration(time.Millisecond)
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"status":"unhealthy"`, `"error":"dial tcp: refused"`, `"duration_ns":1000000`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON %s missing %s", s, want)
		}
	}

	b, _ = json.Marshal(Healthy("fine"))
	if strings.Contains(string(b), `"error"`) {
		t.Errorf("healthy result should omit error: %s", b)
	}
}

func TestCheckerFunc_PassesContext(t *testing.T) {
	checker := NewCheckerFunc("web", func(ctx context.Context) Result {
		if err := ctx.Err(); err != nil {
			return Unhealthy("cancelled", err)
		}
		return Healthy("up")
	})

	if checker.Name() != "web" {
		t.Errorf("Name() = %q, want web", checker.Name())
	}
	if r := checker.Check(context.Background()); !r.OK() {
		t.Errorf("Check() = %v, want healthy", r.Status)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := checker.Check(ctx)
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, context.Canceled) {
		t.Errorf("Check(cancelled) = %v / %v", r.Status, r.Error)
	}
}
