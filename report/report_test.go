package report

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/stackcheck/health"
	"github.com/jonwraymond/stackcheck/orchestrator"
	"github.com/jonwraymond/stackcheck/suite"
)

func sampleReport() *orchestrator.Report {
	healthSum := suite.Summary{Suite: "health"}
	healthSum.Add(suite.Outcome{Name: "api health", Status: suite.StatusPassed, Attempts: 1})
	healthSum.Add(suite.Outcome{
		Name: "web root", Status: suite.StatusFailed, Attempts: 3,
		Err: errors.New("expected status 200, got 503"),
	})

	platform := suite.Summary{Suite: "platform"}
	platform.Add(suite.Outcome{
		Name: "platform info", Status: suite.StatusPassed, Attempts: 1,
		Details: suite.Details{"os": "linux"},
	})

	results := []orchestrator.Result{
		{Name: "health", Required: true, State: orchestrator.StateFailed, Summary: healthSum},
		{Name: "platform", Required: false, State: orchestrator.StatePassed, Summary: platform},
		{Name: "lint", Required: true, State: orchestrator.StateError, Err: errors.New("task: failed to launch: lint")},
	}
	return &orchestrator.Report{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		Preflight: []health.NamedResult{
			{Name: "api", Result: health.Healthy("status 200")},
			{Name: "web", Result: health.Unhealthy("connection refused", nil)},
		},
		Results:        results,
		RequiredFailed: orchestrator.RequiredFailed(results),
		ExitCode:       orchestrator.ExitCode(results, false),
		Duration:       1500 * time.Millisecond,
	}
}

func TestFormatText(t *testing.T) {
	out := FormatText(sampleReport())

	assert.True(t, strings.HasPrefix(out, "stackcheck run run-1\n"))
	assert.Contains(t, out, "preflight api")
	assert.Contains(t, out, "connection refused")
	assert.Regexp(t, `health\s+required\s+1/2\s+FAILED`, out)
	assert.Regexp(t, `platform\s+optional\s+1/1\s+PASSED`, out)
	assert.Regexp(t, `FAIL\s+web root\s+expected status 200, got 503`, out)
	assert.Contains(t, out, "ERROR task: failed to launch: lint")
	assert.NotContains(t, out, "api health ", "passing cases are not listed")
	assert.Contains(t, out, "Result: FAIL (2/3 cases, 2 required suites failed, 1.5s)")
}

func TestFormatText_Verdicts(t *testing.T) {
	r := &orchestrator.Report{RunID: "x"}
	assert.Contains(t, FormatText(r), "Result: PASS")

	r.Aborted = true
	r.ExitCode = 1
	assert.Contains(t, FormatText(r), "Result: ABORTED")
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 200)
	got := truncate(long)
	assert.Len(t, got, maxErrorLen)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, "a b", truncate("a\nb"))
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(sampleReport())
	require.NoError(t, err)

	var doc document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, int64(1500), doc.DurationMS)
	assert.Equal(t, 1, doc.ExitCode)
	assert.Equal(t, 2, doc.RequiredFailed)

	require.Len(t, doc.Preflight, 2)
	assert.Equal(t, "healthy", doc.Preflight[0].Status)
	assert.Equal(t, "unhealthy", doc.Preflight[1].Status)

	require.Len(t, doc.Suites, 3)
	assert.Equal(t, "FAILED", doc.Suites[0].State)
	require.Len(t, doc.Suites[0].Cases, 2)
	assert.Equal(t, "expected status 200, got 503", doc.Suites[0].Cases[1].Error)
	assert.Equal(t, 3, doc.Suites[0].Cases[1].Attempts)
	assert.Equal(t, "linux", doc.Suites[1].Cases[0].Details["os"])
	assert.Equal(t, "task: failed to launch: lint", doc.Suites[2].Error)
	assert.Empty(t, doc.Suites[2].Cases)
}
