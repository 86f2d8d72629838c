package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/stackcheck/orchestrator"
	"github.com/jonwraymond/stackcheck/suite"
)

const maxErrorLen = 80

// FormatText renders a run report as human-readable text.
func FormatText(r *orchestrator.Report) string {
	var b strings.Builder

	header := fmt.Sprintf("stackcheck run %s", r.RunID)
	fmt.Fprintln(&b, header)
	fmt.Fprintln(&b, strings.Repeat("═", len(header)))

	for _, p := range r.Preflight {
		fmt.Fprintf(&b, "  preflight %-20s %-10s %s\n", p.Name, p.Result.Status, p.Result.Summary())
	}

	for _, res := range r.Results {
		kind := "optional"
		if res.Required {
			kind = "required"
		}
		sum := res.Summary
		fmt.Fprintf(&b, "  %-30s %-8s %d/%-4d %s\n", res.Name, kind, sum.Passed, sum.Total(), res.State)

		if res.Err != nil {
			fmt.Fprintf(&b, "    ERROR %s\n", truncate(res.Err.Error()))
		}
		for _, o := range sum.Outcomes {
			if o.Passed() {
				continue
			}
			fmt.Fprintf(&b, "    %-5s %-30s %s\n", label(o.Status), o.Name, errText(o.Err))
		}
	}

	fmt.Fprintln(&b, strings.Repeat("─", len(header)))

	verdict := "PASS"
	switch {
	case r.Aborted:
		verdict = "ABORTED"
	case r.ExitCode != 0:
		verdict = "FAIL"
	}
	passed, total := caseTotals(r.Results)
	fmt.Fprintf(&b, "Result: %s (%d/%d cases, %d required suites failed, %s)\n",
		verdict, passed, total, r.RequiredFailed, r.Duration.Round(time.Millisecond))

	return b.String()
}

// FormatJSON renders a run report as indented JSON. Errors are rendered as
// strings.
func FormatJSON(r *orchestrator.Report) (string, error) {
	data, err := json.MarshalIndent(toDocument(r), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	return string(data), nil
}

func label(s suite.Status) string {
	if s == suite.StatusError {
		return "ERROR"
	}
	return "FAIL"
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return truncate(err.Error())
}

func truncate(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxErrorLen {
		return s[:maxErrorLen-3] + "..."
	}
	return s
}

func caseTotals(results []orchestrator.Result) (passed, total int) {
	for _, res := range results {
		passed += res.Summary.Passed
		total += res.Summary.Total()
	}
	return passed, total
}
