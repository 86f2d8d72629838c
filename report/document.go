package report

import (
	"time"

	"github.com/jonwraymond/stackcheck/orchestrator"
	"github.com/jonwraymond/stackcheck/suite"
)

type document struct {
	RunID          string              `json:"run_id"`
	StartedAt      time.Time           `json:"started_at"`
	DurationMS     int64               `json:"duration_ms"`
	Preflight      []preflightDocument `json:"preflight,omitempty"`
	Suites         []suiteDocument     `json:"suites"`
	RequiredFailed int                 `json:"required_failed"`
	Aborted        bool                `json:"aborted"`
	ExitCode       int                 `json:"exit_code"`
}

type preflightDocument struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type suiteDocument struct {
	Name       string         `json:"name"`
	Required   bool           `json:"required"`
	State      string         `json:"state"`
	Passed     int            `json:"passed"`
	Failed     int            `json:"failed"`
	Total      int            `json:"total"`
	DurationMS int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
	Cases      []caseDocument `json:"cases"`
}

type caseDocument struct {
	Name       string        `json:"name"`
	Status     string        `json:"status"`
	Attempts   int           `json:"attempts"`
	DurationMS int64         `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
	Details    suite.Details `json:"details,omitempty"`
}

func toDocument(r *orchestrator.Report) document {
	doc := document{
		RunID:          r.RunID,
		StartedAt:      r.StartedAt,
		DurationMS:     r.Duration.Milliseconds(),
		Suites:         make([]suiteDocument, 0, len(r.Results)),
		RequiredFailed: r.RequiredFailed,
		Aborted:        r.Aborted,
		ExitCode:       r.ExitCode,
	}
	for _, p := range r.Preflight {
		doc.Preflight = append(doc.Preflight, preflightDocument{
			Name:       p.Name,
			Status:     p.Result.Status.String(),
			Message:    p.Result.Message,
			DurationMS: p.Result.Duration.Milliseconds(),
		})
	}
	for _, res := range r.Results {
		sd := suiteDocument{
			Name:       res.Name,
			Required:   res.Required,
			State:      string(res.State),
			Passed:     res.Summary.Passed,
			Failed:     res.Summary.Failed,
			Total:      res.Summary.Total(),
			DurationMS: res.Summary.Duration.Milliseconds(),
			Cases:      make([]caseDocument, 0, len(res.Summary.Outcomes)),
		}
		if res.Err != nil {
			sd.Error = res.Err.Error()
		}
		for _, o := range res.Summary.Outcomes {
			cd := caseDocument{
				Name:       o.Name,
				Status:     string(o.Status),
				Attempts:   o.Attempts,
				DurationMS: o.Duration.Milliseconds(),
				Details:    o.Details,
			}
			if o.Err != nil {
				cd.Error = o.Err.Error()
			}
			sd.Cases = append(sd.Cases, cd)
		}
		doc.Suites = append(doc.Suites, sd)
	}
	return doc
}
