package cli

import (
	"io"
	"strings"

	"github.com/jonwraymond/stackcheck/checks"
	"github.com/jonwraymond/stackcheck/config"
	"github.com/jonwraymond/stackcheck/observe"
	"github.com/jonwraymond/stackcheck/orchestrator"
	"github.com/jonwraymond/stackcheck/resilience"
	"github.com/jonwraymond/stackcheck/suite"
	"github.com/jonwraymond/stackcheck/task"
)

// plan is the set of suites and services selected for a run.
type plan struct {
	services []orchestrator.Service
	entries  []orchestrator.Entry
}

// planner builds runnable entries for a configuration.
type planner struct {
	cfg        *config.Config
	checks     *checks.Checks
	progress   io.Writer
	middleware *observe.Middleware
	runID      string
}

func (p *planner) runner(attempts int) *suite.Runner {
	return suite.NewRunner(suite.RunnerConfig{
		Retry: resilience.RetryConfig{
			MaxAttempts: attempts,
			Delay:       p.cfg.RetryDelay,
			Strategy:    resilience.BackoffConstant,
		},
		Progress:   p.progress,
		Middleware: p.middleware,
		RunID:      p.runID,
	})
}

func (p *planner) httpSuite(s suite.Suite) orchestrator.Entry {
	return orchestrator.Entry{Name: s.Name, Required: true, Runner: p.runner(p.cfg.RetryCount).For(s)}
}

func (p *planner) command(c config.Command) orchestrator.Entry {
	return orchestrator.Entry{
		Name:     c.Name,
		Required: c.Required,
		Runner: &suite.CommandSuite{
			Spec: task.Spec{
				Name:    c.Name,
				Command: c.Command,
				WorkDir: c.WorkDir,
				Env:     c.Env,
				Timeout: c.Timeout,
				Output:  p.progress,
			},
			Progress:   p.progress,
			Middleware: p.middleware,
			RunID:      p.runID,
		},
	}
}

func (p *planner) commands(cmds []config.Command) []orchestrator.Entry {
	out := make([]orchestrator.Entry, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, p.command(c))
	}
	return out
}

func (p *planner) apiService() orchestrator.Service {
	return orchestrator.Service{Name: suite.TargetAPI, URL: strings.TrimRight(p.cfg.APIURL, "/") + "/health"}
}

func (p *planner) webService() orchestrator.Service {
	return orchestrator.Service{Name: suite.TargetWeb, URL: strings.TrimRight(p.cfg.WebURL, "/") + "/"}
}

// services lists every service probed by a full preflight.
func (p *planner) services() []orchestrator.Service {
	return []orchestrator.Service{p.apiService(), p.webService()}
}

// build applies the selection rules of opts.
func (p *planner) build(opts *Options) plan {
	cfg := p.cfg
	apiSvc, webSvc := p.apiService(), p.webService()

	health := p.checks.HealthSuite()
	if cfg.CI {
		health = p.checks.CIHealthSuite()
	}

	var pl plan
	switch {
	case opts.HealthOnly:
		pl.services = p.services()
		pl.entries = []orchestrator.Entry{p.httpSuite(health)}
	case opts.Integration:
		pl.services = []orchestrator.Service{apiSvc}
		pl.entries = []orchestrator.Entry{p.httpSuite(p.checks.IntegrationSuite())}
	case opts.APIOnly:
		pl.services = []orchestrator.Service{apiSvc}
		pl.entries = append(pl.entries,
			p.httpSuite(health.Only(suite.TargetAPI)),
			p.httpSuite(p.checks.IntegrationSuite().Only(suite.TargetAPI)),
		)
		pl.entries = append(pl.entries, p.commands(cfg.CommandsFor(config.TargetAPI))...)
	case opts.WebOnly:
		pl.services = []orchestrator.Service{webSvc}
		pl.entries = append(pl.entries, p.httpSuite(health.Only(suite.TargetWeb)))
		pl.entries = append(pl.entries, p.commands(cfg.CommandsFor(config.TargetWeb))...)
	case opts.LintOnly:
		pl.entries = p.commands(cfg.CommandsFor(config.TargetLint))
	default:
		pl.services = p.services()
		pl.entries = append(pl.entries,
			p.httpSuite(health),
			p.httpSuite(p.checks.IntegrationSuite()),
		)
		pl.entries = append(pl.entries, p.commands(cfg.Commands)...)
		pl.entries = append(pl.entries, orchestrator.Entry{
			Name:     checks.SuitePlatform,
			Required: false,
			Runner:   p.runner(1).For(p.checks.PlatformSuite()),
		})
	}

	if opts.NoServices {
		pl.services = nil
		pl.entries = dropHTTP(pl.entries)
	}
	return pl
}

var httpSuites = map[string]bool{
	checks.SuiteHealth:      true,
	checks.SuiteCIHealth:    true,
	checks.SuiteIntegration: true,
}

func dropHTTP(entries []orchestrator.Entry) []orchestrator.Entry {
	out := entries[:0]
	for _, e := range entries {
		if _, ok := e.Runner.(*suite.Bound); ok && httpSuites[e.Name] {
			continue
		}
		out = append(out, e)
	}
	return out
}
