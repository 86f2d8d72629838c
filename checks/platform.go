package checks

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/jonwraymond/stackcheck/config"
	"github.com/jonwraymond/stackcheck/suite"
	"github.com/jonwraymond/stackcheck/task"
)

var versionPattern = regexp.MustCompile(`\d+(\.\d+){0,2}`)

// PlatformInfo reports the host platform. It never fails.
func PlatformInfo(_ context.Context) (suite.Details, error) {
	return suite.Details{
		"os":   runtime.GOOS,
		"arch": runtime.GOARCH,
		"cpus": runtime.NumCPU(),
		"go":   runtime.Version(),
	}, nil
}

// ToolVersion returns a case that runs the tool's version command and checks
// the first version in its output against the tool's constraint.
func (c *Checks) ToolVersion(tool config.ToolRequirement) suite.CaseFunc {
	return func(ctx context.Context) (suite.Details, error) {
		res, err := task.Run(ctx, task.Spec{
			Name:    tool.Name,
			Command: tool.Command,
			Timeout: c.opts.ToolTimeout,
		})
		if err != nil {
			return nil, err
		}

		v, err := ExtractVersion(res.Stdout + "\n" + res.Stderr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tool.Name, err)
		}
		details := suite.Details{"version": v.String()}
		if tool.Constraint == "" {
			return details, nil
		}

		constraints, err := version.NewConstraint(tool.Constraint)
		if err != nil {
			return nil, fmt.Errorf("%s: constraint %q: %w", tool.Name, tool.Constraint, err)
		}
		if !constraints.Check(v) {
			return nil, fmt.Errorf("%s: version %s does not satisfy %s", tool.Name, v, tool.Constraint)
		}
		details["constraint"] = tool.Constraint
		return details, nil
	}
}

// ExtractVersion returns the first version number found in output.
func ExtractVersion(output string) (*version.Version, error) {
	m := versionPattern.FindString(output)
	if m == "" {
		return nil, fmt.Errorf("no version in output %q", strings.TrimSpace(output))
	}
	return version.NewVersion(m)
}
