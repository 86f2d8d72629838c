package checks

import (
	"context"
	"net/http"

	"github.com/jonwraymond/stackcheck/probe"
	"github.com/jonwraymond/stackcheck/suite"
)

// WebRoot checks that the web frontend serves an HTML document at /.
func (c *Checks) WebRoot(ctx context.Context) (suite.Details, error) {
	resp, err := c.opts.Prober.Get(ctx, c.web("/"))
	if err != nil {
		return nil, err
	}
	if err := probe.ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	if err := probe.ExpectContentType(resp, "text/html"); err != nil {
		return nil, err
	}
	if err := probe.ExpectBodyContains(resp, "<html", "<head", "<body"); err != nil {
		return nil, err
	}
	details := timing(resp)
	details["bytes"] = len(resp.Body)
	return details, nil
}
