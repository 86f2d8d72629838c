// Package report renders an orchestrator.Report as a text table or as JSON.
package report
