// Package orchestrator runs suites in sequence and reduces them to one exit
// code.
//
// Each suite moves through NOT_RUN, RUNNING and then exactly one of PASSED,
// FAILED or ERROR. The exit code is 1 when any required suite failed or
// errored, or when the run was aborted; optional suites are reported but
// never change the verdict.
package orchestrator
