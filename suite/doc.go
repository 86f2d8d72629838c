// Package suite runs named groups of test cases and summarizes them.
//
// A Case is a stateless function probing one behavior. The Runner invokes
// every case of a Suite in order through a fixed-delay retry, never stopping
// at the first failure, and writes one progress line per case. Summaries
// always account for every registered case: Passed + Failed == len(Cases).
//
// CommandSuite adapts an external test command (see package task) to the
// same Summary shape so the orchestrator treats both kinds alike.
package suite
