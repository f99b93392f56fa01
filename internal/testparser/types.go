// Package testparser provides transcript parsing for API test runners.
package testparser

import "github.com/AndreyAkinshin/automatest/internal/result"

// Parser defines the interface for runner transcript parsers.
type Parser interface {
	// Parse extracts per-request results from the runner console output.
	// Implementations never fail: unrecognized lines are ignored.
	Parse(output string) []result.Request
	// Name returns the name of the parser.
	Name() string
}

// Count returns the number of requests, assertions and failed assertions in reqs.
func Count(reqs []result.Request) (requests, tests, failed int) {
	for i := range reqs {
		tests += len(reqs[i].Assertions)
		failed += reqs[i].FailedAssertions()
	}
	return len(reqs), tests, failed
}
