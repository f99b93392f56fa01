// Package reconcile merges a decoded structured report with the requests
// parsed from a runner transcript into one summary per collection run.
package reconcile

import (
	"github.com/AndreyAkinshin/automatest/internal/report"
	"github.com/AndreyAkinshin/automatest/internal/result"
	"github.com/AndreyAkinshin/automatest/internal/testparser"
)

// NoRequestsReason is reported when neither source attributed any request.
const NoRequestsReason = "no requests counted"

// Reconcile merges decoded and parsed into a summary. It never fails and
// never mutates its inputs.
//
// The report is authoritative for counts and for the order of the requests it
// lists; transcript requests are matched by exact name, contribute a status
// code only where the report has none, and contribute only assertions whose
// names the report does not already carry. Unmatched transcript requests are
// appended in transcript order.
func Reconcile(decoded report.Decoded, parsed []result.Request) result.Summary {
	items := make([]result.Request, 0, len(decoded.Items)+len(parsed))
	for _, it := range decoded.Items {
		items = append(items, it.Clone())
	}

	byName := make(map[string]int, len(items))
	for i := range items {
		if _, seen := byName[items[i].Name]; !seen {
			byName[items[i].Name] = i
		}
	}

	for _, p := range parsed {
		idx, ok := byName[p.Name]
		if !ok {
			items = append(items, p.Clone())
			continue
		}

		base := &items[idx]
		if p.StatusCode != nil {
			base.SetStatusCode(*p.StatusCode)
		}
		for _, a := range p.Assertions {
			if !base.HasAssertion(a.Name) {
				base.Assertions = append(base.Assertions, a)
			}
		}
	}

	s := result.Summary{
		TotalRequests:  decoded.TotalRequests,
		FailedRequests: decoded.FailedRequests,
		TotalTests:     decoded.TotalTests,
		FailedTests:    decoded.FailedTests,
		Items:          items,
	}

	if len(items) > 0 {
		requests, tests, failed := testparser.Count(items)
		s.TotalRequests = max(s.TotalRequests, requests)
		if s.TotalTests == 0 {
			s.TotalTests = tests
		}
		if s.FailedTests == 0 {
			s.FailedTests = failed
		}
	}

	s.OK = s.FailedRequests == 0 && s.FailedTests == 0 && s.TotalRequests > 0

	switch {
	case s.OK:
		// A decode problem is not reported on a passing summary; callers
		// that need it read decoded.Reason.
	case decoded.Reason != "":
		s.Reason = decoded.Reason
	case s.TotalRequests == 0:
		s.Reason = NoRequestsReason
	}

	return s
}

// Summarize decodes the report, parses the transcript with parser and
// reconciles both. A nil parser treats the transcript as absent.
func Summarize(reportData []byte, reportPresent bool, transcript string, parser testparser.Parser) (result.Summary, report.Decoded) {
	decoded := report.Decode(reportData, reportPresent)

	var parsed []result.Request
	if parser != nil {
		parsed = parser.Parse(transcript)
	}

	return Reconcile(decoded, parsed), decoded
}
