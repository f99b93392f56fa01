// Package result defines the canonical per-request result model shared by the
// transcript parser, the report decoder and the reconciler.
package result

// Assertion is a single named test check within a request execution.
type Assertion struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// Request holds everything known about one executed request.
// Name is the reconciliation key; StatusCode is nil until a source provides it.
type Request struct {
	Name       string      `json:"name"`
	StatusCode *int        `json:"status_code,omitempty"`
	Assertions []Assertion `json:"assertions"`
}

// HasAssertion reports whether an assertion with the given name is present.
func (r *Request) HasAssertion(name string) bool {
	for _, a := range r.Assertions {
		if a.Name == name {
			return true
		}
	}
	return false
}

// SetStatusCode sets the status code unless one is already recorded.
// Returns true if the value was applied.
func (r *Request) SetStatusCode(code int) bool {
	if r.StatusCode != nil {
		return false
	}
	r.StatusCode = &code
	return true
}

// FailedAssertions returns the number of assertions that did not pass.
func (r *Request) FailedAssertions() int {
	n := 0
	for _, a := range r.Assertions {
		if !a.Passed {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the request.
func (r Request) Clone() Request {
	c := Request{Name: r.Name}
	if r.StatusCode != nil {
		code := *r.StatusCode
		c.StatusCode = &code
	}
	if r.Assertions != nil {
		c.Assertions = make([]Assertion, len(r.Assertions))
		copy(c.Assertions, r.Assertions)
	}
	return c
}

// Summary is the reconciled outcome of one collection run.
type Summary struct {
	OK             bool      `json:"ok"`
	Reason         string    `json:"reason,omitempty"`
	TotalRequests  int       `json:"total_requests"`
	FailedRequests int       `json:"failed_requests"`
	TotalTests     int       `json:"total_tests"`
	FailedTests    int       `json:"failed_tests"`
	Items          []Request `json:"items"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
