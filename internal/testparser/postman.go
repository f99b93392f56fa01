package testparser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/AndreyAkinshin/automatest/internal/result"
)

// Static regexes for Postman CLI / newman "cli" reporter output.
// Compiled once at package init for performance.
var (
	postmanRequestRegex = regexp.MustCompile(`^\s*→\s+(.*)$`)
	postmanStatusRegex  = regexp.MustCompile(`\[(\d{3})\s+[^\]]+\]`)
	postmanPassRegex    = regexp.MustCompile(`^\s*[√✓]\s+(.*)$`)
	postmanFailRegex    = regexp.MustCompile(`^\s*[×✗]\s+(.*)$`)
)

// PostmanParser parses the console transcript of `postman collection run`
// and `newman run`.
type PostmanParser struct{}

// Name returns the parser name.
func (p *PostmanParser) Name() string {
	return "postman"
}

// Parse extracts per-request results from a transcript.
// The cli reporter prints blocks like:
//
//	→ Get user
//	  GET https://api.example.com/users/1 [200 OK, 512B, 87ms]
//	  ✓  status is 200
//	  2. body has id
//
// Numbered lines are failed assertions in newman's compact form; only the
// glyph-prefixed variants are recognized.
func (p *PostmanParser) Parse(output string) []result.Request {
	sc := &transcriptScanner{out: make([]result.Request, 0)}
	if output == "" {
		return sc.out
	}

	cleaned := strings.ReplaceAll(StripANSI(output), "\r\n", "\n")
	for _, line := range strings.Split(cleaned, "\n") {
		sc.feed(strings.TrimRight(line, " \t\r"))
	}
	return sc.finish()
}

// scanState is the state of the transcript scanner.
type scanState int

const (
	// stateIdle means no request header has been seen yet.
	stateIdle scanState = iota
	// stateInRequest means lines are attributed to the current request.
	stateInRequest
)

// transcriptScanner is a line-driven state machine.
//
//	idle       --(→ name)--> inRequest
//	inRequest  --(→ name)--> inRequest   (previous request finalized)
//	inRequest  --(status | ✓ | ✗)--> inRequest (fields accumulated)
//	any        --(other)--> unchanged
type transcriptScanner struct {
	state   scanState
	current result.Request
	out     []result.Request
}

func (s *transcriptScanner) feed(line string) {
	if m := postmanRequestRegex.FindStringSubmatch(line); m != nil {
		s.flush()
		s.current = result.Request{
			Name:       strings.TrimSpace(m[1]),
			Assertions: []result.Assertion{},
		}
		s.state = stateInRequest
		return
	}

	if s.state != stateInRequest {
		return
	}

	if m := postmanStatusRegex.FindStringSubmatch(line); m != nil {
		if code, err := strconv.Atoi(m[1]); err == nil {
			s.current.SetStatusCode(code)
		}
		return
	}

	trimmed := strings.TrimSpace(line)
	if m := postmanPassRegex.FindStringSubmatch(trimmed); m != nil {
		s.current.Assertions = append(s.current.Assertions, result.Assertion{
			Name:   strings.TrimSpace(m[1]),
			Passed: true,
		})
		return
	}
	if m := postmanFailRegex.FindStringSubmatch(trimmed); m != nil {
		s.current.Assertions = append(s.current.Assertions, result.Assertion{
			Name:   strings.TrimSpace(m[1]),
			Passed: false,
		})
	}
}

// flush appends the active request, if any, and returns to idle.
func (s *transcriptScanner) flush() {
	if s.state == stateInRequest {
		s.out = append(s.out, s.current)
	}
	s.current = result.Request{}
	s.state = stateIdle
}

func (s *transcriptScanner) finish() []result.Request {
	s.flush()
	return s.out
}
