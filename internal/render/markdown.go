// Package render turns an aggregation index into the markdown and HTML
// bodies of the run report.
package render

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AndreyAkinshin/automatest/internal/index"
	"github.com/AndreyAkinshin/automatest/internal/result"
)

// printer groups digits in counts ("1,234").
var printer = message.NewPrinter(language.English)

// NoTestsLabel marks a request without assertions.
const NoTestsLabel = "(no tests defined)"

var tips = []string{
	"If **no requests** were counted, check AUTH/ENV (tokens, URLs) and whether the collection is filtered by folder.",
	"If the **exit code is not 0**, read the `[STDERR]` section of the attached transcript for immediate clues.",
	"Test failures name the assertion that broke; adjust the pre-request script, headers, body or the test itself.",
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"|", `\|`,
)

func escape(s string) string {
	return mdEscaper.Replace(s)
}

// Markdown renders the report for every collection in idx, grouped by
// project then environment.
func Markdown(idx *index.Index, runner string) string {
	var b strings.Builder
	totals := idx.Totals()

	b.WriteString("# Execution report (" + escape(runner) + ")\n\n")
	printer.Fprintf(&b, "**Collections:** %d · **failed:** %d · **requests:** %d · **tests:** %d (failed: %d)\n\n",
		totals.Collections, totals.FailedCollections, totals.Requests, totals.Tests, totals.FailedTests)

	project := ""
	for _, g := range idx.Groups() {
		if g.Project != project {
			project = g.Project
			b.WriteString("## " + escape(project) + "\n\n")
		}
		b.WriteString("### Environment: " + escape(g.Environment) + "\n\n")
		for _, e := range g.Entries {
			writeCollection(&b, e)
		}
	}

	b.WriteString("---\n\n### Quick tips\n\n")
	for _, tip := range tips {
		b.WriteString("- " + tip + "\n")
	}
	return b.String()
}

func writeCollection(b *strings.Builder, e index.Entry) {
	s := e.Summary
	status := "✅ OK"
	if !s.OK {
		status = "❌ PROBLEM"
	}
	b.WriteString("#### " + escape(e.Collection) + " - " + status + "\n\n")

	printer.Fprintf(b, "- Requests: %d\n", s.TotalRequests)
	printer.Fprintf(b, "- Tests: %d (failed: %d)\n", s.TotalTests, s.FailedTests)
	if s.FailedRequests > 0 {
		printer.Fprintf(b, "- Failed requests: %d\n", s.FailedRequests)
	}
	if e.Exec.ExitCode != 0 {
		printer.Fprintf(b, "- Exit code: %d\n", e.Exec.ExitCode)
	}
	if s.Reason != "" {
		b.WriteString("- Note: " + escape(s.Reason) + "\n")
	}
	b.WriteString("\n")

	if len(s.Items) == 0 {
		return
	}
	b.WriteString("| Request | HTTP | Tests |\n| --- | --- | --- |\n")
	for _, item := range s.Items {
		b.WriteString("| " + escape(item.Name) + " | " + statusCode(item) + " | " + assertions(item) + " |\n")
	}
	b.WriteString("\n")
}

func statusCode(r result.Request) string {
	if r.StatusCode == nil {
		return "-"
	}
	return strconv.Itoa(*r.StatusCode)
}

func assertions(r result.Request) string {
	if len(r.Assertions) == 0 {
		return escape(NoTestsLabel)
	}
	parts := make([]string, 0, len(r.Assertions))
	for _, a := range r.Assertions {
		mark := "✓"
		if !a.Passed {
			mark = "✗"
		}
		parts = append(parts, mark+" "+escape(a.Name))
	}
	return strings.Join(parts, "; ")
}
