// Package output provides formatted output utilities for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/AndreyAkinshin/automatest/internal/result"
)

// Writer handles CLI output formatting.
type Writer struct {
	out   io.Writer
	err   io.Writer
	color bool
	quiet bool
}

// New creates a new Writer with default settings.
func New() *Writer {
	return &Writer{
		out:   os.Stdout,
		err:   os.Stderr,
		color: isTerminal(),
	}
}

// NewWithWriters creates a Writer with custom io.Writers (for testing).
func NewWithWriters(out, err io.Writer, color bool) *Writer {
	return &Writer{
		out:   out,
		err:   err,
		color: color,
	}
}

// SetQuiet enables or disables quiet mode.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// Out returns the underlying stdout writer.
func (w *Writer) Out() io.Writer {
	return w.out
}

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(format string, args ...interface{}) {
	fmt.Fprintf(w.err, format+"\n", args...)
}

// Info prints an info message (skipped in quiet mode).
func (w *Writer) Info(format string, args ...interface{}) {
	if w.quiet {
		return
	}
	w.Println(format, args...)
}

// Success prints a success message.
func (w *Writer) Success(format string, args ...interface{}) {
	if w.color {
		w.Println(green+format+reset, args...)
	} else {
		w.Println(format, args...)
	}
}

// Warning prints a warning message.
func (w *Writer) Warning(format string, args ...interface{}) {
	if w.color {
		w.Errorln(yellow+"warning: "+format+reset, args...)
	} else {
		w.Errorln("warning: "+format, args...)
	}
}

// ErrorPrefix prints an error message with automatest prefix to stderr.
func (w *Writer) ErrorPrefix(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.color {
		w.Errorln("%sautomatest:%s %s", red, reset, msg)
	} else {
		w.Errorln("automatest: %s", msg)
	}
}

// Section prints a section header.
func (w *Writer) Section(title string) {
	if w.quiet {
		return
	}
	w.Println("")
	if w.color {
		w.Println("%s=== %s ===%s", bold, title, reset)
	} else {
		w.Println("=== %s ===", title)
	}
}

// Table prints a simple table.
func (w *Writer) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var headerParts []string
	for i, h := range headers {
		headerParts = append(headerParts, fmt.Sprintf("%-*s", widths[i], h))
	}
	w.Println("%s", strings.TrimRight(strings.Join(headerParts, "  "), " "))

	var sepParts []string
	for _, width := range widths {
		sepParts = append(sepParts, strings.Repeat("-", width))
	}
	w.Println("%s", strings.Join(sepParts, "  "))

	for _, row := range rows {
		var rowParts []string
		for i, cell := range row {
			if i < len(widths) {
				rowParts = append(rowParts, fmt.Sprintf("%-*s", widths[i], cell))
			}
		}
		w.Println("%s", strings.TrimRight(strings.Join(rowParts, "  "), " "))
	}
}

// Hint prints a hint message for the user.
func (w *Writer) Hint(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.color {
		w.Println("%s%s%s", dim, msg, reset)
	} else {
		w.Println("%s", msg)
	}
}

// CollectionStart prints the header shown before a collection is executed.
func (w *Writer) CollectionStart(project, environment, collection string) {
	if w.quiet {
		return
	}
	w.Println("")
	label := fmt.Sprintf("─── [%s/%s] %s ───", project, environment, collection)
	if w.color {
		w.Println("%s%s%s", bold+cyan, label, reset)
	} else {
		w.Println("%s", label)
	}
}

// CollectionResult prints the one-line outcome of a reconciled collection.
func (w *Writer) CollectionResult(project, environment, collection string, s result.Summary) {
	counts := fmt.Sprintf("requests %d (failed %d), tests %d (failed %d)",
		s.TotalRequests, s.FailedRequests, s.TotalTests, s.FailedTests)
	if s.OK {
		if w.quiet {
			return
		}
		if w.color {
			w.Println("%s[%s/%s]%s %s %s✓%s %s%s%s", green, project, environment, reset, collection, green, reset, dim, counts, reset)
		} else {
			w.Println("[%s/%s] %s ok: %s", project, environment, collection, counts)
		}
		return
	}

	reason := ""
	if s.Reason != "" {
		reason = " (" + s.Reason + ")"
	}
	if w.color {
		w.Errorln("%s[%s/%s] %s failed:%s %s%s", red, project, environment, collection, reset, counts, reason)
	} else {
		w.Errorln("[%s/%s] %s failed: %s%s", project, environment, collection, counts, reason)
	}
}

// RequestDetail prints one reconciled request with its assertions.
func (w *Writer) RequestDetail(req result.Request) {
	code := "-"
	if req.StatusCode != nil {
		code = fmt.Sprintf("%d", *req.StatusCode)
	}
	if w.color {
		w.Println("  %s%s%s %s[%s]%s", bold, req.Name, reset, dim, code, reset)
	} else {
		w.Println("  %s [%s]", req.Name, code)
	}
	if len(req.Assertions) == 0 {
		w.Hint("      (no tests defined)")
		return
	}
	for _, a := range req.Assertions {
		switch {
		case a.Passed && w.color:
			w.Println("    %s✓%s %s", green, reset, a.Name)
		case a.Passed:
			w.Println("    + %s", a.Name)
		case w.color:
			w.Println("    %s✗%s %s", red, reset, a.Name)
		default:
			w.Println("    x %s", a.Name)
		}
	}
}

// SummaryHeader prints a summary section header.
func (w *Writer) SummaryHeader(title string) {
	w.Println("")
	if w.color {
		w.Println("%s=== %s ===%s", bold+cyan, title, reset)
	} else {
		w.Println("=== %s ===", title)
	}
	w.Println("")
}

// SummaryItem prints a labeled summary item with value.
func (w *Writer) SummaryItem(label, value string) {
	if w.color {
		w.Println("  %s%s:%s %s", dim, label, reset, value)
	} else {
		w.Println("  %s: %s", label, value)
	}
}

// SummaryPassed prints a passed/success items summary.
func (w *Writer) SummaryPassed(label, value string) {
	if w.color {
		w.Println("  %s%s:%s %s%s%s", dim, label, reset, green, value, reset)
	} else {
		w.Println("  %s: %s", label, value)
	}
}

// SummaryFailed prints a failed items summary.
func (w *Writer) SummaryFailed(label, value string) {
	if w.color {
		w.Println("  %s%s:%s %s%s%s", dim, label, reset, red, value, reset)
	} else {
		w.Println("  %s: %s", label, value)
	}
}

// SummarySectionLabel prints a label for a summary section (e.g., "Requests:").
func (w *Writer) SummarySectionLabel(label string) {
	if w.color {
		w.Println("  %s%s%s", dim, label, reset)
	} else {
		w.Println("  %s", label)
	}
}

// FinalSuccess prints a final success message.
func (w *Writer) FinalSuccess(format string, args ...interface{}) {
	w.Println("")
	msg := fmt.Sprintf(format, args...)
	if w.color {
		w.Println("%s%s%s", green, msg, reset)
	} else {
		w.Println("%s", msg)
	}
}

// FinalFailure prints a final failure message.
func (w *Writer) FinalFailure(format string, args ...interface{}) {
	w.Println("")
	msg := fmt.Sprintf(format, args...)
	if w.color {
		w.Println("%s%s%s", red, msg, reset)
	} else {
		w.Println("%s", msg)
	}
}

// isTerminal returns true if stdout is a terminal and NO_COLOR is unset.
func isTerminal() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)
