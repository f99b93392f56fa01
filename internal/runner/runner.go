// Package runner invokes the external collection runner (postman or newman)
// and captures its transcript and JSON report.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	aerrors "github.com/AndreyAkinshin/automatest/internal/errors"
	"github.com/AndreyAkinshin/automatest/internal/testparser"
)

// Kind names a supported runner CLI.
type Kind string

const (
	KindPostman Kind = "postman"
	KindNewman  Kind = "newman"
)

// Output file names inside a run directory.
const (
	ReportFileName     = "run.json"
	TranscriptFileName = "cli.log.txt"
)

// stderrMarker separates stdout from stderr in the saved transcript.
const stderrMarker = "\n\n[STDERR]\n"

// ParseKind converts a configured runner name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindPostman:
		return KindPostman, nil
	case KindNewman:
		return KindNewman, nil
	default:
		return "", aerrors.Configf("unknown runner %q (expected postman or newman)", s)
	}
}

// Result describes one collection run.
type Result struct {
	Command        []string
	ExitCode       int
	Stdout         string
	Stderr         string
	ReportPath     string // empty when the runner produced no report
	TranscriptPath string // empty when the transcript could not be written
	Duration       time.Duration
}

// Runner executes collections with one runner CLI.
type Runner struct {
	kind    Kind
	binary  string
	stream  io.Writer
	verbose bool
}

// New creates a runner that invokes the CLI named after kind.
func New(kind Kind) *Runner {
	return &Runner{kind: kind, binary: string(kind)}
}

// Kind returns the runner kind.
func (r *Runner) Kind() Kind {
	return r.kind
}

// SetBinary overrides the executable (for testing or non-PATH installs).
func (r *Runner) SetBinary(path string) {
	r.binary = path
}

// SetStream echoes runner stdout to w while it is captured.
func (r *Runner) SetStream(w io.Writer) {
	r.stream = w
}

// SetVerbose enables logging of every command line.
func (r *Runner) SetVerbose(v bool) {
	r.verbose = v
}

// LookPath verifies that the runner executable is available.
func (r *Runner) LookPath() (string, error) {
	path, err := exec.LookPath(r.binary)
	if err != nil {
		return "", aerrors.Environmentf("%s CLI not found on PATH; install it and make sure the %q command works", r.kind, r.binary)
	}
	return path, nil
}

// BuildArgs constructs the runner arguments for one collection run.
func BuildArgs(kind Kind, collection, environment, reportPath string) []string {
	var args []string
	switch kind {
	case KindNewman:
		args = []string{"run", collection}
	default:
		args = []string{"collection", "run", collection}
	}
	return append(args,
		"-e", environment,
		"--reporters", "cli,json",
		"--reporter-json-export", reportPath,
	)
}

// EnsureLogin makes sure the postman CLI is authenticated. It is a no-op for
// newman. When already logged in nothing happens; otherwise apiKey is used.
func (r *Runner) EnsureLogin(ctx context.Context, apiKey string) error {
	if r.kind != KindPostman {
		return nil
	}

	if err := exec.CommandContext(ctx, r.binary, "whoami").Run(); err == nil {
		slog.Debug("postman session active")
		return nil
	}

	if apiKey == "" {
		slog.Warn("postman CLI is not logged in and POSTMAN_API_KEY is not set; runs may fail")
		return nil
	}

	cmd := exec.CommandContext(ctx, r.binary, "login", "--with-api-key", apiKey)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return aerrors.WrapKind(aerrors.KindEnvironment, err,
			fmt.Sprintf("postman login failed: %s", strings.TrimSpace(testparser.StripANSI(stderr.String()))))
	}
	slog.Info("postman login succeeded")
	return nil
}

// Run executes one collection against one environment and stores the JSON
// report and the ANSI-stripped transcript in outDir. A non-zero exit code is
// not an error; only a failure to start the runner is.
func (r *Runner) Run(ctx context.Context, collection, environment, outDir string) (*Result, error) {
	collectionAbs, err := filepath.Abs(collection)
	if err != nil {
		return nil, err
	}
	environmentAbs, err := filepath.Abs(environment)
	if err != nil {
		return nil, err
	}
	outAbs, err := filepath.Abs(outDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outAbs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	reportPath := filepath.Join(outAbs, ReportFileName)
	transcriptPath := filepath.Join(outAbs, TranscriptFileName)
	args := BuildArgs(r.kind, collectionAbs, environmentAbs, reportPath)

	// A report left from an earlier run in the same directory must not be
	// mistaken for this run's output.
	if err := os.Remove(reportPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale report: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = outAbs
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	if r.stream != nil {
		cmd.Stdout = io.MultiWriter(r.stream, &stdout)
	} else {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = &stderr

	if r.verbose {
		slog.Info("running", "command", r.binary+" "+strings.Join(args, " "))
	}

	start := time.Now()
	runErr := cmd.Run()
	res := &Result{
		Command:  append([]string{r.binary}, args...),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, aerrors.WrapKind(aerrors.KindEnvironment, runErr, fmt.Sprintf("failed to start %s", r.kind))
		}
		res.ExitCode = exitErr.ExitCode()
	}

	if err := writeTranscript(transcriptPath, res.Stdout, res.Stderr); err != nil {
		slog.Warn("could not save transcript", "path", transcriptPath, "error", err)
	} else {
		res.TranscriptPath = transcriptPath
	}
	if _, err := os.Stat(reportPath); err == nil {
		res.ReportPath = reportPath
	}

	slog.Debug("runner finished", "exit_code", res.ExitCode, "duration", res.Duration, "report", res.ReportPath)
	return res, nil
}

// writeTranscript saves stdout, and stderr when present, without ANSI sequences.
func writeTranscript(path, stdout, stderr string) error {
	var b strings.Builder
	b.WriteString(testparser.StripANSI(stdout))
	if stderr != "" {
		b.WriteString(stderrMarker)
		b.WriteString(testparser.StripANSI(stderr))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
