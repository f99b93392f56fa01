package cli

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/automatest/internal/errors"
	"github.com/AndreyAkinshin/automatest/internal/reconcile"
	"github.com/AndreyAkinshin/automatest/internal/result"
	"github.com/AndreyAkinshin/automatest/internal/runner"
	"github.com/AndreyAkinshin/automatest/internal/testparser"
)

type summarizeOptions struct {
	runner  string
	asJSON  bool
	details bool
}

func newSummarizeCommand() *cobra.Command {
	opts := &summarizeOptions{}

	cmd := &cobra.Command{
		Use:   "summarize <report.json|-> [transcript.txt]",
		Short: "Reconcile a saved report and transcript",
		Long: `Reconcile the JSON report and CLI transcript of an earlier run.

Use "-" to read the report from stdin. A report path that does not exist is
treated as an absent report.`,
		Example: `  automatest summarize logs/2026-10-18_09-30-00/shop/dev/users/run.json \
      logs/2026-10-18_09-30-00/shop/dev/users/cli.log.txt`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeSummarize(cmd.InOrStdin(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.runner, "runner", string(runner.KindPostman), "Runner that produced the transcript")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the summary as JSON")
	cmd.Flags().BoolVarP(&opts.details, "details", "d", false, "Print every request with its assertions")

	return cmd
}

func executeSummarize(stdin io.Reader, args []string, opts *summarizeOptions) error {
	registry := testparser.NewRegistry()
	parser := registry.GetParser(opts.runner)
	if parser == nil {
		return errors.Configf("unknown runner %q (known: %s)", opts.runner, strings.Join(registry.Runners(), ", "))
	}

	data, present, err := readReport(stdin, args[0])
	if err != nil {
		return err
	}

	var transcript string
	if len(args) > 1 {
		b, err := os.ReadFile(args[1])
		if err != nil {
			return errors.Wrap(err, "failed to read transcript")
		}
		transcript = string(b)
	}

	summary, decoded := reconcile.Summarize(data, present, transcript, parser)
	slog.Debug("summarized", "schema", decoded.Schema, "reason", decoded.Reason, "items", len(summary.Items))
	if decoded.Reason != "" && summary.OK {
		out.Warning("%s", decoded.Reason)
	}

	if opts.asJSON {
		enc := json.NewEncoder(out.Out())
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return errors.Wrap(err, "failed to encode summary")
		}
	} else {
		printSummary(summary, opts.details)
	}

	if !summary.OK {
		msg := "summary is not OK"
		if summary.Reason != "" {
			msg += ": " + summary.Reason
		}
		return errors.New(msg)
	}
	return nil
}

// readReport loads the report bytes. A missing file counts as an absent report.
func readReport(stdin io.Reader, path string) ([]byte, bool, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, false, errors.Wrap(err, "failed to read report from stdin")
		}
		return data, len(data) > 0, nil
	}
	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		out.Warning("report %s not found; using the transcript only", path)
		return nil, false, nil
	}
	if err != nil {
		slog.Warn("could not read report", "path", path, "error", err)
		return nil, true, nil
	}
	return data, true, nil
}

func printSummary(s result.Summary, details bool) {
	out.SummaryHeader("Summary")
	if s.OK {
		out.SummaryPassed("Status", "OK")
	} else {
		out.SummaryFailed("Status", "PROBLEM")
	}
	if s.Reason != "" {
		out.SummaryItem("Reason", s.Reason)
	}
	out.SummaryItem("Requests", formatCount(s.TotalRequests, s.FailedRequests))
	out.SummaryItem("Tests", formatCount(s.TotalTests, s.FailedTests))

	if details && len(s.Items) > 0 {
		out.SummarySectionLabel("Requests:")
		for _, req := range s.Items {
			out.RequestDetail(req)
		}
	}
}

func formatCount(total, failed int) string {
	return fmt.Sprintf("%d (failed %d)", total, failed)
}
