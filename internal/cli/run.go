package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/automatest/internal/config"
	"github.com/AndreyAkinshin/automatest/internal/errors"
	"github.com/AndreyAkinshin/automatest/internal/history"
	"github.com/AndreyAkinshin/automatest/internal/index"
	"github.com/AndreyAkinshin/automatest/internal/mail"
	"github.com/AndreyAkinshin/automatest/internal/project"
	"github.com/AndreyAkinshin/automatest/internal/reconcile"
	"github.com/AndreyAkinshin/automatest/internal/render"
	"github.com/AndreyAkinshin/automatest/internal/runner"
	"github.com/AndreyAkinshin/automatest/internal/testparser"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	all       bool
	project   string
	env       string
	runner    string
	runnerBin string
	noMail    bool
	noHistory bool
	stream    bool
	verbose   bool
}

// Test hooks.
var (
	newRunner  = runner.New
	sendReport = func(ctx context.Context, cfg mail.Config, r mail.Report) error {
		s, err := mail.NewSender(cfg)
		if err != nil {
			return err
		}
		return s.Send(ctx, r)
	}
	timeNow = time.Now
)

func newRunCommand(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run collections and mail the reconciled report",
		Long: `Run collections against environments with the postman (or newman) CLI.

Without --all or --project an interactive menu asks what to run.`,
		Example: `  automatest run --all
  automatest run --project shop --env staging --no-mail
  automatest run --all --runner newman`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.all && opts.project != "" {
				return errors.Config("--all and --project are mutually exclusive")
			}
			if opts.env != "" && opts.project == "" {
				return errors.Config("--env requires --project")
			}
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			opts.verbose = global.debug
			return executeRun(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cfg, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.all, "all", false, "Run every collection against every environment")
	f.StringVarP(&opts.project, "project", "p", "", "Run only this project")
	f.StringVarP(&opts.env, "env", "e", "", "Environment label or file name (with --project)")
	f.StringVar(&opts.runner, "runner", "", "Override the configured runner (postman or newman)")
	f.StringVar(&opts.runnerBin, "runner-path", "", "Runner executable to invoke (default: looked up on PATH)")
	f.BoolVar(&opts.noMail, "no-mail", false, "Do not send the report email")
	f.BoolVar(&opts.noHistory, "no-history", false, "Do not record the run in the history database")
	f.BoolVar(&opts.stream, "stream", false, "Echo runner output while it runs")

	return cmd
}

// loadConfig resolves configuration and prints non-fatal warnings.
func loadConfig(global *globalOptions) (*config.Config, error) {
	cfg, warnings, err := config.Resolve(config.Options{
		ConfigPath: global.configPath,
		EnvFile:    global.envFile,
	})
	for _, w := range warnings {
		out.Warning("%s", w)
	}
	var verr *config.ValidationError
	if stderrors.As(err, &verr) {
		return nil, errors.Validation("invalid configuration: " + verr.Error())
	}
	if err != nil {
		return nil, errors.WrapKind(errors.KindConfig, err, "failed to load configuration")
	}
	slog.Debug("configuration resolved", "collections_root", cfg.CollectionsRoot, "logs_dir", cfg.LogsDir, "runner", cfg.Runner)
	return cfg, nil
}

// executeRun runs the selected collections, reports, records and mails the result.
func executeRun(ctx context.Context, in io.Reader, w io.Writer, cfg *config.Config, opts *runOptions) error {
	runnerName := cfg.Runner
	if opts.runner != "" {
		runnerName = opts.runner
	}
	kind, err := runner.ParseKind(runnerName)
	if err != nil {
		return err
	}

	r := newRunner(kind)
	if opts.runnerBin != "" {
		r.SetBinary(opts.runnerBin)
	}
	r.SetVerbose(opts.verbose)
	if opts.stream {
		r.SetStream(w)
	}
	if _, err := r.LookPath(); err != nil {
		return err
	}
	if err := r.EnsureLogin(ctx, cfg.PostmanAPIKey); err != nil {
		return err
	}

	root, err := project.FindRoot(cfg.CollectionsRoot)
	if err != nil {
		return errors.NotFound("collections root", cfg.CollectionsRoot)
	}

	plan, err := buildPlan(in, w, root, opts)
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		out.Info("Nothing to run.")
		return nil
	}

	started := timeNow()
	runDir := filepath.Join(cfg.LogsDir, started.Format(history.IDLayout))
	parser := testparser.NewRegistry().GetParser(string(r.Kind()))

	idx := index.New()
	var attachments []string
	for _, pair := range plan {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "run interrupted")
		}
		entry, files, err := runPair(ctx, r, parser, runDir, pair)
		if err != nil {
			return err
		}
		idx.Add(pair.Project, pair.EnvLabel(), entry)
		attachments = append(attachments, files...)
	}

	markdown := render.Markdown(idx, string(r.Kind()))
	out.Section("Report")
	out.Println("%s", markdown)

	if !opts.noHistory {
		recordHistory(cfg.LogsDir, history.NewRecord(started, string(r.Kind()), idx))
	}
	if !opts.noMail {
		if err := mailReport(ctx, cfg, markdown, attachments); err != nil {
			if errors.IsKind(err, errors.KindValidation) {
				out.Warning("report email skipped: %v", err)
			} else {
				out.Warning("report email not sent: %v", err)
			}
		}
	}

	return finish(idx.Totals())
}

func buildPlan(in io.Reader, w io.Writer, root string, opts *runOptions) ([]project.Pair, error) {
	switch {
	case opts.all:
		return project.AllPairs(root)
	case opts.project != "":
		projects, err := project.ListProjects(root)
		if err != nil {
			return nil, err
		}
		if !contains(projects, opts.project) {
			return nil, errors.NotFound("project", opts.project)
		}
		pairs, err := project.PairsFor(root, opts.project, opts.env)
		if err != nil {
			return nil, errors.WrapKind(errors.KindNotFound, err, "invalid selection")
		}
		return pairs, nil
	default:
		return choosePlan(in, w, root)
	}
}

// runPair executes one collection and reconciles its outputs.
func runPair(ctx context.Context, r *runner.Runner, parser testparser.Parser, runDir string, pair project.Pair) (index.Entry, []string, error) {
	collection := pair.CollectionName()
	out.CollectionStart(pair.Project, pair.EnvLabel(), collection)

	outDir := filepath.Join(runDir, pair.Project, pair.EnvLabel(), strings.TrimSuffix(collection, filepath.Ext(collection)))
	res, err := r.Run(ctx, pair.Collection, pair.Environment, outDir)
	if err != nil {
		return index.Entry{}, nil, errors.CollectionError(pair.Project, collection, err)
	}

	var data []byte
	present := res.ReportPath != ""
	if present {
		data, err = os.ReadFile(res.ReportPath)
		if err != nil {
			slog.Warn("could not read report", "path", res.ReportPath, "error", err)
		}
	}

	summary, decoded := reconcile.Summarize(data, present, res.Stdout, parser)
	if decoded.Reason != "" && summary.OK {
		slog.Warn("report could not be decoded; transcript used instead", "collection", collection, "reason", decoded.Reason)
	}
	slog.Debug("reconciled", "collection", collection, "schema", decoded.Schema, "items", len(summary.Items))
	out.CollectionResult(pair.Project, pair.EnvLabel(), collection, summary)

	var files []string
	for _, p := range []string{res.ReportPath, res.TranscriptPath} {
		if p != "" {
			files = append(files, p)
		}
	}

	return index.Entry{
		Collection: collection,
		Summary:    summary,
		Exec: index.Exec{
			Command:        res.Command,
			ExitCode:       res.ExitCode,
			ReportPath:     res.ReportPath,
			TranscriptPath: res.TranscriptPath,
		},
	}, files, nil
}

func recordHistory(logsDir string, rec history.Record) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		out.Warning("run not recorded: %v", err)
		return
	}
	store, err := history.Open(filepath.Join(logsDir, history.FileName))
	if err != nil {
		out.Warning("run not recorded: %v", err)
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Save(rec); err != nil {
		out.Warning("run not recorded: %v", err)
		return
	}
	slog.Debug("run recorded", "id", rec.ID)
}

// mailReport sends the report. Missing mail settings are a Validation error.
func mailReport(ctx context.Context, cfg *config.Config, markdown string, attachments []string) error {
	if err := config.ValidateMail(cfg); err != nil {
		return errors.Validation(err.Error())
	}
	html, err := render.HTML(markdown)
	if err != nil {
		return errors.Wrap(err, "failed to render HTML report")
	}

	mcfg := mail.Config{
		Host:       cfg.SMTP.Host,
		Port:       cfg.SMTP.Port,
		UseTLS:     cfg.SMTP.UseTLS,
		Username:   cfg.SMTP.User,
		Password:   cfg.SMTP.Password,
		From:       cfg.Mail.From,
		Subject:    cfg.Mail.Subject,
		Recipients: cfg.Mail.Recipients,
	}
	if err := sendReport(ctx, mcfg, mail.Report{Text: markdown, HTML: html, Attachments: attachments}); err != nil {
		return err
	}
	out.Success("Report email sent to %d recipient(s).", len(mcfg.Recipients))
	return nil
}

// finish prints the run totals and converts failures into an exit status.
func finish(t index.Totals) error {
	out.SummaryHeader("Run Summary")
	out.SummaryPassed("Passed collections", fmt.Sprintf("%d", t.Collections-t.FailedCollections))
	if t.FailedCollections > 0 {
		out.SummaryFailed("Failed collections", fmt.Sprintf("%d", t.FailedCollections))
	}
	out.SummaryItem("Requests", formatCount(t.Requests, t.FailedRequests))
	out.SummaryItem("Tests", formatCount(t.Tests, t.FailedTests))

	if t.OK() {
		out.FinalSuccess("All %d collections passed.", t.Collections)
		return nil
	}
	out.FinalFailure("%d of %d collections failed.", t.FailedCollections, t.Collections)
	return errors.Newf("%d of %d collections failed", t.FailedCollections, t.Collections)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
