package cli

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/automatest/internal/errors"
	"github.com/AndreyAkinshin/automatest/internal/history"
	"github.com/AndreyAkinshin/automatest/internal/render"
)

func newHistoryCommand(global *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List recorded runs or print the report of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.LogsDir, history.FileName)
			if _, err := os.Stat(path); err != nil {
				out.Info("No runs recorded yet.")
				return nil
			}

			store, err := history.Open(path)
			if err != nil {
				return errors.Wrap(err, "failed to open run history")
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				return printRun(store, args[0])
			}
			return listRuns(store, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")

	return cmd
}

func printRun(store *history.Store, id string) error {
	rec, err := store.Get(id)
	if stderrors.Is(err, history.ErrNotFound) {
		return errors.NotFound("run", id)
	}
	if err != nil {
		return errors.Wrap(err, "failed to read run")
	}
	out.Println("%s", render.Markdown(rec.Index(), rec.Runner))
	return nil
}

func listRuns(store *history.Store, limit int) error {
	runs, err := store.List(limit)
	if err != nil {
		return errors.Wrap(err, "failed to list runs")
	}
	if len(runs) == 0 {
		out.Info("No runs recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		status := "OK"
		if !r.Totals.OK() {
			status = "PROBLEM"
		}
		rows = append(rows, []string{
			r.ID,
			r.Runner,
			status,
			strconv.Itoa(r.Totals.Collections),
			formatCount(r.Totals.Requests, r.Totals.FailedRequests),
			formatCount(r.Totals.Tests, r.Totals.FailedTests),
		})
	}
	out.Table([]string{"ID", "RUNNER", "STATUS", "COLLECTIONS", "REQUESTS", "TESTS"}, rows)
	return nil
}
